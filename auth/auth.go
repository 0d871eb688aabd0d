package auth

import (
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	emailpkg "blogicum/email"
	"blogicum/forms"
	"blogicum/models"
)

const sessionUserKey = "user_id"

var usernameRe = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

type AuthModule struct {
	db *gorm.DB
}

func NewAuthModule(db *gorm.DB) *AuthModule {
	return &AuthModule{db: db}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/registration/", a.registrationPage)
		authGroup.POST("/registration/", a.registrationPost)
		authGroup.GET("/login/", a.loginPage)
		authGroup.POST("/login/", a.loginPost)
		authGroup.GET("/logout/", a.logout)
	}
}

// RequireAuth redirects anonymous requests to the login page and puts the
// session user id into the request context for downstream handlers.
func RequireAuth(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get(sessionUserKey)

	uid, ok := userID.(int)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login/")
		c.Abort()
		return
	}

	c.Set(sessionUserKey, uid)
	c.Next()
}

// SessionUserID returns the logged-in user's id, if any. Public pages use it
// for the visibility branch without forcing a login.
func SessionUserID(c *gin.Context) (int, bool) {
	if uid, ok := c.Get(sessionUserKey); ok {
		if id, ok := uid.(int); ok {
			return id, true
		}
	}
	session := sessions.Default(c)
	if id, ok := session.Get(sessionUserKey).(int); ok {
		return id, true
	}
	return 0, false
}

// CurrentUser loads the logged-in user record.
func CurrentUser(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	uid, ok := SessionUserID(c)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func (a *AuthModule) loginPage(c *gin.Context) {
	if _, ok := SessionUserID(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (a *AuthModule) loginPost(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	var user models.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"error":    "Incorrect username or password",
			"username": username,
		})
		return
	}

	if !CheckPasswordHash(password, user.PasswordHash) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"error":    "Incorrect username or password",
			"username": username,
		})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

func (a *AuthModule) registrationPage(c *gin.Context) {
	if _, ok := SessionUserID(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "registration.html", gin.H{})
}

func (a *AuthModule) registrationPost(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))

	// Resubmitted on error, password deliberately left out.
	formData := gin.H{
		"username":   username,
		"email":      c.PostForm("email"),
		"first_name": c.PostForm("first_name"),
		"last_name":  c.PostForm("last_name"),
	}

	errs := forms.Errors{}

	if !usernameRe.MatchString(username) {
		errs["username"] = "Username may contain letters, digits and @/./+/-/_ only"
	} else {
		var existing models.User
		if err := a.db.Where("username = ?", username).First(&existing).Error; err == nil {
			errs["username"] = "This username is already taken"
		}
	}

	profile, ferrs := forms.UserForm(map[string]string{
		"email":      c.PostForm("email"),
		"first_name": c.PostForm("first_name"),
		"last_name":  c.PostForm("last_name"),
	}, nil)
	for field, msg := range ferrs {
		errs[field] = msg
	}

	password, perrs := forms.PasswordForm(map[string]string{"password": c.PostForm("password")})
	for field, msg := range perrs {
		errs[field] = msg
	}

	if len(errs) == 0 {
		var existing models.User
		if err := a.db.Where("email = ?", profile.Email).First(&existing).Error; err == nil {
			errs["email"] = "This email is already registered"
		}
	}

	if len(errs) > 0 {
		formData["errors"] = errs
		c.HTML(http.StatusBadRequest, "registration.html", formData)
		return
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		formData["errors"] = forms.Errors{"password": "Could not create the account"}
		c.HTML(http.StatusInternalServerError, "registration.html", formData)
		return
	}

	user := models.User{
		Username:     username,
		Email:        profile.Email,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		PasswordHash: passwordHash,
	}

	if err := a.db.Create(&user).Error; err != nil {
		formData["errors"] = forms.Errors{"username": "Could not create the account"}
		c.HTML(http.StatusInternalServerError, "registration.html", formData)
		return
	}

	// Best effort, registration never fails on mail trouble.
	emailService := emailpkg.NewEmailService()
	if err := emailService.SendWelcomeEmail(user.Email, user.Username); err != nil {
		log.Printf("Error sending welcome email to %s: %v", user.Email, err)
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

func (a *AuthModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
