package blog

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"blogicum/auth"
	"blogicum/common"
	emailpkg "blogicum/email"
	"blogicum/forms"
	"blogicum/models"
)

// profile lists the author's posts. The owner sees everything, including
// unpublished and scheduled posts; everyone else only the visible ones.
func (b *BlogModule) profile(c *gin.Context) {
	username := c.Param("username")

	var owner models.User
	if err := b.db.Where("username = ?", username).First(&owner).Error; err != nil {
		b.notFound(c, "Profile not found")
		return
	}

	page := common.PageParam(c)
	size := common.PageSize()

	uid, _ := auth.SessionUserID(c)

	query := withRelations(b.db.Model(&models.Post{})).
		Where("posts.author_id = ?", owner.ID).
		Order("posts.pub_date DESC")
	if uid != owner.ID {
		query = visiblePosts(query, time.Now())
	}

	var posts []models.Post
	if err := common.Paginate(query, page, size).Find(&posts).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Could not load posts",
		})
		return
	}

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"profile": owner,
		"posts":   posts,
		"page":    page,
		"isOwner": uid == owner.ID,
	})
}

// requireOwnProfile makes the path username and the session user agree.
// A mismatch redirects to the session user's own edit page instead of
// silently editing a different account than the URL names.
func (b *BlogModule) requireOwnProfile(c *gin.Context, suffix string) *models.User {
	user, ok := auth.CurrentUser(c, b.db)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login/")
		c.Abort()
		return nil
	}

	if c.Param("username") != user.Username {
		c.Redirect(http.StatusFound, "/profile/"+user.Username+"/edit/"+suffix)
		c.Abort()
		return nil
	}

	return user
}

func (b *BlogModule) editProfilePage(c *gin.Context) {
	user := b.requireOwnProfile(c, "")
	if user == nil {
		return
	}

	c.HTML(http.StatusOK, "profile_form.html", gin.H{
		"profile": user,
	})
}

func (b *BlogModule) updateProfile(c *gin.Context) {
	user := b.requireOwnProfile(c, "")
	if user == nil {
		return
	}

	values := map[string]string{}
	for _, field := range []string{"email", "first_name", "last_name"} {
		if v, ok := c.GetPostForm(field); ok {
			values[field] = v
		}
	}

	patched, errs := forms.UserForm(values, user)
	if errs != nil {
		c.HTML(http.StatusBadRequest, "profile_form.html", gin.H{
			"profile": user,
			"errors":  errs,
			"values":  values,
		})
		return
	}

	if err := b.db.Save(patched).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "profile_form.html", gin.H{
			"profile": user,
			"errors":  forms.Errors{"form": "Could not save the profile"},
			"values":  values,
		})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

func (b *BlogModule) passwordPage(c *gin.Context) {
	user := b.requireOwnProfile(c, "password/")
	if user == nil {
		return
	}

	c.HTML(http.StatusOK, "password_form.html", gin.H{
		"profile": user,
	})
}

func (b *BlogModule) changePassword(c *gin.Context) {
	user := b.requireOwnProfile(c, "password/")
	if user == nil {
		return
	}

	password, errs := forms.PasswordForm(map[string]string{"password": c.PostForm("password")})
	if errs != nil {
		c.HTML(http.StatusBadRequest, "password_form.html", gin.H{
			"profile": user,
			"errors":  errs,
		})
		return
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "password_form.html", gin.H{
			"profile": user,
			"errors":  forms.Errors{"password": "Could not change the password"},
		})
		return
	}

	user.PasswordHash = passwordHash
	if err := b.db.Save(user).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "password_form.html", gin.H{
			"profile": user,
			"errors":  forms.Errors{"password": "Could not change the password"},
		})
		return
	}

	// Best effort notification, the change itself already happened.
	emailService := emailpkg.NewEmailService()
	if err := emailService.SendPasswordChangedEmail(user.Email); err != nil {
		log.Printf("Error sending password change notice to %s: %v", user.Email, err)
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}
