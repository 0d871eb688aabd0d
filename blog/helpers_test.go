package blog

import (
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"blogicum/models"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	// A single connection keeps the in-memory database alive and the
	// foreign_keys pragma effective.
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	db.AutoMigrate(&models.User{}, &models.Category{}, &models.Location{}, &models.Post{}, &models.Comment{})
	return db
}

func testTemplates() *template.Template {
	tmpl := template.New("test")
	for _, name := range []string{
		"index.html", "detail.html", "category.html",
		"post_form.html", "post_confirm_delete.html",
		"comment_form.html", "comment_confirm_delete.html",
		"profile.html", "profile_form.html", "password_form.html",
		"error.html", "login.html", "registration.html",
	} {
		template.Must(tmpl.New(name).Parse(name))
	}
	return tmpl
}

func setupTestRouter(blogModule *BlogModule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	router.SetHTMLTemplate(testTemplates())
	blogModule.RegisterRoutes(router)

	// Session fixture: tests log in by id without going through bcrypt.
	router.GET("/__login/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		session := sessions.Default(c)
		session.Set("user_id", id)
		session.Save()
		c.Status(http.StatusOK)
	})

	return router
}

func loginAs(t *testing.T, router *gin.Engine, userID int) []*http.Cookie {
	t.Helper()

	req, _ := http.NewRequest("GET", fmt.Sprintf("/__login/%d", userID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w.Result().Cookies()
}

func doGet(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doPostForm(router *gin.Engine, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTestUser(db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
	}
	db.Create(user)
	return user
}

func createTestCategory(db *gorm.DB, slug string, published bool) *models.Category {
	category := &models.Category{
		Title:       "Category " + slug,
		Description: "Test category",
		Slug:        slug,
		IsPublished: published,
	}
	db.Create(category)
	return category
}

func createTestLocation(db *gorm.DB, name string, published bool) *models.Location {
	location := &models.Location{
		Name:        name,
		IsPublished: published,
	}
	db.Create(location)
	return location
}

func createTestPost(db *gorm.DB, authorID int, categoryID *int, published bool, pubDate time.Time) *models.Post {
	post := &models.Post{
		Title:       "Test Post",
		Text:        "Some **markdown** text.",
		PubDate:     pubDate,
		IsPublished: published,
		AuthorID:    authorID,
		CategoryID:  categoryID,
		CreatedAt:   time.Now(),
	}
	db.Create(post)
	return post
}

func createTestComment(db *gorm.DB, postID, authorID int, text string, createdAt time.Time) *models.Comment {
	comment := &models.Comment{
		Text:      text,
		PostID:    postID,
		AuthorID:  authorID,
		CreatedAt: createdAt,
	}
	db.Create(comment)
	return comment
}

func yesterday() time.Time { return time.Now().Add(-24 * time.Hour) }
func tomorrow() time.Time  { return time.Now().Add(24 * time.Hour) }
