package backoffice

import (
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"blogicum/models"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	db.AutoMigrate(&models.User{}, &models.Category{}, &models.Location{}, &models.Post{}, &models.Comment{})
	return db
}

func setupTestRouter(backofficeModule *BackofficeModule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))

	tmpl := template.New("test")
	for _, name := range []string{"backoffice_login.html", "backoffice_index.html", "backoffice_error.html"} {
		template.Must(tmpl.New(name).Parse(name))
	}
	router.SetHTMLTemplate(tmpl)

	backofficeModule.RegisterRoutes(router)

	router.GET("/__login/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		session := sessions.Default(c)
		session.Set("backoffice_user_id", id)
		session.Save()
		c.Status(http.StatusOK)
	})

	return router
}

func staffCookies(t *testing.T, router *gin.Engine, userID int) []*http.Cookie {
	t.Helper()

	req, _ := http.NewRequest("GET", fmt.Sprintf("/__login/%d", userID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Result().Cookies()
}

func do(router *gin.Engine, method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req, _ = http.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createStaffUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	t.Setenv("BACKOFFICE_EMAILS", "staff@example.com, boss@example.com")

	user := &models.User{
		Username:     "staff",
		Email:        "staff@example.com",
		PasswordHash: "hashedpassword",
	}
	db.Create(user)
	return user
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"Testing 123", "testing-123"},
		{"Multiple   Spaces", "multiple-spaces"},
		{"Special@#Characters!", "specialcharacters"},
		{"---Dashes---", "dashes"},
		{"Café résumé", "cafe-resume"},
		{"snake_case stays", "snake_case-stays"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := GenerateSlug(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIndex_AnonymousIsRedirectedToLogin(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBackofficeModule(db))

	w := do(router, "GET", "/$/index", nil, nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/$/login")
}

func TestIndex_NonStaffIsForbidden(t *testing.T) {
	db := setupTestDB()
	t.Setenv("BACKOFFICE_EMAILS", "staff@example.com")

	outsider := &models.User{Username: "outsider", Email: "outsider@example.com", PasswordHash: "h"}
	db.Create(outsider)

	router := setupTestRouter(NewBackofficeModule(db))
	cookies := staffCookies(t, router, outsider.ID)

	w := do(router, "GET", "/$/index", nil, cookies)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateCategory_GeneratesSlug(t *testing.T) {
	db := setupTestDB()
	staff := createStaffUser(t, db)

	router := setupTestRouter(NewBackofficeModule(db))
	cookies := staffCookies(t, router, staff.ID)

	w := do(router, "POST", "/$/category/create", url.Values{
		"title":       {"Local News"},
		"description": {"What happens nearby"},
	}, cookies)

	assert.Equal(t, http.StatusFound, w.Code)

	var category models.Category
	assert.NoError(t, db.Where("slug = ?", "local-news").First(&category).Error)
	assert.Equal(t, "Local News", category.Title)
	assert.True(t, category.IsPublished)
}

func TestCreateCategory_RejectsBadSlug(t *testing.T) {
	db := setupTestDB()
	staff := createStaffUser(t, db)

	router := setupTestRouter(NewBackofficeModule(db))
	cookies := staffCookies(t, router, staff.ID)

	w := do(router, "POST", "/$/category/create", url.Values{
		"title": {"News"},
		"slug":  {"no spaces allowed"},
	}, cookies)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCategory_DuplicateSlug(t *testing.T) {
	db := setupTestDB()
	staff := createStaffUser(t, db)
	db.Create(&models.Category{Title: "News", Slug: "news", IsPublished: true})

	router := setupTestRouter(NewBackofficeModule(db))
	cookies := staffCookies(t, router, staff.ID)

	w := do(router, "POST", "/$/category/create", url.Values{
		"title": {"More News"},
		"slug":  {"news"},
	}, cookies)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleCategory(t *testing.T) {
	db := setupTestDB()
	staff := createStaffUser(t, db)

	category := &models.Category{Title: "News", Slug: "news", IsPublished: true}
	db.Create(category)

	router := setupTestRouter(NewBackofficeModule(db))
	cookies := staffCookies(t, router, staff.ID)

	w := do(router, "POST", fmt.Sprintf("/$/toggle-category/%d", category.ID), url.Values{}, cookies)

	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Category
	db.First(&reloaded, category.ID)
	assert.False(t, reloaded.IsPublished)
}

func TestDeleteCategory_NotFound(t *testing.T) {
	db := setupTestDB()
	staff := createStaffUser(t, db)

	router := setupTestRouter(NewBackofficeModule(db))
	cookies := staffCookies(t, router, staff.ID)

	w := do(router, "DELETE", "/$/category/999", nil, cookies)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAndToggleLocation(t *testing.T) {
	db := setupTestDB()
	staff := createStaffUser(t, db)

	router := setupTestRouter(NewBackofficeModule(db))
	cookies := staffCookies(t, router, staff.ID)

	w := do(router, "POST", "/$/location/create", url.Values{
		"name": {"Reykjavik"},
	}, cookies)
	assert.Equal(t, http.StatusFound, w.Code)

	var location models.Location
	assert.NoError(t, db.Where("name = ?", "Reykjavik").First(&location).Error)
	assert.True(t, location.IsPublished)

	w = do(router, "POST", fmt.Sprintf("/$/toggle-location/%d", location.ID), url.Values{}, cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&location, location.ID)
	assert.False(t, location.IsPublished)
}
