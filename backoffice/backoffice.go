// Package backoffice is the staff-only area where categories and locations
// are managed. Access is limited to accounts whose email is listed in
// BACKOFFICE_EMAILS.
package backoffice

import (
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogicum/auth"
	"blogicum/models"
)

var slugRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type BackofficeModule struct {
	db *gorm.DB
}

func NewBackofficeModule(db *gorm.DB) *BackofficeModule {
	return &BackofficeModule{db: db}
}

func (b *BackofficeModule) RegisterRoutes(router *gin.Engine) {
	backofficeGroup := router.Group("/$")
	{
		backofficeGroup.GET("/login", b.loginPage)
		backofficeGroup.POST("/login", b.loginPost)
		backofficeGroup.GET("/index", b.requireBackofficeAuth, b.index)
		backofficeGroup.POST("/category/create", b.requireBackofficeAuth, b.createCategory)
		backofficeGroup.POST("/category/:categoryID", b.requireBackofficeAuth, b.updateCategory)
		backofficeGroup.POST("/toggle-category/:categoryID", b.requireBackofficeAuth, b.toggleCategory)
		backofficeGroup.DELETE("/category/:categoryID", b.requireBackofficeAuth, b.deleteCategory)
		backofficeGroup.POST("/location/create", b.requireBackofficeAuth, b.createLocation)
		backofficeGroup.POST("/toggle-location/:locationID", b.requireBackofficeAuth, b.toggleLocation)
		backofficeGroup.DELETE("/location/:locationID", b.requireBackofficeAuth, b.deleteLocation)
		backofficeGroup.GET("/logout", b.logout)
	}
}

// requireBackofficeAuth checks for a logged-in session whose email is on the
// staff allow-list.
func (b *BackofficeModule) requireBackofficeAuth(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("backoffice_user_id")

	if userID == nil {
		c.Redirect(http.StatusFound, "/$/login")
		c.Abort()
		return
	}

	var user models.User
	if err := b.db.First(&user, userID).Error; err != nil {
		c.Redirect(http.StatusFound, "/$/login")
		c.Abort()
		return
	}

	if !b.isBackofficeEmail(user.Email) {
		session.Clear()
		session.Save()
		c.HTML(http.StatusForbidden, "backoffice_error.html", gin.H{
			"error": "Access denied",
		})
		c.Abort()
		return
	}

	c.Set("backoffice_user", user)
	c.Next()
}

func (b *BackofficeModule) isBackofficeEmail(email string) bool {
	backofficeEmails := os.Getenv("BACKOFFICE_EMAILS")
	if backofficeEmails == "" {
		return false
	}

	emails := strings.Split(backofficeEmails, ",")
	for _, e := range emails {
		if strings.TrimSpace(e) == email {
			return true
		}
	}
	return false
}

func (b *BackofficeModule) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "backoffice_login.html", gin.H{})
}

func (b *BackofficeModule) loginPost(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	var user models.User
	if err := b.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "backoffice_login.html", gin.H{
			"error": "Incorrect email or password",
			"email": email,
		})
		return
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		c.HTML(http.StatusUnauthorized, "backoffice_login.html", gin.H{
			"error": "Incorrect email or password",
			"email": email,
		})
		return
	}

	if !b.isBackofficeEmail(user.Email) {
		c.HTML(http.StatusForbidden, "backoffice_login.html", gin.H{
			"error": "You do not have backoffice access",
			"email": email,
		})
		return
	}

	session := sessions.Default(c)
	session.Set("backoffice_user_id", user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/$/index")
}

func (b *BackofficeModule) index(c *gin.Context) {
	var categories []models.Category
	if err := b.db.Order("title ASC").Find(&categories).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "backoffice_error.html", gin.H{
			"error": "Could not load categories",
		})
		return
	}

	// Post counts shown next to each category.
	type CategoryWithStats struct {
		Category  models.Category
		PostCount int64
	}

	categoriesWithStats := make([]CategoryWithStats, len(categories))
	for i, category := range categories {
		var postCount int64
		b.db.Model(&models.Post{}).Where("category_id = ?", category.ID).Count(&postCount)

		categoriesWithStats[i] = CategoryWithStats{
			Category:  category,
			PostCount: postCount,
		}
	}

	var locations []models.Location
	if err := b.db.Order("name ASC").Find(&locations).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "backoffice_error.html", gin.H{
			"error": "Could not load locations",
		})
		return
	}

	c.HTML(http.StatusOK, "backoffice_index.html", gin.H{
		"categories": categoriesWithStats,
		"locations":  locations,
	})
}

func (b *BackofficeModule) createCategory(c *gin.Context) {
	title := strings.TrimSpace(c.PostForm("title"))
	description := c.PostForm("description")
	slug := strings.TrimSpace(c.PostForm("slug"))

	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	if slug == "" {
		slug = GenerateSlug(title)
	}
	if !slugRe.MatchString(slug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug may contain latin letters, digits, hyphen and underscore only"})
		return
	}

	var existing models.Category
	if err := b.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This slug is already in use"})
		return
	}

	category := models.Category{
		Title:       title,
		Description: description,
		Slug:        slug,
		IsPublished: true,
	}

	if err := b.db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create the category"})
		return
	}

	c.Redirect(http.StatusFound, "/$/index")
}

func (b *BackofficeModule) updateCategory(c *gin.Context) {
	categoryID := c.Param("categoryID")

	var category models.Category
	if err := b.db.First(&category, categoryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	if title := strings.TrimSpace(c.PostForm("title")); title != "" {
		category.Title = title
	}
	if description, ok := c.GetPostForm("description"); ok {
		category.Description = description
	}
	if slug := strings.TrimSpace(c.PostForm("slug")); slug != "" && slug != category.Slug {
		if !slugRe.MatchString(slug) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Slug may contain latin letters, digits, hyphen and underscore only"})
			return
		}
		var existing models.Category
		if err := b.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "This slug is already in use"})
			return
		}
		category.Slug = slug
	}

	if err := b.db.Save(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update the category"})
		return
	}

	c.Redirect(http.StatusFound, "/$/index")
}

// toggleCategory flips is_published; hiding a category hides every post in it
// without touching the posts themselves.
func (b *BackofficeModule) toggleCategory(c *gin.Context) {
	categoryID := c.Param("categoryID")

	var category models.Category
	if err := b.db.First(&category, categoryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	category.IsPublished = !category.IsPublished
	if err := b.db.Save(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update the category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"isPublished": category.IsPublished,
	})
}

// deleteCategory removes the category; the store cascades the delete to
// every post referencing it.
func (b *BackofficeModule) deleteCategory(c *gin.Context) {
	categoryID := c.Param("categoryID")

	result := b.db.Delete(&models.Category{}, "id = ?", categoryID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete the category"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

func (b *BackofficeModule) createLocation(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	location := models.Location{
		Name:        name,
		IsPublished: true,
	}

	if err := b.db.Create(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create the location"})
		return
	}

	c.Redirect(http.StatusFound, "/$/index")
}

func (b *BackofficeModule) toggleLocation(c *gin.Context) {
	locationID := c.Param("locationID")

	var location models.Location
	if err := b.db.First(&location, locationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}

	location.IsPublished = !location.IsPublished
	if err := b.db.Save(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update the location"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"isPublished": location.IsPublished,
	})
}

// deleteLocation removes the location; the store nulls the reference on
// posts that used it.
func (b *BackofficeModule) deleteLocation(c *gin.Context) {
	locationID := c.Param("locationID")

	result := b.db.Delete(&models.Location{}, "id = ?", locationID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete the location"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location deleted"})
}

func (b *BackofficeModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/$/login")
}

// GenerateSlug derives a URL-safe slug from a title.
func GenerateSlug(title string) string {
	accentMap := map[rune]rune{
		'á': 'a', 'à': 'a', 'ã': 'a', 'â': 'a', 'ä': 'a', 'å': 'a',
		'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
		'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
		'ó': 'o', 'ò': 'o', 'õ': 'o', 'ô': 'o', 'ö': 'o', 'ø': 'o',
		'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
		'ç': 'c', 'ñ': 'n', 'ý': 'y', 'ß': 's',
	}

	slug := strings.ToLower(title)
	slug = strings.Map(func(r rune) rune {
		if replacement, exists := accentMap[r]; exists {
			return replacement
		}
		return r
	}, slug)

	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		if r == ' ' {
			return '-'
		}
		return -1
	}, slug)

	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return slug
}
