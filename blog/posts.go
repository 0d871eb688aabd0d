package blog

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"blogicum/auth"
	"blogicum/forms"
	"blogicum/models"
	"blogicum/storage"
)

var postFormFields = []string{"title", "text", "pub_date", "location", "category", "is_published"}

// postFormValues collects only fields actually submitted, so update forms can
// leave fields out without clobbering them.
func postFormValues(c *gin.Context) map[string]string {
	values := map[string]string{}
	for _, field := range postFormFields {
		if v, ok := c.GetPostForm(field); ok {
			values[field] = v
		}
	}
	return values
}

// requirePostOwner resolves the post and enforces the owner-only policy:
// a non-owner is redirected to the detail page, deliberately not an error.
// Returns nil when the response has already been written.
func (b *BlogModule) requirePostOwner(c *gin.Context) *models.Post {
	postID, ok := intParam(c, "postID")
	if !ok {
		b.notFound(c, "Post not found")
		return nil
	}

	var post models.Post
	if err := b.db.First(&post, postID).Error; err != nil {
		b.notFound(c, "Post not found")
		return nil
	}

	uid, _ := auth.SessionUserID(c)
	if post.AuthorID != uid {
		c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", post.ID))
		c.Abort()
		return nil
	}

	return &post
}

// formChoices loads the published categories and locations for the selects.
func (b *BlogModule) formChoices() gin.H {
	var categories []models.Category
	filterPublished(b.db.Model(&models.Category{})).Order("title ASC").Find(&categories)

	var locations []models.Location
	filterPublished(b.db.Model(&models.Location{})).Order("name ASC").Find(&locations)

	return gin.H{"categories": categories, "locations": locations}
}

func (b *BlogModule) createPostPage(c *gin.Context) {
	c.HTML(http.StatusOK, "post_form.html", gin.H{
		"choices": b.formChoices(),
	})
}

func (b *BlogModule) createPost(c *gin.Context) {
	values := postFormValues(c)

	post, errs := forms.PostForm(values, nil)
	if errs != nil {
		c.HTML(http.StatusBadRequest, "post_form.html", gin.H{
			"errors":  errs,
			"values":  values,
			"choices": b.formChoices(),
		})
		return
	}

	user, ok := auth.CurrentUser(c, b.db)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login/")
		return
	}
	post.AuthorID = user.ID

	if imagePath, ok := b.saveUploadedImage(c); ok {
		post.Image = imagePath
	}

	// Associations are referenced by id, never upserted from here.
	if err := b.db.Omit(clause.Associations).Create(post).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "post_form.html", gin.H{
			"errors":  forms.Errors{"form": "Could not save the post"},
			"values":  values,
			"choices": b.formChoices(),
		})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

func (b *BlogModule) editPostPage(c *gin.Context) {
	post := b.requirePostOwner(c)
	if post == nil {
		return
	}

	visitCount := b.analytics.GetPostVisitCount(post.ID)

	c.HTML(http.StatusOK, "post_form.html", gin.H{
		"post":       post,
		"choices":    b.formChoices(),
		"visitCount": visitCount,
	})
}

func (b *BlogModule) updatePost(c *gin.Context) {
	post := b.requirePostOwner(c)
	if post == nil {
		return
	}

	values := postFormValues(c)

	patched, errs := forms.PostForm(values, post)
	if errs != nil {
		c.HTML(http.StatusBadRequest, "post_form.html", gin.H{
			"post":    post,
			"errors":  errs,
			"values":  values,
			"choices": b.formChoices(),
		})
		return
	}

	if imagePath, ok := b.saveUploadedImage(c); ok {
		if patched.Image != "" {
			if err := storage.Remove(patched.Image); err != nil {
				log.Printf("Error removing old post image %s: %v", patched.Image, err)
			}
		}
		patched.Image = imagePath
	}

	if err := b.db.Omit(clause.Associations).Save(patched).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "post_form.html", gin.H{
			"post":    post,
			"errors":  forms.Errors{"form": "Could not save the post"},
			"values":  values,
			"choices": b.formChoices(),
		})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", post.ID))
}

func (b *BlogModule) deletePostPage(c *gin.Context) {
	post := b.requirePostOwner(c)
	if post == nil {
		return
	}

	c.HTML(http.StatusOK, "post_confirm_delete.html", gin.H{
		"post": post,
	})
}

func (b *BlogModule) deletePost(c *gin.Context) {
	post := b.requirePostOwner(c)
	if post == nil {
		return
	}

	if err := b.db.Delete(post).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Could not delete the post",
		})
		return
	}

	if post.Image != "" {
		if err := storage.Remove(post.Image); err != nil {
			log.Printf("Error removing post image %s: %v", post.Image, err)
		}
	}

	c.Redirect(http.StatusFound, "/")
}

// saveUploadedImage stores an optional "image" multipart file and returns
// its media-relative path.
func (b *BlogModule) saveUploadedImage(c *gin.Context) (string, bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Error opening uploaded image: %v", err)
		return "", false
	}
	defer file.Close()

	imagePath, err := storage.SaveImage(fileHeader.Filename, file)
	if err != nil {
		log.Printf("Error saving uploaded image: %v", err)
		return "", false
	}

	return imagePath, true
}
