package blog

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"blogicum/analytics"
	"blogicum/auth"
	"blogicum/common"
	"blogicum/models"
)

type BlogModule struct {
	db        *gorm.DB
	analytics *analytics.AnalyticsModule
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // allow raw HTML passthrough in Markdown
	),
)

func NewBlogModule(db *gorm.DB, analyticsModule *analytics.AnalyticsModule) *BlogModule {
	return &BlogModule{db: db, analytics: analyticsModule}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", b.index)
	router.GET("/category/:slug/", b.categoryPosts)
	router.GET("/sitemap.xml", b.sitemap)

	posts := router.Group("/posts")
	{
		posts.GET("/:postID/", b.postDetail)
		posts.GET("/create/", auth.RequireAuth, b.createPostPage)
		posts.POST("/create/", auth.RequireAuth, b.createPost)
		posts.GET("/:postID/edit/", auth.RequireAuth, b.editPostPage)
		posts.POST("/:postID/edit/", auth.RequireAuth, b.updatePost)
		posts.GET("/:postID/delete/", auth.RequireAuth, b.deletePostPage)
		posts.POST("/:postID/delete/", auth.RequireAuth, b.deletePost)
		posts.POST("/:postID/comment/", auth.RequireAuth, b.addComment)
		posts.GET("/:postID/edit_comment/:commentID/", auth.RequireAuth, b.editCommentPage)
		posts.POST("/:postID/edit_comment/:commentID/", auth.RequireAuth, b.updateComment)
		posts.GET("/:postID/delete_comment/:commentID/", auth.RequireAuth, b.deleteCommentPage)
		posts.POST("/:postID/delete_comment/:commentID/", auth.RequireAuth, b.deleteComment)
	}

	profileGroup := router.Group("/profile")
	{
		profileGroup.GET("/:username/", b.profile)
		profileGroup.GET("/:username/edit/", auth.RequireAuth, b.editProfilePage)
		profileGroup.POST("/:username/edit/", auth.RequireAuth, b.updateProfile)
		profileGroup.GET("/:username/edit/password/", auth.RequireAuth, b.passwordPage)
		profileGroup.POST("/:username/edit/password/", auth.RequireAuth, b.changePassword)
	}
}

func (b *BlogModule) notFound(c *gin.Context, message string) {
	c.HTML(http.StatusNotFound, "error.html", gin.H{
		"error": message,
	})
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func (b *BlogModule) index(c *gin.Context) {
	page := common.PageParam(c)
	size := common.PageSize()

	var posts []models.Post
	query := withRelations(visiblePosts(b.db.Model(&models.Post{}), time.Now())).
		Order("posts.pub_date DESC")
	if err := common.Paginate(query, page, size).Find(&posts).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Could not load posts",
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"posts": posts,
		"page":  page,
	})
}

func (b *BlogModule) postDetail(c *gin.Context) {
	postID, ok := intParam(c, "postID")
	if !ok {
		b.notFound(c, "Post not found")
		return
	}

	var post models.Post
	if err := withRelations(b.db).First(&post, postID).Error; err != nil {
		b.notFound(c, "Post not found")
		return
	}

	uid, _ := auth.SessionUserID(c)
	if !post.VisibleAt(time.Now()) && uid != post.AuthorID {
		b.notFound(c, "Post not found")
		return
	}

	var comments []models.Comment
	if err := b.db.Preload("Author").
		Where("post_id = ?", post.ID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Could not load comments",
		})
		return
	}

	b.analytics.TrackVisit(c, post.ID)

	c.HTML(http.StatusOK, "detail.html", gin.H{
		"post":     post,
		"postHTML": template.HTML(renderMarkdown(post.Text)),
		"comments": comments,
		"form":     gin.H{},
	})
}

func (b *BlogModule) categoryPosts(c *gin.Context) {
	slug := c.Param("slug")

	var category models.Category
	if err := filterPublished(b.db.Model(&models.Category{})).
		Where("slug = ?", slug).
		First(&category).Error; err != nil {
		b.notFound(c, "Category not found")
		return
	}

	page := common.PageParam(c)
	size := common.PageSize()

	var posts []models.Post
	query := withRelations(visiblePosts(b.db.Model(&models.Post{}), time.Now())).
		Where("posts.category_id = ?", category.ID).
		Order("posts.pub_date DESC")
	if err := common.Paginate(query, page, size).Find(&posts).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Could not load posts",
		})
		return
	}

	c.HTML(http.StatusOK, "category.html", gin.H{
		"category": category,
		"posts":    posts,
		"page":     page,
	})
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// On error, return the original content so the page still renders.
		return content
	}
	return buf.String()
}
