package blog

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blogicum/models"
)

func (b *BlogModule) sitemap(c *gin.Context) {
	domain := os.Getenv("DOMAIN")
	if domain == "" {
		domain = "http://localhost"
	}
	domain = strings.TrimSuffix(domain, "/")

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	sitemap.WriteString("  <url>\n")
	sitemap.WriteString("    <loc>" + domain + "/</loc>\n")
	sitemap.WriteString("    <changefreq>daily</changefreq>\n")
	sitemap.WriteString("    <priority>1.0</priority>\n")
	sitemap.WriteString("  </url>\n")

	var categories []models.Category
	filterPublished(b.db.Model(&models.Category{})).Find(&categories)
	for _, category := range categories {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + domain + "/category/" + category.Slug + "/</loc>\n")
		sitemap.WriteString("    <changefreq>daily</changefreq>\n")
		sitemap.WriteString("    <priority>0.8</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	var posts []models.Post
	visiblePosts(b.db.Model(&models.Post{}), time.Now()).
		Order("posts.pub_date DESC").
		Find(&posts)
	for _, post := range posts {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString(fmt.Sprintf("    <loc>%s/posts/%d/</loc>\n", domain, post.ID))
		sitemap.WriteString("    <lastmod>" + post.PubDate.Format("2006-01-02") + "</lastmod>\n")
		sitemap.WriteString("    <priority>0.6</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	sitemap.WriteString("</urlset>\n")

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(sitemap.String()))
}
