package common

import (
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const defaultPageSize = 10

// PageSize returns the configured listing page size (BLOG_PAGE_SIZE, default 10).
func PageSize() int {
	raw := os.Getenv("BLOG_PAGE_SIZE")
	if raw == "" {
		return defaultPageSize
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < 1 {
		return defaultPageSize
	}
	return size
}

// PageParam reads the ?page= query parameter, clamping to 1.
func PageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Paginate applies offset/limit for the given 1-based page.
func Paginate(tx *gorm.DB, page, size int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	return tx.Offset((page - 1) * size).Limit(size)
}
