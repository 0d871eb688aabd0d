package blog

import (
	"time"

	"gorm.io/gorm"

	"blogicum/models"
)

// filterPublished narrows any listing to published rows.
func filterPublished(tx *gorm.DB) *gorm.DB {
	return tx.Where("is_published = ?", true)
}

// withRelations preloads author, location and category so listing pages do
// not issue per-row lookups.
func withRelations(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Author").Preload("Location").Preload("Category")
}

// visiblePosts applies the public visibility predicate: the post is
// published, its publication time has passed and its category is published.
// Posts without a category never match, they stay author-only.
func visiblePosts(tx *gorm.DB, now time.Time) *gorm.DB {
	return tx.
		Joins("INNER JOIN categories ON categories.id = posts.category_id").
		Where("posts.is_published = ? AND posts.pub_date <= ? AND categories.is_published = ?",
			true, now, true)
}

// getVisiblePost fetches the post by id if it is publicly visible at now;
// otherwise it reports gorm.ErrRecordNotFound.
func getVisiblePost(db *gorm.DB, postID int, now time.Time) (*models.Post, error) {
	var post models.Post
	err := withRelations(visiblePosts(db.Model(&models.Post{}), now)).
		Where("posts.id = ?", postID).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}
