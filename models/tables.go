package models

import "time"

type User struct {
	ID           int       `gorm:"primary_key;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null;index" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	Email        string    `gorm:"unique;not null" json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type Category struct {
	ID          int       `gorm:"primary_key;autoIncrement" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Slug        string    `gorm:"unique;not null;index" json:"slug"` // URL identifier: latin letters, digits, hyphen, underscore
	IsPublished bool      `gorm:"index" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

type Location struct {
	ID          int       `gorm:"primary_key;autoIncrement" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID          int       `gorm:"primary_key;autoIncrement" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text" json:"text"`
	PubDate     time.Time `gorm:"not null;index" json:"pub_date"` // a future date schedules the publication
	Image       string    `json:"image,omitempty"`                // relative path under the media root
	IsPublished bool      `gorm:"index" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorID    int       `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	LocationID  *int      `gorm:"index" json:"location_id,omitempty"`
	Location    *Location `gorm:"constraint:OnDelete:SET NULL" json:"location,omitempty"`
	CategoryID  *int      `gorm:"index" json:"category_id,omitempty"`
	Category    *Category `gorm:"constraint:OnDelete:CASCADE" json:"category,omitempty"`
}

// VisibleAt reports whether the post is publicly visible at the given time.
// The author always sees their own posts regardless of this predicate.
func (p *Post) VisibleAt(now time.Time) bool {
	return p.IsPublished &&
		!p.PubDate.After(now) &&
		p.Category != nil && p.Category.IsPublished
}

type Comment struct {
	ID        int       `gorm:"primary_key;autoIncrement" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	AuthorID  int       `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	PostID    int       `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
