package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PostEvent is a single tracked visit to a post page.
type PostEvent struct {
	ID        uint      `gorm:"primary_key;autoIncrement"`
	PostID    int       `gorm:"not null;index"`
	CookieID  string    `gorm:"not null;index"`
	Event     string    `gorm:"not null;default:'visit'"`
	IP        string    `gorm:"not null"`
	Language  *string   // nullable
	Browser   *string   // nullable
	CreatedAt time.Time `gorm:"index"`
}

// AnalyticsModule records visits in its own database. All methods are
// nil-receiver safe so the app runs fine with analytics disabled.
type AnalyticsModule struct {
	db *gorm.DB
}

func NewAnalyticsModule(db *gorm.DB) *AnalyticsModule {
	if db == nil {
		log.Println("Analytics DB is nil, analytics will be disabled")
		return nil
	}

	if err := db.AutoMigrate(&PostEvent{}); err != nil {
		log.Printf("Error migrating post_events table: %v", err)
		return nil
	}

	log.Println("Analytics module initialized successfully")
	return &AnalyticsModule{db: db}
}

// TrackVisit records a visit to a post. A repeat visit from the same cookie
// within 30 minutes is ignored so refreshes do not inflate counts.
func (a *AnalyticsModule) TrackVisit(c *gin.Context, postID int) {
	if a == nil || a.db == nil {
		return
	}

	cookieID := a.getOrCreateCookieID(c)

	thirtyMinutesAgo := time.Now().Add(-30 * time.Minute)
	var recentVisit PostEvent
	err := a.db.Where("cookie_id = ? AND post_id = ? AND created_at > ?",
		cookieID, postID, thirtyMinutesAgo).First(&recentVisit).Error
	if err == nil {
		return
	}

	event := PostEvent{
		PostID:    postID,
		CookieID:  cookieID,
		Event:     "visit",
		IP:        c.ClientIP(),
		Language:  a.extractLanguage(c),
		Browser:   a.extractBrowser(c.Request.UserAgent()),
		CreatedAt: time.Now(),
	}

	// Saved off the request path, a lost event is acceptable.
	go func() {
		if err := a.db.Create(&event).Error; err != nil {
			log.Printf("Error saving analytics event: %v", err)
		}
	}()
}

// GetPostVisitCount returns the total tracked visits for a post.
func (a *AnalyticsModule) GetPostVisitCount(postID int) int64 {
	if a == nil || a.db == nil {
		return 0
	}

	var count int64
	a.db.Model(&PostEvent{}).Where("post_id = ?", postID).Count(&count)
	return count
}

func (a *AnalyticsModule) getOrCreateCookieID(c *gin.Context) string {
	cookieName := "blogicum_visitor_id"

	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	data := time.Now().String() + c.ClientIP() + c.Request.UserAgent()
	hash := sha256.Sum256([]byte(data))
	cookieID := hex.EncodeToString(hash[:])

	c.SetCookie(
		cookieName,
		cookieID,
		60*60*24*365*2, // 2 years
		"/",
		"",
		false, // secure - would be true behind HTTPS
		true,  // httpOnly
	)

	return cookieID
}

func (a *AnalyticsModule) extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var browser string

	// Order matters, the more specific tokens go first.
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	default:
		browser = "Other"
	}

	return &browser
}

func (a *AnalyticsModule) extractLanguage(c *gin.Context) *string {
	acceptLang := c.GetHeader("Accept-Language")
	if acceptLang == "" {
		return nil
	}

	// "en-US,en;q=0.9,pt-BR;q=0.8" -> "en-US"
	lang := strings.TrimSpace(strings.Split(acceptLang, ",")[0])
	lang = strings.Split(lang, ";")[0]
	return &lang
}
