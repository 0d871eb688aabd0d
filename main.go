package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"blogicum/analytics"
	"blogicum/auth"
	"blogicum/backoffice"
	"blogicum/blog"
	"blogicum/common"
	"blogicum/database"
	"blogicum/storage"
)

func main() {
	common.LoadEnv()

	db := common.ConnectDb()
	if db == nil {
		log.Fatal("Failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	analyticsModule := analytics.NewAnalyticsModule(common.ConnectAnalyticsDb())

	router := gin.Default()

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})

	router.Use(sessions.Sessions("blogicum-session", store))

	router.SetFuncMap(map[string]interface{}{
		"now": func() time.Time {
			return time.Now()
		},
		"domain": func() string {
			d := os.Getenv("DOMAIN")
			if d == "" {
				return "http://localhost:8080"
			}
			return d
		},
	})

	router.LoadHTMLGlob("templates/*.html")

	router.Static("/public", "./public")
	router.Static("/media", storage.MediaRoot())

	authModule := auth.NewAuthModule(db)
	authModule.RegisterRoutes(router)

	blogModule := blog.NewBlogModule(db, analyticsModule)
	blogModule.RegisterRoutes(router)

	backofficeModule := backoffice.NewBackofficeModule(db)
	backofficeModule.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
