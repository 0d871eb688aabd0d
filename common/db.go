package common

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// LoadEnv loads a .env file into the process environment if one is present.
// Missing files are fine, real environment variables always win.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}
}

func ConnectDb() *gorm.DB {
	dbFile := os.Getenv("sqlite_db")
	log.Println("attemptConnectDb: sqlite_db from env (raw):", dbFile)
	if dbFile == "" {
		log.Println("sqlite_db not set")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(withForeignKeys(dbFile)), &gorm.Config{})
	if err != nil {
		log.Println("Error opening sqlite db: " + err.Error())
		return nil
	}
	log.Println("opened sqlite db at:", dbFile)
	return db
}

// ConnectAnalyticsDb connects to the separate analytics database
func ConnectAnalyticsDb() *gorm.DB {
	analyticsDbFile := os.Getenv("analytics_db")
	log.Println("attemptConnectAnalyticsDb: analytics_db from env (raw):", analyticsDbFile)

	if analyticsDbFile == "" {
		log.Println("analytics_db not set - analytics will be disabled")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(analyticsDbFile), &gorm.Config{})
	if err != nil {
		log.Println("Error opening analytics sqlite db: " + err.Error())
		return nil
	}

	log.Println("opened analytics sqlite db at:", analyticsDbFile)
	return db
}

// withForeignKeys enables sqlite foreign key enforcement on every
// connection. Category/location/post cascades depend on it.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}
