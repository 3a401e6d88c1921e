package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	MigrationsPath  string
	TimeZone        string
	SessionSecret   string
	SessionToken    string
	OutputFormat    string
	BackupBucket    string
	BackupRegion    string
	BackupEndpoint  string
	BackupPathStyle bool
}

// Load reads an optional .env file, then configuration from environment
// variables with sensible defaults
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	return &Config{
		DatabaseType:    strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath:    getEnv("DB_PATH", "./familyplanner.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		TimeZone:        getEnv("TZ_NAME", "Local"),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionToken:    getEnv("SESSION_TOKEN", ""),
		OutputFormat:    getEnv("OUTPUT_FORMAT", "table"),
		BackupBucket:    getEnv("BACKUP_S3_BUCKET", ""),
		BackupRegion:    getEnv("BACKUP_S3_REGION", "us-east-1"),
		BackupEndpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
		BackupPathStyle: getEnv("BACKUP_S3_PATH_STYLE", "false") == "true",
	}
}

// Location resolves TimeZone; day and week views are computed in it
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_NAME %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
