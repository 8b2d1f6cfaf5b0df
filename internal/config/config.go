package config

import (
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabaseURL     string
	DatabasePath    string
	MigrationsPath  string
	JWTSecret       string
	SessionDuration time.Duration

	// Email (Amazon SES); disabled when SESFromEmail is empty
	SESRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// Google sign-in; disabled when GoogleClientID is empty
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:     getEnv("DB_URL", ""),
		DatabasePath:    getEnv("DB_PATH", "./clickstart.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		SessionDuration: 24 * time.Hour,

		SESRegion:    getEnv("SES_REGION", "eu-west-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "ClickStart"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
