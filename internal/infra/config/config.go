package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL           string // empty selects the in-memory store
	TelegramToken         string // empty selects the log-only sender
	AdminTelegramID       int64  // 0 disables admin commands
	HTTPPort              string
	LogLevel              string
	Environment           string
	DefaultTimezone       string
	CatalogPath           string // empty selects the embedded catalog
	CronSpecDailyDigest   string
	CronSpecWeeklySummary string
	AllowedOrigins        []string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables already set.
	_ = godotenv.Load()

	cfg := &AppConfig{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		TelegramToken:         os.Getenv("TELEGRAM_TOKEN"),
		CatalogPath:           os.Getenv("CATALOG_PATH"),
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Environment:           strings.ToLower(getEnv("ENVIRONMENT", "development")),
		DefaultTimezone:       getEnv("DEFAULT_TIMEZONE", "America/Edmonton"),
		CronSpecDailyDigest:   getEnv("CRON_SPEC_DAILY_DIGEST", "0 8 * * *"),
		CronSpecWeeklySummary: getEnv("CRON_SPEC_WEEKLY_SUMMARY", "0 0 * * 0"),
		AllowedOrigins:        splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		id, err := strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.AdminTelegramID = id
	}

	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		return nil, fmt.Errorf("invalid HTTP_PORT %q: %w", cfg.HTTPPort, err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma separated value, dropping empty items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
