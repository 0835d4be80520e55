package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"DATABASE_URL", "TELEGRAM_TOKEN", "ADMIN_TELEGRAM_ID", "HTTP_PORT", "LOG_LEVEL",
	"ENVIRONMENT", "DEFAULT_TIMEZONE", "CATALOG_PATH",
	"CRON_SPEC_DAILY_DIGEST", "CRON_SPEC_WEEKLY_SUMMARY", "CORS_ALLOWED_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.TelegramToken)
	assert.Zero(t, cfg.AdminTelegramID)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "America/Edmonton", cfg.DefaultTimezone)
	assert.Equal(t, "0 8 * * *", cfg.CronSpecDailyDigest)
	assert.Equal(t, "0 0 * * 0", cfg.CronSpecWeeklySummary)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://care@localhost/care?sslmode=disable")
	t.Setenv("ADMIN_TELEGRAM_ID", "4242")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://care.example.com, ,http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://care@localhost/care?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, int64(4242), cfg.AdminTelegramID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, []string{"https://care.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"admin id": {"ADMIN_TELEGRAM_ID", "not-a-number"},
		"port":     {"HTTP_PORT", "eighty"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
