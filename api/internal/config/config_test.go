package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "gemini", cfg.DefaultEngine)
	assert.Equal(t, 24*time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, 180*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")
	t.Setenv("CACHE_MAX_AGE", "90m")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 90*time.Minute, cfg.CacheMaxAge)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "postgres://u:p@localhost:5432/x", cfg.DatabaseURL)
}

func TestLoad_DSNFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "rice")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("PGHOST", "pg")
	t.Setenv("PGPORT", "")
	t.Setenv("POSTGRES_DB", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://rice:secret@pg:5432/paddydoc?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "host=pg port=5432 db=paddydoc user=rice", SafeDSNSummary(cfg.DatabaseURL))
}

func TestRequire(t *testing.T) {
	cfg := &Config{GeminiAPIKey: "k"}

	assert.NoError(t, cfg.Require("GEMINI_API_KEY"))

	err := cfg.Require("GEMINI_API_KEY", "TELEGRAM_BOT_TOKEN", "DATABASE_URL")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
