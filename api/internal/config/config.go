package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissing = errors.New("missing required env")

type Config struct {
	Port string `mapstructure:"port"`

	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	WebhookURL       string `mapstructure:"webhook_url"`

	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiModel   string `mapstructure:"gemini_model"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIModel   string `mapstructure:"openai_model"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	DefaultEngine string `mapstructure:"default_engine"`

	DatabaseURL string `mapstructure:"database_url"`

	CacheMaxAge    time.Duration `mapstructure:"cache_max_age"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"port":            "8080",
	"gemini_model":    "gemini-1.5-pro",
	"openai_model":    "gpt-4o-mini",
	"openai_base_url": "https://api.openai.com/v1",
	"default_engine":  "gemini",
	"cache_max_age":   24 * time.Hour,
	"request_timeout": 180 * time.Second,
	"log_level":       "info",
	"log_format":      "json",
}

var keys = []string{
	"port", "telegram_bot_token", "webhook_url",
	"gemini_api_key", "gemini_model", "openai_api_key", "openai_model", "openai_base_url", "default_engine",
	"database_url", "cache_max_age", "request_timeout", "log_level", "log_format",
}

// Load reads the configuration from environment variables (PORT, GEMINI_API_KEY, ...).
func Load() (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		cfg.DatabaseURL = dsnFromParts(v)
	}
	return &cfg, nil
}

// Require reports every listed env var that is empty.
func (c *Config) Require(envs ...string) error {
	vals := map[string]string{
		"TELEGRAM_BOT_TOKEN": c.TelegramBotToken,
		"GEMINI_API_KEY":     c.GeminiAPIKey,
		"OPENAI_API_KEY":     c.OpenAIAPIKey,
		"DATABASE_URL":       c.DatabaseURL,
	}
	var errs []error
	for _, e := range envs {
		if strings.TrimSpace(vals[e]) == "" {
			errs = append(errs, fmt.Errorf("%w %s", ErrMissing, e))
		}
	}
	return errors.Join(errs...)
}

// dsnFromParts builds a postgres DSN from POSTGRES_* / PG* variables when
// POSTGRES_PASSWORD is set; otherwise it returns "".
func dsnFromParts(v *viper.Viper) string {
	for _, k := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "PGHOST", "PGPORT", "POSTGRES_DB"} {
		_ = v.BindEnv(strings.ToLower(k), k)
	}
	pass := v.GetString("postgres_password")
	if pass == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getOr(v, "postgres_user", "paddydoc"), pass),
		Host:     net.JoinHostPort(getOr(v, "pghost", "db"), getOr(v, "pgport", "5432")),
		Path:     "/" + getOr(v, "postgres_db", "paddydoc"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getOr(v *viper.Viper, key, def string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return def
}

// SafeDSNSummary renders a DSN without credentials, for logs.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
