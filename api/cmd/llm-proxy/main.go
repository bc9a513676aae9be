package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/rs/zerolog"

	"paddydoc/api/internal/config"
	handle "paddydoc/api/internal/handle"
	"paddydoc/api/internal/httpserver"
	"paddydoc/api/internal/logging"
	"paddydoc/api/internal/store"
	"paddydoc/api/internal/vision"
	"paddydoc/api/internal/vision/gemini"
	"paddydoc/api/internal/vision/openai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	engines := &vision.Engines{
		Gemini:  gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		OpenAI:  openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel).WithBaseURL(cfg.OpenAIBaseURL),
		Default: cfg.DefaultEngine,
	}

	// The cache is optional: without a database every request hits the engine.
	var (
		cache  handle.Cache
		health func(context.Context) error
	)
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			logger.Fatal().Err(err).Msg("sql.Open")
		}
		defer db.Close()
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		repo := store.NewDiagnosisRepo(db)
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = repo.EnsureSchema(sctx)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("ensure schema")
		}
		logger.Info().Str("dsn", config.SafeDSNSummary(dsn)).Msg("diagnosis cache enabled")
		cache, health = repo, db.PingContext
	}

	h := handle.New(engines, cache, handle.Options{
		CacheMaxAge:    cfg.CacheMaxAge,
		RequestTimeout: cfg.RequestTimeout,
	})

	if err := httpserver.Run(ctx, ":"+cfg.Port, h.Routes(logger, health)); err != nil {
		logger.Fatal().Err(err).Msg("llm-proxy")
	}
}
