package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/rs/zerolog"

	"paddydoc/api/internal/config"
	"paddydoc/api/internal/httpserver"
	"paddydoc/api/internal/logging"
	"paddydoc/api/internal/store"
	"paddydoc/api/internal/telegram"
	"paddydoc/api/internal/util"
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
	if err := cfg.Require("TELEGRAM_BOT_TOKEN", "DATABASE_URL"); err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	// --- Postgres ---
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("sql.Open")
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	{
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := db.PingContext(pctx)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("db.Ping")
		}
		logger.Info().Str("dsn", config.SafeDSNSummary(cfg.DatabaseURL)).Msg("db connected")
	}

	repo := store.NewDiagnosisRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ensure schema")
	}

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	bot.Debug = false

	engines := &vision.Engines{Default: cfg.DefaultEngine}
	if cfg.GeminiAPIKey != "" {
		engines.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if cfg.OpenAIAPIKey != "" {
		engines.OpenAI = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel).WithBaseURL(cfg.OpenAIBaseURL)
	}
	def, err := engines.GetEngine("")
	if err != nil {
		logger.Fatal().Err(err).Msg("no default vision engine, set GEMINI_API_KEY or OPENAI_API_KEY")
	}

	r := &telegram.Router{
		Bot:         bot,
		EngManager:  vision.NewManager(def),
		Engines:     engines,
		Repo:        repo,
		CacheMaxAge: cfg.CacheMaxAge,
		Ping:        db.PingContext,
	}

	// ListenForWebhook registers on DefaultServeMux, so health lives there too.
	http.HandleFunc("/healthz", httpserver.Health("ok", db.PingContext))

	addr := "0.0.0.0:" + cfg.Port

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		err = startWebhookMode(ctx, addr, bot, r, webhookURL)
	} else {
		err = startPollingMode(ctx, addr, bot, r)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("bot stopped")
	}
	logger.Info().Msg("bot stopped")
}

// ---------------- Modes -----------------

func startWebhookMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) error {
	logger := zerolog.Ctx(ctx)
	// secret path derived from the token
	path := "/webhook/" + util.ShortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			r.HandleUpdate(ctx, upd)
		}
		logger.Info().Msg("webhook updates channel closed")
	}()

	logger.Info().Str("path", path).Msg("webhook registered")
	return httpserver.Run(ctx, addr, http.DefaultServeMux)
}

func startPollingMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router) error {
	go func() {
		if err := httpserver.Run(ctx, addr, http.DefaultServeMux); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("health server")
		}
	}()

	runPolling(ctx, bot, func(upd tgbotapi.Update) {
		r.HandleUpdate(ctx, upd)
	})
	return nil
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func clampDelay(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	logger := zerolog.Ctx(ctx)
	offset := 0
	for {
		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := clampDelay(retryDelayFromError(err), 1*time.Second, 15*time.Second)
			logger.Warn().Err(err).Dur("retry_in", d).Msg("polling error")
			if !sleep(ctx, d) {
				return
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		wait := time.Duration(0)
		if len(updates) == 0 {
			wait = 200 * time.Millisecond
		}
		if !sleep(ctx, wait) {
			logger.Info().Msg("polling: context cancelled")
			return
		}
	}
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
