package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"paddydoc/api/internal/httpserver"
	"paddydoc/api/internal/store"
	"paddydoc/api/internal/vision"
)

// Cache stores vision answers by image hash. Satisfied by *store.DiagnosisRepo.
type Cache interface {
	FindByHash(ctx context.Context, imageHash, engine, model string, maxAge time.Duration) (*store.Diagnosis, error)
	Upsert(ctx context.Context, d *store.Diagnosis) error
}

type Options struct {
	CacheMaxAge    time.Duration
	RequestTimeout time.Duration
}

type Handle struct {
	engs  *vision.Engines
	cache Cache
	opts  Options
}

// New wires the handlers. cache may be nil.
func New(engs *vision.Engines, cache Cache, opts Options) *Handle {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 180 * time.Second
	}
	return &Handle{engs: engs, cache: cache, opts: opts}
}

func (h *Handle) Routes(logger zerolog.Logger, health func(context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
	})

	r.Get("/healthz", httpserver.Health("ok", health))
	r.Post("/v1/classify", h.Classify)
	r.Post("/v1/diagnose", h.Diagnose)
	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			rid := req.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)

			reqLogger := logger.With().
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", req.RemoteAddr).
				Logger()

			start := time.Now()
			next.ServeHTTP(w, req.WithContext(reqLogger.WithContext(req.Context())))
			reqLogger.Debug().Dur("took", time.Since(start)).Msg("request done")
		})
	}
}

// deadline reads X-Request-Timeout (seconds) or ?timeoutSec=.
func (h *Handle) deadline(r *http.Request) time.Duration {
	for _, ts := range []string{r.Header.Get("X-Request-Timeout"), r.URL.Query().Get("timeoutSec")} {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return h.opts.RequestTimeout
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
