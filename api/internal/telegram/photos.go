package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"paddydoc/api/internal/report"
	"paddydoc/api/internal/store"
	"paddydoc/api/internal/util"
	"paddydoc/api/internal/vision"
)

const maxImageBytes = 20 << 20

func (r *Router) acceptPhoto(ctx context.Context, msg *tgbotapi.Message) {
	// the last size is the largest
	ph := msg.Photo[len(msg.Photo)-1]
	r.analyzeFile(ctx, msg.Chat.ID, ph.FileID, "")
}

func (r *Router) acceptDocument(ctx context.Context, msg *tgbotapi.Message) {
	r.analyzeFile(ctx, msg.Chat.ID, msg.Document.FileID, msg.Document.MimeType)
}

func (r *Router) analyzeFile(ctx context.Context, chatID int64, fileID, mime string) {
	logger := zerolog.Ctx(ctx)
	r.send(chatID, "Photo received, analyzing…")

	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		logger.Error().Err(err).Msg("get file url")
		r.send(chatID, "Could not get the file: "+err.Error())
		return
	}
	img, err := download(ctx, url)
	if err != nil {
		logger.Error().Err(err).Msg("download photo")
		r.send(chatID, "Could not download the photo: "+err.Error())
		return
	}

	rep := r.diagnose(ctx, chatID, img, util.PickMIME(mime, "", img))
	text, plain := renderReport(rep)
	r.sendMarkdown(ctx, chatID, text, plain)
}

// diagnose returns the cached report for this image and engine, or asks the
// engine and caches non-error answers. Every stored report it returns is
// added to the chat history.
func (r *Router) diagnose(ctx context.Context, chatID int64, img []byte, mime string) report.Report {
	logger := zerolog.Ctx(ctx)
	eng := r.EngManager.Get(chatID)
	if eng == nil {
		return report.Classify(vision.ErrorText(errors.New("no vision engine configured")))
	}
	hash := util.SHA256Hex(img)

	if r.Repo != nil {
		d, err := r.Repo.FindByHash(ctx, hash, eng.Name(), eng.GetModel(), r.CacheMaxAge)
		if err == nil {
			logger.Debug().Str("hash", hash).Msg("diagnosis cache hit")
			r.addHistory(ctx, chatID, d.ID)
			return d.Report
		}
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn().Err(err).Msg("diagnosis cache lookup failed")
		}
	}

	raw := vision.Describe(ctx, eng, img, mime)
	rep := report.Classify(raw)

	if r.Repo != nil && rep.Kind() != report.KindError {
		d := &store.Diagnosis{ImageHash: hash, Engine: eng.Name(), Model: eng.GetModel(), RawText: raw}
		if err := r.Repo.Upsert(ctx, d); err != nil {
			logger.Warn().Err(err).Msg("diagnosis cache store failed")
		} else {
			r.addHistory(ctx, chatID, d.ID)
		}
	}
	logger.Info().Str("engine", eng.Name()).Str("kind", string(rep.Kind())).Msg("diagnosis done")
	return rep
}

func (r *Router) addHistory(ctx context.Context, chatID int64, id uuid.UUID) {
	if err := r.Repo.AddHistory(ctx, chatID, id); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("history store failed")
	}
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
