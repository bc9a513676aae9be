package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"paddydoc/api/internal/store"
	"paddydoc/api/internal/vision"
)

// Repo is the diagnosis storage used by the bot. Satisfied by *store.DiagnosisRepo.
type Repo interface {
	FindByHash(ctx context.Context, imageHash, engine, model string, maxAge time.Duration) (*store.Diagnosis, error)
	Upsert(ctx context.Context, d *store.Diagnosis) error
	AddHistory(ctx context.Context, chatID int64, diagnosisID uuid.UUID) error
	ListByChat(ctx context.Context, chatID int64, limit int) ([]store.Diagnosis, error)
}

type Router struct {
	Bot        *tgbotapi.BotAPI
	EngManager *vision.Manager
	Engines    *vision.Engines

	// Repo may be nil; then nothing is cached and /history is unavailable.
	Repo        Repo
	CacheMaxAge time.Duration
	Ping        func(ctx context.Context) error
}

const historyLimit = 5

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	logger := zerolog.Ctx(ctx).With().Int64("chat_id", msg.Chat.ID).Int("update_id", upd.UpdateID).Logger()
	ctx = logger.WithContext(ctx)

	switch {
	case msg.IsCommand():
		r.HandleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(ctx, msg)
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		r.acceptDocument(ctx, msg)
	case msg.Text != "":
		r.send(msg.Chat.ID, "Send a photo of a paddy leaf and I will check it for diseases. /help lists commands.")
	}
}

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		if r.Ping != nil {
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := r.Ping(pctx); err != nil {
				r.send(cid, "⚠️ Database unavailable: "+err.Error())
				return
			}
		}
		r.send(cid, "✅ OK")
	case "engine":
		r.handleEngineCommand(cid, msg.CommandArguments())
	case "history":
		r.sendHistory(ctx, cid)
	default:
		r.send(cid, "Unknown command. /help lists commands.")
	}
}

// handleEngineCommand switches the engine of a chat.
//
//	/engine
//	/engine gemini [model]
//	/engine gpt [model]
func (r *Router) handleEngineCommand(chatID int64, args string) {
	name, model := parseEngineArgs(args)
	if name == "" {
		cur := r.EngManager.Get(chatID)
		if cur == nil {
			r.send(chatID, "No engine configured.")
			return
		}
		r.send(chatID, fmt.Sprintf("Current engine: %s (%s)\nUsage: /engine {%s} [model]",
			cur.Name(), cur.GetModel(), strings.Join(r.Engines.Names(), "|")))
		return
	}

	eng, err := r.selectEngine(chatID, name, model)
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}
	r.send(chatID, fmt.Sprintf("✅ Engine: %s (%s)", eng.Name(), eng.GetModel()))
}

// selectEngine binds an engine, and optionally a model, to one chat. Other
// chats keep their engine and model.
func (r *Router) selectEngine(chatID int64, name, model string) (vision.Engine, error) {
	eng, err := r.Engines.GetEngine(name)
	if err != nil {
		return nil, err
	}
	if model != "" {
		ms, ok := eng.(vision.ModelSwitcher)
		if !ok {
			return nil, fmt.Errorf("engine %s has a fixed model", eng.Name())
		}
		eng = ms.WithModel(model)
	}
	r.EngManager.Set(chatID, eng)
	return eng, nil
}

func (r *Router) sendHistory(ctx context.Context, chatID int64) {
	if r.Repo == nil {
		r.send(chatID, "History is not available.")
		return
	}
	items, err := r.Repo.ListByChat(ctx, chatID, historyLimit)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list history")
		r.send(chatID, "⚠️ Could not load history.")
		return
	}
	r.send(chatID, renderHistory(items))
}

func parseEngineArgs(args string) (name, model string) {
	f := strings.Fields(args)
	if len(f) > 0 {
		name = strings.ToLower(f[0])
	}
	if len(f) > 1 {
		model = f[1]
	}
	return name, model
}

func (r *Router) send(chatID int64, text string) {
	_, _ = r.Bot.Send(tgbotapi.NewMessage(chatID, text))
}

// sendMarkdown falls back to plain text when Telegram rejects the markup.
func (r *Router) sendMarkdown(ctx context.Context, chatID int64, text, plain string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.Bot.Send(msg); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("markdown send failed, retrying as plain text")
		r.send(chatID, plain)
	}
}

const helpText = `Send a photo of a paddy (rice) leaf and I will report the disease name, severity, symptoms and treatment, or tell you that the plant looks healthy.

Commands:
/engine [gemini|gpt] [model] - show or switch the vision engine
/history - your last diagnoses
/health - service status`
