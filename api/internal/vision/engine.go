package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrUnknownEngine = errors.New("unknown engine")

// Engine sends a leaf photo to a vision model and returns its free-text answer.
type Engine interface {
	Name() string
	GetModel() string
	Analyze(ctx context.Context, image []byte, mime string) (string, error)
}

// ModelSwitcher is implemented by engines that can run another model.
// WithModel returns a new engine and leaves the receiver unchanged.
type ModelSwitcher interface {
	WithModel(model string) Engine
}

// Engines is the set of configured providers. Nil fields are not configured.
type Engines struct {
	Gemini Engine
	OpenAI Engine

	// Default is used when a request names no engine.
	Default string
}

// GetEngine resolves a provider by name ("gemini", "gpt"/"openai").
func (e *Engines) GetEngine(name string) (Engine, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = e.Default
	}
	var eng Engine
	switch n {
	case "gemini", "":
		eng = e.Gemini
	case "gpt", "openai":
		eng = e.OpenAI
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	if eng == nil {
		return nil, fmt.Errorf("engine %q is not configured", n)
	}
	return eng, nil
}

// Names lists configured providers.
func (e *Engines) Names() []string {
	var out []string
	if e.Gemini != nil {
		out = append(out, e.Gemini.Name())
	}
	if e.OpenAI != nil {
		out = append(out, e.OpenAI.Name())
	}
	return out
}

// Manager keeps the engine chosen by each chat.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}
