package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"paddydoc/api/internal/util"
	"paddydoc/api/internal/vision"
)

const DefaultModel = "gemini-1.5-pro"

type Engine struct {
	APIKey string
	Model  string
	Prompt string

	Attempts uint
}

func New(apiKey, model string) *Engine {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey:   strings.TrimSpace(apiKey),
		Model:    model,
		Prompt:   vision.DiagnosisPrompt,
		Attempts: vision.DefaultAttempts,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// WithModel returns a copy of e that calls model.
func (e *Engine) WithModel(model string) vision.Engine {
	c := *e
	if m := strings.TrimSpace(model); m != "" {
		c.Model = m
	}
	return &c
}

// Analyze sends the prompt and the image as one user turn and returns the
// concatenated text of the first candidate.
func (e *Engine) Analyze(ctx context.Context, image []byte, mime string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}

	parts := []genai.Part{
		genai.Text(e.Prompt),
		genai.Blob{MIMEType: util.PickMIME(mime, "", image), Data: image},
	}

	var txt string
	err = vision.Retry(ctx, e.Name(), e.Attempts, func() error {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			return err
		}
		txt = firstText(resp)
		if txt == "" {
			return retry.Unrecoverable(fmt.Errorf("gemini: %w", vision.ErrEmptyResponse))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return util.StripCodeFences(txt), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
