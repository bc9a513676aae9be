package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"paddydoc/api/internal/util"
	"paddydoc/api/internal/vision"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Engine calls an OpenAI-compatible chat completions endpoint with the image
// inlined as a data URL.
type Engine struct {
	APIKey   string
	Model    string
	BaseURL  string
	Prompt   string
	Attempts uint

	httpc *http.Client
}

func New(key, model string) *Engine {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey:   strings.TrimSpace(key),
		Model:    strings.TrimSpace(model),
		BaseURL:  DefaultBaseURL,
		Prompt:   vision.DiagnosisPrompt,
		Attempts: vision.DefaultAttempts,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }

// WithModel returns a copy of e that calls model.
func (e *Engine) WithModel(model string) vision.Engine {
	c := *e
	if m := strings.TrimSpace(model); m != "" {
		c.Model = m
	}
	return &c
}

// WithBaseURL points the engine at another OpenAI-compatible server.
func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
		e.BaseURL = u
	}
	return e
}

func (e *Engine) Analyze(ctx context.Context, image []byte, mime string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("OPENAI_API_KEY is empty")
	}
	client := openai.NewClient(
		option.WithAPIKey(e.APIKey),
		option.WithBaseURL(e.BaseURL),
		option.WithHTTPClient(e.httpc),
		// retries are ours
		option.WithMaxRetries(0),
	)
	params := openai.ChatCompletionNewParams{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(e.Prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    util.MakeDataURL(util.PickMIME(mime, "", image), image),
					Detail: "high",
				}),
			}),
		},
		Temperature: openai.Float(0),
	}

	var txt string
	err := vision.Retry(ctx, e.Name(), e.Attempts, func() error {
		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			return mapError(err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return retry.Unrecoverable(fmt.Errorf("openai: %w", vision.ErrEmptyResponse))
		}
		txt = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return util.StripCodeFences(txt), nil
}

// mapError shortens API errors to "openai <status>: <message>". Client
// errors other than 429 are not retried.
func mapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(apiErr.StatusCode)
	}
	out := fmt.Errorf("openai %d: %s", apiErr.StatusCode, msg)
	if apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
		return retry.Unrecoverable(out)
	}
	return out
}
