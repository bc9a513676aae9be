// Package vision talks to vision-language models that describe paddy leaf
// photos in free text.
package vision

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"paddydoc/api/internal/report"
)

// DiagnosisPrompt asks for the four report fields or a healthy verdict.
const DiagnosisPrompt = "Analyze this paddy (rice) plant image and identify if there are any diseases. " +
	"If a disease is present, provide the following information: 1) Disease name, " +
	"2) Severity (mild, moderate, severe), 3) Brief description of symptoms, " +
	"4) Recommended treatment. If the plant appears healthy, just state that it looks healthy."

var ErrEmptyResponse = errors.New("empty response")

// Describe runs the engine and never fails: errors are folded into the text
// with report.ErrorPrefix so that report.Classify yields an error report.
func Describe(ctx context.Context, e Engine, image []byte, mime string) string {
	logger := zerolog.Ctx(ctx)
	if e == nil {
		return ErrorText(errors.New("no vision engine configured"))
	}
	txt, err := e.Analyze(ctx, image, mime)
	if err == nil && strings.TrimSpace(txt) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		logger.Error().Err(err).Str("engine", e.Name()).Str("model", e.GetModel()).Msg("vision analyze failed")
		return ErrorText(err)
	}
	logger.Debug().Str("engine", e.Name()).Int("chars", len(txt)).Msg("vision analyze done")
	return txt
}

func ErrorText(err error) string {
	return report.ErrorPrefix + " " + err.Error()
}
