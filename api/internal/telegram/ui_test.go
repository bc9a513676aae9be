package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"paddydoc/api/internal/report"
	"paddydoc/api/internal/store"
)

func TestRenderReport(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantMD    string
		wantPlain string
	}{
		{
			name:      "error",
			text:      "Error analyzing image: quota_exceeded",
			wantMD:    "⚠️ *Analysis failed*\n\nquota\\_exceeded",
			wantPlain: "⚠️ Analysis failed\n\nquota_exceeded",
		},
		{
			name:      "healthy",
			text:      "The leaf looks healthy.",
			wantMD:    "✅ *Healthy plant*\n\nThe leaf looks healthy.",
			wantPlain: "✅ Healthy plant\n\nThe leaf looks healthy.",
		},
		{
			name:      "structured",
			text:      "1. **Disease Name**: Blast\n2. Severity: severe",
			wantMD:    "🌾 *Diagnosis*\n\n*Disease Name*\nBlast\n\n*Severity*\nsevere",
			wantPlain: "🌾 Diagnosis\n\nDisease Name\nBlast\n\nSeverity\nsevere",
		},
		{
			name:      "empty",
			text:      "",
			wantMD:    "🌾 *Diagnosis*\n\nThe model answer had no findings.",
			wantPlain: "🌾 Diagnosis\n\nThe model answer had no findings.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, plain := renderReport(report.Classify(tt.text))
			assert.Equal(t, tt.wantMD, md)
			assert.Equal(t, tt.wantPlain, plain)
		})
	}
}

func TestRenderReport_Truncates(t *testing.T) {
	long := "1. Symptoms: " + strings.Repeat("x", 5000)
	md, plain := renderReport(report.Classify(long))
	assert.LessOrEqual(t, len([]rune(md)), maxMessageRunes+1)
	assert.LessOrEqual(t, len([]rune(plain)), maxMessageRunes+1)
}

func TestRenderHistory(t *testing.T) {
	assert.Equal(t, "No diagnoses yet. Send a photo of a leaf.", renderHistory(nil))

	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	got := renderHistory([]store.Diagnosis{
		{CreatedAt: at, Engine: "gemini", Report: report.Classify("Overview text\n1. Disease Name: Blast")},
		{CreatedAt: at, Engine: "gpt", Report: report.Classify("healthy leaf")},
	})
	assert.Equal(t, "Your last diagnoses:"+
		"\n1. 2024-05-01 10:30 · gemini · Disease Name: Blast"+
		"\n2. 2024-05-01 10:30 · gpt · healthy", got)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "analysis failed", summarize(report.Classify("Error analyzing image: boom")))
	assert.Equal(t, "no findings", summarize(report.Classify("just an overview")))
	assert.Equal(t, "severe symptoms seen", summarize(report.Classify("severe symptoms seen")))
}

func TestParseEngineArgs(t *testing.T) {
	name, model := parseEngineArgs("  GPT  gpt-4o ")
	assert.Equal(t, "gpt", name)
	assert.Equal(t, "gpt-4o", model)

	name, model = parseEngineArgs("")
	assert.Empty(t, name)
	assert.Empty(t, model)
}

func TestEsc(t *testing.T) {
	assert.Equal(t, `a\_b \*c\* \[d] 'e'`, esc("a_b *c* [d] `e`"))
}
