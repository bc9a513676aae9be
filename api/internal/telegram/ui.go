package telegram

import (
	"fmt"
	"strings"

	"paddydoc/api/internal/report"
	"paddydoc/api/internal/store"
	"paddydoc/api/internal/util"
)

// Telegram rejects messages over 4096 characters.
const maxMessageRunes = 3900

// renderReport returns the Markdown message for a report and a plain-text
// fallback.
func renderReport(r report.Report) (markdown, plain string) {
	var md, pl strings.Builder
	switch v := r.(type) {
	case report.ErrorReport:
		md.WriteString("⚠️ *Analysis failed*\n\n" + esc(v.Message))
		pl.WriteString("⚠️ Analysis failed\n\n" + v.Message)
	case report.HealthyReport:
		md.WriteString("✅ *Healthy plant*\n\n" + esc(v.Message))
		pl.WriteString("✅ Healthy plant\n\n" + v.Message)
	default:
		md.WriteString("🌾 *Diagnosis*")
		pl.WriteString("🌾 Diagnosis")
		secs := r.Sections()
		if len(secs) == 0 {
			md.WriteString("\n\nThe model answer had no findings.")
			pl.WriteString("\n\nThe model answer had no findings.")
		}
		for _, s := range secs {
			md.WriteString("\n\n")
			pl.WriteString("\n\n")
			if s.Title != "" {
				md.WriteString("*" + esc(s.Title) + "*\n")
				pl.WriteString(s.Title + "\n")
			}
			md.WriteString(esc(s.Content))
			pl.WriteString(s.Content)
		}
	}
	return util.Truncate(md.String(), maxMessageRunes), util.Truncate(pl.String(), maxMessageRunes)
}

func renderHistory(items []store.Diagnosis) string {
	if len(items) == 0 {
		return "No diagnoses yet. Send a photo of a leaf."
	}
	var b strings.Builder
	b.WriteString("Your last diagnoses:")
	for i, d := range items {
		fmt.Fprintf(&b, "\n%d. %s · %s · %s", i+1, d.CreatedAt.Format("2006-01-02 15:04"), d.Engine, summarize(d.Report))
	}
	return b.String()
}

// summarize gives a one-line description of a report.
func summarize(r report.Report) string {
	switch r.Kind() {
	case report.KindError:
		return "analysis failed"
	case report.KindHealthy:
		return "healthy"
	}
	for _, s := range r.Sections() {
		if s.Title == report.OverviewTitle {
			continue
		}
		line, _, _ := strings.Cut(s.Content, "\n")
		if s.Title == "" {
			return util.Truncate(line, 60)
		}
		return util.Truncate(s.Title+": "+line, 60)
	}
	return "no findings"
}

// esc escapes legacy Markdown markup.
func esc(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	return s
}
