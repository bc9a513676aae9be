package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"paddydoc/api/internal/report"
)

// writeReport renders r as text, or as its JSON/YAML envelope.
func writeReport(w io.Writer, format string, r report.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report.Encode(r))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(report.Encode(r))
	case "text", "":
		_, err := io.WriteString(w, renderText(r))
		return err
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func renderText(r report.Report) string {
	var b strings.Builder
	switch v := r.(type) {
	case report.ErrorReport:
		fmt.Fprintf(&b, "ERROR: %s\n", v.Message)
	case report.HealthyReport:
		fmt.Fprintf(&b, "HEALTHY: %s\n", v.Message)
	default:
		secs := r.Sections()
		if len(secs) == 0 {
			b.WriteString("(no findings)\n")
		}
		for i, s := range secs {
			if i > 0 {
				b.WriteString("\n")
			}
			if s.Title != "" {
				fmt.Fprintf(&b, "== %s ==\n", s.Title)
			}
			b.WriteString(s.Content + "\n")
		}
	}
	return b.String()
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
