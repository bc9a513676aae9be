package report

import "strings"

const healthyMarker = "healthy"

// Classify maps a raw model answer to exactly one report shape.
// Order matters: the error prefix wins over the healthy marker, which wins
// over segmentation.
func Classify(text string) Report {
	if rest, ok := strings.CutPrefix(text, ErrorPrefix); ok {
		return ErrorReport{Message: strings.TrimSpace(rest)}
	}
	if strings.Contains(strings.ToLower(text), healthyMarker) {
		return HealthyReport{Message: text}
	}
	return StructuredReport{Items: Segment(text)}
}
