// Package report turns the free-text answer of a vision model into a
// classified, renderable diagnosis.
package report

// Kind names the shape of a classified report.
type Kind string

const (
	KindError      Kind = "error"
	KindHealthy    Kind = "healthy"
	KindStructured Kind = "structured"
)

const (
	// ErrorPrefix marks a failed vision call. Callers prepend it to the
	// upstream error message before classification.
	ErrorPrefix = "Error analyzing image:"

	OverviewTitle = "Overview"
	ErrorTitle    = "Error"
	HealthyTitle  = "Healthy"
)

// Section is a titled fragment of a report. Title may be empty.
type Section struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Report is one of ErrorReport, HealthyReport or StructuredReport.
type Report interface {
	Kind() Kind
	Sections() []Section
	report()
}

type ErrorReport struct {
	Message string
}

func (ErrorReport) Kind() Kind { return KindError }
func (r ErrorReport) Sections() []Section {
	return []Section{{Title: ErrorTitle, Content: r.Message}}
}
func (ErrorReport) report() {}

// HealthyReport holds the whole, unmodified model answer.
type HealthyReport struct {
	Message string
}

func (HealthyReport) Kind() Kind { return KindHealthy }
func (r HealthyReport) Sections() []Section {
	return []Section{{Title: HealthyTitle, Content: r.Message}}
}
func (HealthyReport) report() {}

type StructuredReport struct {
	Items []Section
}

func (StructuredReport) Kind() Kind { return KindStructured }

// Sections returns a copy so callers cannot reorder the report.
func (r StructuredReport) Sections() []Section {
	out := make([]Section, len(r.Items))
	copy(out, r.Items)
	return out
}
func (StructuredReport) report() {}
