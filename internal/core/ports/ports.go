package ports

import (
	"context"
	"time"
)

// AnalyzeRequest is one unit of work for an AnalysisService.
type AnalyzeRequest struct {
	Source string
	// Loader overrides the configured input language when set.
	Loader string
	// Path is informational; it is attached to logs and errors.
	Path string
}

// Occurrence is one free-variable reference placed in the original text.
type Occurrence struct {
	Name   string `json:"name"`
	Class  string `json:"class"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Result is the outcome of one analysis. Globals and Undefined are the
// rendered label lists; Highlighted is the original text with every mapped
// occurrence marked up by the configured renderer.
type Result struct {
	Globals     string       `json:"globals"`
	Undefined   string       `json:"undefined"`
	Highlighted string       `json:"highlighted"`
	Occurrences []Occurrence `json:"occurrences"`
	// Unmapped counts references the source map could not place.
	Unmapped int `json:"unmapped"`
}

// Triple returns the three display strings in their canonical order.
func (r *Result) Triple() [3]string {
	return [3]string{r.Globals, r.Undefined, r.Highlighted}
}

// HealthStatus summarizes the state of the analysis pipeline.
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// AnalysisService is the boundary the CLI, TUI and HTTP API drive.
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*Result, error)
	Health(ctx context.Context) HealthStatus
}
