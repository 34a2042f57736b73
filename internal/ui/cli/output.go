package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	coreapp "scopelens/internal/core/app"
	"scopelens/internal/core/ports"
	"scopelens/internal/shared/util"
)

type fileReport struct {
	Path string `json:"path,omitempty"`
	*ports.Result
	Error      string  `json:"error,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

func toReport(u coreapp.Update) fileReport {
	r := fileReport{Path: u.Path, Result: u.Result, DurationMS: float64(u.Duration.Microseconds()) / 1000}
	if u.Err != nil {
		r.Error = u.Err.Error()
	}
	return r
}

// reportWriter prints analysis results either as text blocks or as JSON.
// It is safe for concurrent use by watch-mode callbacks.
type reportWriter struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

func newReportWriter(w io.Writer, asJSON bool) *reportWriter {
	return &reportWriter{w: w, json: asJSON}
}

// writeAll prints every update. A single JSON report is written as an
// object, several as an array.
func (rw *reportWriter) writeAll(updates []coreapp.Update) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.json {
		enc := json.NewEncoder(rw.w)
		enc.SetIndent("", "  ")
		if len(updates) == 1 {
			return enc.Encode(toReport(updates[0]))
		}
		reports := make([]fileReport, 0, len(updates))
		for _, u := range updates {
			reports = append(reports, toReport(u))
		}
		return enc.Encode(reports)
	}

	for i, u := range updates {
		if i > 0 {
			if _, err := fmt.Fprintln(rw.w); err != nil {
				return err
			}
		}
		if err := rw.writeText(u, len(updates) > 1); err != nil {
			return err
		}
	}
	return nil
}

// writeUpdate prints one watch-mode update. JSON output is one object per line.
func (rw *reportWriter) writeUpdate(u coreapp.Update) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.json {
		_ = json.NewEncoder(rw.w).Encode(toReport(u))
		return
	}
	if u.Removed {
		fmt.Fprintf(rw.w, "== %s (removed) ==\n", u.Path)
		return
	}
	_ = rw.writeText(u, true)
	fmt.Fprintln(rw.w)
}

func (rw *reportWriter) writeText(u coreapp.Update, withHeader bool) error {
	if withHeader && u.Path != "" {
		if _, err := fmt.Fprintf(rw.w, "== %s ==\n", u.Path); err != nil {
			return err
		}
	}
	if u.Err != nil {
		_, err := fmt.Fprintf(rw.w, "error: %v\n", u.Err)
		return err
	}
	_, err := fmt.Fprintf(rw.w, "globals: %s\nundefined: %s\n\n%s", u.Result.Globals, u.Result.Undefined, u.Result.Highlighted)
	return err
}

func writeString(path, content string) error {
	return util.WriteStringWithDirs(path, content, 0o644)
}
