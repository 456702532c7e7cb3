package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tobiasbaum/reviewtool-sub002/internal/tour"
)

// JSONWriter outputs the full report as indented JSON. Snippet text is
// written as is, so code containing <, > or & stays readable.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *tour.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(withArrays(report)); err != nil {
		return fmt.Errorf("encoding report %q as JSON: %w", report.RunID, err)
	}
	return nil
}

// withArrays returns report with empty stop and tour lists so consumers
// always see arrays, never null.
func withArrays(report *tour.Report) *tour.Report {
	if report.Stops != nil && report.Tour != nil {
		return report
	}
	r := *report
	if r.Stops == nil {
		r.Stops = []tour.Stop{}
	}
	if r.Tour == nil {
		r.Tour = []tour.Node{}
	}
	return &r
}
