package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/tobiasbaum/reviewtool-sub002/internal/tour"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *tour.Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
// Text written to a terminal is colored; snippets adds the changed lines of
// each stop to text output.
func WriteReport(report *tour.Report, format, outPath string, snippets bool) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	tw, isText := writer.(*TextWriter)
	if isText {
		tw.Snippets = snippets
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
		if isText {
			tw.Color = !color.NoColor
		}
	}

	return writer.Write(w, report)
}

// location formats where a stop is.
func location(s tour.Stop) string {
	switch {
	case s.Binary:
		return s.Path + " (binary)"
	case s.Lines.End < s.Lines.Start:
		return fmt.Sprintf("%s: deleted after line %d", s.Path, s.Lines.End)
	case s.Lines.Start == s.Lines.End:
		return fmt.Sprintf("%s:%d", s.Path, s.Lines.Start)
	default:
		return fmt.Sprintf("%s:%d-%d", s.Path, s.Lines.Start, s.Lines.End)
	}
}
