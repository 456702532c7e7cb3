package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/tobiasbaum/reviewtool-sub002/internal/tour"
)

var (
	groupColor = color.New(color.FgCyan, color.Bold)
	stopColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	dimColor   = color.New(color.Faint)
)

// TextWriter outputs a human-readable tour.
type TextWriter struct {
	// Color enables ANSI colors.
	Color bool
	// Snippets prints the changed lines below each stop.
	Snippets bool
}

func (t *TextWriter) Write(w io.Writer, report *tour.Report) error {
	ew := &errWriter{w: w}

	ew.printf("Review tour: %s mode\n", report.Inputs.Mode)
	if report.Inputs.Range != "" {
		ew.printf("Range: %s\n", report.Inputs.Range)
	}
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Stops: %d in %d groups", report.Summary.Stops, report.Summary.Groups)
	if n := len(report.Summary.Unsatisfied); n > 0 {
		ew.printf(" (%d relations not kept together)", n)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if len(report.Stops) == 0 {
		ew.println("\nNo changes to review.")
		return ew.err
	}

	ew.println("")
	t.writeNodes(ew, report, report.Tour, 0)

	if len(report.Summary.Unsatisfied) > 0 {
		ew.printf("\n%s\n", t.paint(warnColor, "Not kept together:"))
		for _, d := range report.Summary.Unsatisfied {
			ew.printf("  - %s\n", d)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Computed in %dms (git: %dms, partition: %dms, match: %dms, order: %dms)",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.PartitionMs,
		report.Timing.MatchMs, report.Timing.OrderMs)
	if report.Summary.Stats.FastMode {
		ew.print(" [fast mode]")
	}
	if report.Cached {
		ew.print(" [cached]")
	}
	ew.println("")
	return ew.err
}

func (t *TextWriter) writeNodes(ew *errWriter, report *tour.Report, nodes []tour.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.IsGroup() {
			ew.printf("%s%s\n", indent, t.paint(groupColor, n.Title))
			t.writeNodes(ew, report, n.Children, depth+1)
			continue
		}
		s, ok := report.StopByID(n.Stop)
		if !ok {
			continue
		}
		ew.printf("%s%2d. %s", indent, s.Index, t.paint(stopColor, location(s)))
		if s.Category != "" {
			ew.printf(" %s", t.paint(dimColor, "["+s.Category+"]"))
		}
		ew.println("")
		if t.Snippets {
			for _, line := range s.Snippet {
				ew.printf("%s    %s %s\n", indent, t.paint(dimColor, "│"), line)
			}
		}
	}
}

func (t *TextWriter) paint(c *color.Color, s string) string {
	if !t.Color {
		return s
	}
	return c.Sprint(s)
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
