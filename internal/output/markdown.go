package output

import (
	"io"
	"path"
	"strings"

	"github.com/tobiasbaum/reviewtool-sub002/internal/tour"
)

// MarkdownWriter outputs a PR-comment-friendly markdown tour.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *tour.Report) error {
	ew := &errWriter{w: w}

	ew.printf("## Review Tour\n\n")
	ew.printf("| Stops | Groups | Not kept together |\n")
	ew.printf("|-------|--------|-------------------|\n")
	ew.printf("| %d | %d | %d |\n\n", report.Summary.Stops, report.Summary.Groups, len(report.Summary.Unsatisfied))

	if len(report.Stops) == 0 {
		ew.println("No changes to review. :white_check_mark:")
		return ew.err
	}

	writeMarkdownNodes(ew, report, report.Tour, 0)
	ew.println("")

	if len(report.Summary.Unsatisfied) > 0 {
		ew.printf("<details>\n<summary>:warning: Not kept together (%d)</summary>\n\n", len(report.Summary.Unsatisfied))
		for _, d := range report.Summary.Unsatisfied {
			ew.printf("- %s\n", d)
		}
		ew.printf("\n</details>\n\n")
	}

	ew.printf("<details>\n<summary>Changes (%d)</summary>\n\n", len(report.Stops))
	for _, s := range report.Stops {
		ew.printf("**%d. `%s`**\n\n", s.Index, location(s))
		if len(s.Snippet) > 0 {
			ew.printf("```%s\n%s\n```\n\n", inferLang(s.Path), strings.Join(s.Snippet, "\n"))
		}
	}
	ew.printf("</details>\n\n")

	ew.printf("*Tour computed in %dms", report.Timing.TotalMs)
	if report.Summary.Stats.FastMode {
		ew.print(" (fast mode)")
	}
	ew.println("*")
	return ew.err
}

func writeMarkdownNodes(ew *errWriter, report *tour.Report, nodes []tour.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.IsGroup() {
			ew.printf("%s- **%s**\n", indent, n.Title)
			writeMarkdownNodes(ew, report, n.Children, depth+1)
			continue
		}
		if s, ok := report.StopByID(n.Stop); ok {
			ew.printf("%s- %d. `%s`\n", indent, s.Index, location(s))
		}
	}
}

var langMap = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".jsx":  "jsx",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "bash",
	".sql":  "sql",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".tf":   "hcl",
}

func inferLang(p string) string {
	return langMap[path.Ext(p)]
}
