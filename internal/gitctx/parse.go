package gitctx

import (
	"strconv"
	"strings"

	"github.com/tobiasbaum/reviewtool-sub002/internal/changepart"
)

// CategoryDeleted marks fragments of files removed by the diff.
const CategoryDeleted = "deleted"

type fileState struct {
	path    string
	old     string
	deleted bool
	binary  bool
	frags   []changepart.Fragment
}

func (f *fileState) name() string {
	if f.path != "" {
		return f.path
	}
	return f.old
}

// hunk tracks the walk through one hunk body. A run is a maximal sequence
// of added and removed lines between context lines.
type hunk struct {
	oldLeft, newLeft int
	line             int
	runStart         int
	added, removed   []string
	inRun            bool
}

// ParseFragments converts a unified diff into fragments in new-file
// coordinates. Every run of added or removed lines becomes one fragment; a
// run that only removes lines is a deletion sitting before its start line.
// Binary changes yield a single binary fragment and files removed by the
// diff are categorized as deleted. Malformed input is skipped.
func ParseFragments(diff string) []changepart.Fragment {
	var out []changepart.Fragment
	var file *fileState
	var h *hunk

	finish := func() {
		if file == nil {
			return
		}
		if file.binary {
			out = append(out, changepart.Fragment{Path: file.name(), Binary: true})
		}
		for _, f := range file.frags {
			f.Path = file.name()
			if file.deleted {
				f.Category = CategoryDeleted
			}
			out = append(out, f)
		}
		file = nil
	}

	for _, line := range strings.Split(diff, "\n") {
		if h != nil && (h.oldLeft > 0 || h.newLeft > 0) {
			if h.body(line, file) {
				continue
			}
		}
		if h != nil {
			h.flush(file)
			h = nil
		}
		switch {
		case strings.HasPrefix(line, "diff --git "):
			finish()
			file = &fileState{path: headerPath(line)}
		case file == nil:
		case strings.HasPrefix(line, "deleted file mode"):
			file.deleted = true
		case strings.HasPrefix(line, "--- a/"):
			file.old = strings.TrimPrefix(line, "--- a/")
		case line == "+++ /dev/null":
			file.deleted = true
			file.path = ""
		case strings.HasPrefix(line, "+++ b/"):
			file.path = strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "Binary files "):
			file.binary = true
		case strings.HasPrefix(line, "@@ "):
			h = parseHunkHeader(line)
		}
	}
	if h != nil {
		h.flush(file)
	}
	finish()
	return out
}

// parseHunkHeader parses "@@ -a[,b] +c[,d] @@". It returns nil for a
// malformed header.
func parseHunkHeader(line string) *hunk {
	fields := strings.Fields(line)
	if len(fields) < 3 || !strings.HasPrefix(fields[1], "-") || !strings.HasPrefix(fields[2], "+") {
		return nil
	}
	_, oldCount, ok1 := parseRange(fields[1][1:])
	newStart, newCount, ok2 := parseRange(fields[2][1:])
	if !ok1 || !ok2 {
		return nil
	}
	// An empty new range names the line before the change.
	if newCount == 0 {
		newStart++
	}
	return &hunk{oldLeft: oldCount, newLeft: newCount, line: newStart}
}

func parseRange(s string) (start, count int, ok bool) {
	count = 1
	startStr, countStr, hasCount := strings.Cut(s, ",")
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return 0, 0, false
	}
	if hasCount {
		if count, err = strconv.Atoi(countStr); err != nil {
			return 0, 0, false
		}
	}
	return start, count, true
}

// body consumes one line of the hunk body and reports whether it belonged
// to the hunk.
func (h *hunk) body(line string, file *fileState) bool {
	if line == "" {
		line = " "
	}
	switch line[0] {
	case '+':
		h.begin()
		h.added = append(h.added, line[1:])
		h.line++
		h.newLeft--
	case '-':
		h.begin()
		h.removed = append(h.removed, line[1:])
		h.oldLeft--
	case ' ':
		h.flush(file)
		h.line++
		h.oldLeft--
		h.newLeft--
	case '\\':
	default:
		return false
	}
	return true
}

func (h *hunk) begin() {
	if !h.inRun {
		h.inRun = true
		h.runStart = h.line
	}
}

func (h *hunk) flush(file *fileState) {
	if !h.inRun {
		return
	}
	f := changepart.Fragment{StartLine: h.runStart}
	if len(h.added) > 0 {
		f.EndLine = h.runStart + len(h.added) - 1
		f.Lines = h.added
	} else {
		f.EndLine = h.runStart - 1
		f.Lines = h.removed
	}
	if file != nil {
		file.frags = append(file.frags, f)
	}
	h.inRun = false
	h.added, h.removed = nil, nil
}
