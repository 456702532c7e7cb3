package changepart

import "bytes"

// DefaultBoundaryDepth is the nesting depth at or below which a structural
// event ends a region: top-level declarations and members of a type.
const DefaultBoundaryDepth = 1

type scanState int

const (
	stateCode scanState = iota
	stateBlockComment
	stateRawString
)

// ScanBoundaries reports, per line of content, whether a region ends after
// that line: element i belongs to line i+1. A region ends when a brace or
// statement terminator occurs on the line and the brace nesting depth at the
// end of the line is at most maxDepth. String and character literals and
// comments are skipped; block comments and backquoted strings may span lines.
func ScanBoundaries(content []byte, maxDepth int) []bool {
	if maxDepth < 1 {
		maxDepth = DefaultBoundaryDepth
	}
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	out := make([]bool, len(lines))
	depth := 0
	state := stateCode
	for i, line := range lines {
		event := false
		for j := 0; j < len(line); j++ {
			c := line[j]
			switch state {
			case stateBlockComment:
				if c == '*' && j+1 < len(line) && line[j+1] == '/' {
					state = stateCode
					j++
				}
				continue
			case stateRawString:
				if c == '`' {
					state = stateCode
				}
				continue
			}

			switch c {
			case '/':
				if j+1 < len(line) {
					switch line[j+1] {
					case '/':
						j = len(line)
					case '*':
						state = stateBlockComment
						j++
					}
				}
			case '"', '\'':
				j = skipQuoted(line, j)
			case '`':
				state = stateRawString
			case '{':
				depth++
				event = true
			case '}':
				if depth > 0 {
					depth--
				}
				event = true
			case ';':
				event = true
			}
		}
		out[i] = event && depth <= maxDepth
	}
	return out
}

// skipQuoted returns the index of the quote closing the literal opened at
// start, or the last index of line when the literal is unterminated.
func skipQuoted(line []byte, start int) int {
	q := line[start]
	for j := start + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(line) - 1
}

// boundaryBetween reports whether a region ends after any line in
// [from, to]. Lines outside the scanned content never end a region.
func boundaryBetween(b []bool, from, to int) bool {
	from = max(from, 1)
	to = min(to, len(b))
	for l := from; l <= to; l++ {
		if b[l-1] {
			return true
		}
	}
	return false
}
