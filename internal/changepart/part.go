package changepart

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// Fragment is one contiguous change in a file. StartLine and EndLine are
// inclusive line numbers in the new version. A pure deletion has
// EndLine == StartLine-1 and sits between those two lines.
type Fragment struct {
	Path      string   `json:"path"`
	StartLine int      `json:"startLine"`
	EndLine   int      `json:"endLine"`
	Binary    bool     `json:"binary,omitempty"`
	Category  string   `json:"category,omitempty"`
	Lines     []string `json:"lines,omitempty"`
}

// IsDeletion reports whether the fragment removes lines without adding any.
func (f Fragment) IsDeletion() bool {
	return f.EndLine < f.StartLine
}

// LastLine is the last line the fragment covers, or the line before a
// deletion.
func (f Fragment) LastLine() int {
	if f.IsDeletion() {
		return f.StartLine - 1
	}
	return f.EndLine
}

func (f Fragment) key() string {
	return fmt.Sprintf("%s:%d-%d", f.Path, f.StartLine, f.EndLine)
}

func compareFragments(a, b Fragment) int {
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	if a.StartLine != b.StartLine {
		return a.StartLine - b.StartLine
	}
	return a.EndLine - b.EndLine
}

// ChangePart is an immutable, non-empty sequence of fragments of one file
// that is reviewed as a unit.
type ChangePart struct {
	ID        string
	Fragments []Fragment
}

// New returns a change part for frags, which must be non-empty and belong
// to one file.
func New(frags ...Fragment) *ChangePart {
	if len(frags) == 0 {
		panic("changepart: no fragments")
	}
	h := sha256.New()
	for _, f := range frags {
		h.Write([]byte(f.key()))
		h.Write([]byte{0})
	}
	return &ChangePart{
		ID:        hex.EncodeToString(h.Sum(nil))[:16],
		Fragments: slices.Clone(frags),
	}
}

// Path returns the file of the part.
func (p *ChangePart) Path() string { return p.Fragments[0].Path }

// StartLine returns the first line of the part.
func (p *ChangePart) StartLine() int { return p.Fragments[0].StartLine }

// EndLine returns the last line of the part.
func (p *ChangePart) EndLine() int {
	return p.Fragments[len(p.Fragments)-1].LastLine()
}

// Lines returns the changed text of all fragments in order.
func (p *ChangePart) Lines() []string {
	var out []string
	for _, f := range p.Fragments {
		out = append(out, f.Lines...)
	}
	return out
}

// Equal reports whether p and o consist of the same fragments.
func (p *ChangePart) Equal(o *ChangePart) bool {
	return slices.EqualFunc(p.Fragments, o.Fragments, func(a, b Fragment) bool {
		return a.key() == b.key()
	})
}

func (p *ChangePart) String() string {
	if len(p.Fragments) == 1 {
		return p.Fragments[0].key()
	}
	return fmt.Sprintf("%s:%d-%d(%d)", p.Path(), p.StartLine(), p.EndLine(), len(p.Fragments))
}

// Less orders parts by path, then start line, then end line.
func Less(a, b *ChangePart) bool {
	if a.Path() != b.Path() {
		return a.Path() < b.Path()
	}
	if a.StartLine() != b.StartLine() {
		return a.StartLine() < b.StartLine()
	}
	return a.EndLine() < b.EndLine()
}

// ContentSource provides the new version of a file.
type ContentSource interface {
	Content(ctx context.Context, path string) ([]byte, error)
}

// ContentFunc adapts a function to ContentSource.
type ContentFunc func(ctx context.Context, path string) ([]byte, error)

func (f ContentFunc) Content(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}
