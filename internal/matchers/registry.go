package matchers

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/tobiasbaum/reviewtool-sub002/internal/changepart"
)

// DefaultNames is the default matcher priority.
var DefaultNames = []string{"declaration", "pathgroups", "samefile", "directory"}

// PathGroup names a set of path patterns whose parts belong together.
type PathGroup struct {
	Name     string
	Patterns []string
}

// BuildOptions carries what matchers need beyond the parts themselves.
type BuildOptions struct {
	PathGroups []PathGroup
	Source     changepart.ContentSource
	Logger     *slog.Logger
}

// Factory creates a matcher.
type Factory func(opts BuildOptions) Matcher

var factories = map[string]Factory{
	"declaration": func(o BuildOptions) Matcher { return NewDeclaration(o.Source, o.Logger) },
	"pathgroups":  func(o BuildOptions) Matcher { return NewPathGroups(o.PathGroups) },
	"samefile":    func(BuildOptions) Matcher { return SameFile{} },
	"directory":   func(BuildOptions) Matcher { return Directory{} },
}

// Names returns the registered matcher names.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build creates the named matchers in the given priority order. Duplicate
// names are built once.
func Build(names []string, opts BuildOptions) ([]Matcher, error) {
	var ms []Matcher
	var seen []string
	for _, n := range names {
		f, ok := factories[n]
		if !ok {
			return nil, fmt.Errorf("unknown matcher %q (available: %v)", n, Names())
		}
		if slices.Contains(seen, n) {
			continue
		}
		seen = append(seen, n)
		ms = append(ms, f(opts))
	}
	return ms, nil
}
