package matchers

import (
	"context"
	"path"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tobiasbaum/reviewtool-sub002/internal/ordering"
)

// SameFile groups the parts of each file.
type SameFile struct{}

func (SameFile) Name() string { return "samefile" }

func (SameFile) Match(_ context.Context, parts []Part) ([]Match, error) {
	paths, groups := byPath(parts)
	var out []Match
	for _, p := range paths {
		if len(groups[p]) < 2 {
			continue
		}
		out = append(out, Match{
			Set:         ordering.NewMatchSet(groups[p]...),
			Description: "Changes in " + p,
		})
	}
	return out, nil
}

// Directory groups the parts of directories with at least two changed files.
type Directory struct{}

func (Directory) Name() string { return "directory" }

func (Directory) Match(_ context.Context, parts []Part) ([]Match, error) {
	var dirs []string
	members := make(map[string][]Part)
	files := make(map[string]map[string]bool)
	for _, p := range parts {
		d := path.Dir(p.Path())
		if _, ok := members[d]; !ok {
			dirs = append(dirs, d)
			files[d] = make(map[string]bool)
		}
		members[d] = append(members[d], p)
		files[d][p.Path()] = true
	}
	var out []Match
	for _, d := range dirs {
		if len(files[d]) < 2 {
			continue
		}
		out = append(out, Match{
			Set:         ordering.NewMatchSet(members[d]...),
			Description: "Changes in " + d + "/",
		})
	}
	return out, nil
}

// PathGroups groups parts whose paths match user-defined patterns.
type PathGroups struct {
	groups []PathGroup
}

// NewPathGroups returns a matcher for groups.
func NewPathGroups(groups []PathGroup) *PathGroups {
	return &PathGroups{groups: groups}
}

func (m *PathGroups) Name() string { return "pathgroups" }

func (m *PathGroups) Match(_ context.Context, parts []Part) ([]Match, error) {
	var out []Match
	for _, g := range m.groups {
		for _, pat := range g.Patterns {
			if !doublestar.ValidatePattern(pat) {
				return nil, &PatternError{Group: g.Name, Pattern: pat}
			}
		}
		var hits []Part
		for _, p := range parts {
			if matchesAny(p.Path(), g.Patterns) {
				hits = append(hits, p)
			}
		}
		if len(hits) < 2 {
			continue
		}
		out = append(out, Match{
			Set:         ordering.NewMatchSet(hits...),
			Explicit:    true,
			Description: g.Name,
		})
	}
	return out, nil
}

// PatternError reports an invalid path group pattern.
type PatternError struct {
	Group   string
	Pattern string
}

func (e *PatternError) Error() string {
	return "path group " + e.Group + ": invalid pattern " + e.Pattern
}

func matchesAny(p string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, p); err == nil && ok {
			return true
		}
	}
	return false
}
