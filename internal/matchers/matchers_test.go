package matchers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobiasbaum/reviewtool-sub002/internal/changepart"
	"github.com/tobiasbaum/reviewtool-sub002/internal/ordering"
)

func part(path string, line int, text ...string) Part {
	return changepart.New(changepart.Fragment{Path: path, StartLine: line, EndLine: line + max(len(text), 1) - 1, Lines: text})
}

type fakeMatcher struct {
	name string
	fn   func() ([]Match, error)
}

func (f fakeMatcher) Name() string { return f.name }

func (f fakeMatcher) Match(context.Context, []Part) ([]Match, error) { return f.fn() }

func describe(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Description
	}
	return out
}

func TestRun_PriorityOrderAndIsolation(t *testing.T) {
	ok := func(desc string) fakeMatcher {
		return fakeMatcher{name: desc, fn: func() ([]Match, error) {
			return []Match{{Description: desc}}, nil
		}}
	}
	ms := []Matcher{
		ok("first"),
		fakeMatcher{name: "broken", fn: func() ([]Match, error) { return nil, errors.New("boom") }},
		fakeMatcher{name: "panics", fn: func() ([]Match, error) { panic("bad input") }},
		ok("second"),
		ok("third"),
	}
	got, err := Run(context.Background(), ms, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, describe(got))
}

func TestRun_Empty(t *testing.T) {
	got, err := Run(context.Background(), nil, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []Matcher{SameFile{}}, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSameFile(t *testing.T) {
	a1, a2, b := part("a.go", 1), part("a.go", 9), part("b.go", 1)
	got, err := SameFile{}.Match(context.Background(), []Part{a1, b, a2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Changes in a.go", got[0].Description)
	assert.Equal(t, 2, got[0].Set.Items.Len())
	assert.True(t, got[0].Set.Items.Has(a1))
	assert.True(t, got[0].Set.Items.Has(a2))
}

func TestDirectory(t *testing.T) {
	parts := []Part{part("x/a.go", 1), part("x/b.go", 1), part("y/c.go", 1), part("y/c.go", 5)}
	got, err := Directory{}.Match(context.Background(), parts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Changes in x/"}, describe(got))
}

func TestPathGroups(t *testing.T) {
	parts := []Part{part("pkg/a_test.go", 1), part("pkg/a.go", 1), part("cmd/b_test.go", 1), part("docs/x.md", 1)}
	m := NewPathGroups([]PathGroup{
		{Name: "tests", Patterns: []string{"**/*_test.go"}},
		{Name: "docs", Patterns: []string{"docs/**"}},
	})
	got, err := m.Match(context.Background(), parts)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tests", got[0].Description)
	assert.True(t, got[0].Explicit)
	assert.Equal(t, 2, got[0].Set.Items.Len())
}

func TestPathGroups_InvalidPattern(t *testing.T) {
	m := NewPathGroups([]PathGroup{{Name: "bad", Patterns: []string{"[a-"}}})
	_, err := m.Match(context.Background(), []Part{part("a", 1)})
	var pe *PatternError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad", pe.Group)
}

func TestBuild(t *testing.T) {
	ms, err := Build(DefaultNames, BuildOptions{})
	require.NoError(t, err)
	var names []string
	for _, m := range ms {
		names = append(names, m.Name())
	}
	assert.Equal(t, DefaultNames, names)

	ms, err = Build([]string{"samefile", "samefile"}, BuildOptions{})
	require.NoError(t, err)
	assert.Len(t, ms, 1)

	_, err = Build([]string{"nope"}, BuildOptions{})
	assert.ErrorContains(t, err, "unknown matcher")
	assert.Equal(t, []string{"declaration", "directory", "pathgroups", "samefile"}, Names())
}

func TestMatchesFeedOrdering(t *testing.T) {
	a1, a2, b := part("a.go", 1), part("a.go", 9), part("b.go", 1)
	parts := []Part{a1, b, a2}
	found, err := Run(context.Background(), []Matcher{SameFile{}}, parts, nil)
	require.NoError(t, err)

	res, err := ordering.Order[Part](ordering.NewContextControl(context.Background(), 0), parts, found,
		ordering.Options[Part]{Less: changepart.Less})
	require.NoError(t, err)
	assert.Equal(t, []Part{a1, a2, b}, res.Order)
	assert.Equal(t, "Changes in a.go", res.Tour[0].Description)
}
