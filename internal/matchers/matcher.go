package matchers

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/tobiasbaum/reviewtool-sub002/internal/changepart"
	"github.com/tobiasbaum/reviewtool-sub002/internal/ordering"
)

// maxConcurrency limits matchers running at once.
const maxConcurrency = 4

// Part is the item type the matchers work on.
type Part = *changepart.ChangePart

// Match is a matcher result over change parts.
type Match = ordering.Match[Part]

// Matcher inspects change parts and reports groups of related parts.
type Matcher interface {
	Name() string
	Match(ctx context.Context, parts []Part) ([]Match, error)
}

// Run runs ms over parts and returns their matches in the order of ms. The
// only error is ctx's; matcher failures are logged and skipped.
func Run(ctx context.Context, ms []Matcher, parts []Part, logger *slog.Logger) ([]Match, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(ms) == 0 {
		return nil, ctx.Err()
	}
	results := make([][]Match, len(ms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(maxConcurrency, len(ms)))
	for i, m := range ms {
		i, m := i, m
		g.Go(func() error {
			res, err := safeMatch(gctx, m, parts)
			if err != nil {
				logger.Warn("Matcher failed", slog.String("matcher", m.Name()), slog.String("error", err.Error()))
				return nil
			}
			logger.Debug("Matcher finished", slog.String("matcher", m.Name()), slog.Int("matches", len(res)))
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Match
	for _, res := range results {
		out = append(out, res...)
	}
	return out, nil
}

func safeMatch(ctx context.Context, m Matcher, parts []Part) (res []Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return m.Match(ctx, parts)
}

// byPath groups parts by file, keeping the order of first appearance.
func byPath(parts []Part) ([]string, map[string][]Part) {
	var paths []string
	groups := make(map[string][]Part)
	for _, p := range parts {
		if _, ok := groups[p.Path()]; !ok {
			paths = append(paths, p.Path())
		}
		groups[p.Path()] = append(groups[p.Path()], p)
	}
	return paths, groups
}
