package tour

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tobiasbaum/reviewtool-sub002/internal/cache"
	"github.com/tobiasbaum/reviewtool-sub002/internal/changepart"
	"github.com/tobiasbaum/reviewtool-sub002/internal/config"
	"github.com/tobiasbaum/reviewtool-sub002/internal/gitctx"
	"github.com/tobiasbaum/reviewtool-sub002/internal/matchers"
	"github.com/tobiasbaum/reviewtool-sub002/internal/ordering"
	"github.com/tobiasbaum/reviewtool-sub002/internal/redact"
)

// maxSnippetLines caps the lines shown per stop.
const maxSnippetLines = 20

// Options configures a tour run.
type Options struct {
	// Source provides file content. Nil uses diff.ContentSource().
	Source changepart.ContentSource
	// Cache stores finished reports. Nil disables caching.
	Cache  *cache.Cache
	Logger *slog.Logger
}

// Run computes the review tour for diff. A timeout from cfg cancels the run;
// cancellation is reported as an error wrapping ordering.ErrCanceled.
func Run(ctx context.Context, diff gitctx.DiffResult, cfg config.Config, opts Options) (*Report, error) {
	startTime := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	src := opts.Source
	if src == nil {
		src = diff.ContentSource()
	}

	var key string
	if opts.Cache != nil && opts.Cache.Enabled() {
		key = cache.BuildCacheKey(Fingerprint(cfg), diff.Revision+"\x00"+diff.Repo.Head+"\x00"+diff.Diff)
		var cached Report
		if opts.Cache.Get(key, &cached) {
			logger.Debug("Using cached tour", slog.String("runId", cached.RunID))
			cached.Cached = true
			return &cached, nil
		}
	}

	if cfg.Timeout() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()
	}

	report := newReport(diff, cfg)
	frags := gitctx.ParseFragments(diff.Diff)
	if len(frags) == 0 {
		report.Timing.TotalMs = time.Since(startTime).Milliseconds()
		return report, nil
	}

	partStart := time.Now()
	parts, err := changepart.Partition(ctx, frags, src, changepart.Options{
		Irrelevant: cfg.IrrelevantCategories,
		MaxDepth:   cfg.BoundaryDepth,
		Logger:     logger,
	})
	if err != nil {
		return nil, canceled(err)
	}
	report.Timing.PartitionMs = time.Since(partStart).Milliseconds()

	ms, err := matchers.Build(cfg.Matchers, matchers.BuildOptions{
		PathGroups: pathGroups(cfg.PathGroups),
		Source:     src,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building matchers: %w", err)
	}
	matchStart := time.Now()
	matches, err := matchers.Run(ctx, ms, parts, logger)
	if err != nil {
		return nil, canceled(err)
	}
	report.Timing.MatchMs = time.Since(matchStart).Milliseconds()

	orderStart := time.Now()
	res, err := ordering.Order(ordering.NewContextControl(ctx, cfg.FastModeAfter()), parts, matches,
		ordering.Options[*changepart.ChangePart]{Less: changepart.Less, Logger: logger})
	if err != nil {
		return nil, canceled(err)
	}
	report.Timing.OrderMs = time.Since(orderStart).Milliseconds()

	fill(report, res, cfg)
	report.Timing.TotalMs = time.Since(startTime).Milliseconds()
	logger.Info("Tour computed",
		slog.Int("stops", len(report.Stops)),
		slog.Int("groups", len(report.Groups)),
		slog.Int("unsatisfied", len(report.Summary.Unsatisfied)),
		slog.Int64("ms", report.Timing.TotalMs))

	// Fast mode results are not minimal; a later, unhurried run may do better.
	if key != "" && !res.Stats.FastMode {
		if err := opts.Cache.Put(key, report); err != nil {
			logger.Warn("Cannot cache tour", slog.String("error", err.Error()))
		}
	}
	return report, nil
}

// Fingerprint identifies the settings that influence a tour.
func Fingerprint(cfg config.Config) string {
	data, _ := json.Marshal(struct {
		Version    string
		Matchers   []string
		PathGroups []config.PathGroup
		Irrelevant []string
		Depth      int
		Privacy    config.PrivacyConfig
	}{Version, cfg.Matchers, cfg.PathGroups, cfg.IrrelevantCategories, cfg.BoundaryDepth, cfg.Privacy})
	return string(data)
}

func canceled(err error) error {
	if errors.Is(err, ordering.ErrCanceled) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ordering.ErrCanceled, err)
	}
	return err
}

func pathGroups(groups []config.PathGroup) []matchers.PathGroup {
	out := make([]matchers.PathGroup, len(groups))
	for i, g := range groups {
		out[i] = matchers.PathGroup{Name: g.Name, Patterns: g.Patterns}
	}
	return out
}

func newReport(diff gitctx.DiffResult, cfg config.Config) *Report {
	return &Report{
		Tool:    Tool,
		Version: Version,
		RunID:   uuid.NewString(),
		Repo: RepoInfo{
			Root:   diff.Repo.Root,
			Head:   diff.Repo.Head,
			Branch: diff.Repo.Branch,
		},
		Inputs: InputInfo{
			Mode:     diff.Mode,
			Range:    diff.Range,
			Revision: diff.Revision,
			Files:    diff.Files,
			Matchers: cfg.Matchers,
		},
		Stops: []Stop{},
		Tour:  []Node{},
	}
}

func fill(report *Report, res *ordering.Result[*changepart.ChangePart], cfg config.Config) {
	index := make(map[*changepart.ChangePart]int, len(res.Order))
	for i, p := range res.Order {
		index[p] = i
		report.Stops = append(report.Stops, newStop(p, i+1, cfg.Privacy))
	}
	report.Tour = convertTour(res.Tour)

	for _, g := range res.Satisfied {
		ids := make([]string, len(res.Order))
		for p := range g.Items {
			ids[index[p]] = p.ID
		}
		var stops []string
		for _, id := range ids {
			if id != "" {
				stops = append(stops, id)
			}
		}
		report.Groups = append(report.Groups, GroupInfo{
			Description: g.Description,
			Stops:       stops,
			Explicit:    g.Explicit,
			ViaFolding:  len(g.ViaFolds) > 0,
		})
	}
	for _, m := range res.Unsatisfied {
		report.Summary.Unsatisfied = append(report.Summary.Unsatisfied, m.Description)
	}
	report.Summary.Stops = len(report.Stops)
	report.Summary.Groups = len(report.Groups)
	report.Summary.Stats = res.Stats
}

func newStop(p *changepart.ChangePart, index int, privacy config.PrivacyConfig) Stop {
	s := Stop{
		ID:        p.ID,
		Index:     index,
		Path:      p.Path(),
		Lines:     LineRange{Start: p.StartLine(), End: p.EndLine()},
		Fragments: len(p.Fragments),
		Category:  p.Fragments[0].Category,
	}
	for _, f := range p.Fragments {
		s.Binary = s.Binary || f.Binary
		if f.Category != s.Category {
			s.Category = ""
		}
	}
	lines := p.Lines()
	if len(lines) > maxSnippetLines {
		lines = append(lines[:maxSnippetLines:maxSnippetLines], fmt.Sprintf("... (%d more lines)", len(p.Lines())-maxSnippetLines))
	}
	s.Snippet = redact.Lines(lines, s.Path, privacy.RedactPaths, privacy.RedactSecrets)
	return s
}

func convertTour(elems []ordering.TourElement[*changepart.ChangePart]) []Node {
	out := make([]Node, 0, len(elems))
	for _, e := range elems {
		if e.IsGroup() {
			out = append(out, Node{Title: e.Description, Children: convertTour(e.Children)})
			continue
		}
		out = append(out, Node{Stop: e.Item.ID})
	}
	return out
}
