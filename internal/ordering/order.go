package ordering

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/tobiasbaum/reviewtool-sub002/internal/bundle"
	"github.com/tobiasbaum/reviewtool-sub002/internal/position"
)

// Options configures an ordering run.
type Options[T comparable] struct {
	// Less is the tie-break order used to choose among equivalent orders. It
	// must be a strict total order. Nil keeps the input order.
	Less func(a, b T) bool
	// Logger receives diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

type run[T comparable] struct {
	ctl     Control
	logger  *slog.Logger
	matches []Match[T]
	tree    *bundle.Tree[T]
	res     *Result[T]
	// done marks the matches satisfied so far, by index.
	done []bool
	// folds holds every satisfied set, including unions built by folding.
	folds []bundle.Set[T]
}

// Order computes a tour for items that keeps as many match sets contiguous
// as possible, preferring earlier matches. Constraint conflicts are recorded
// in the result, never returned as errors. The only error is ErrCanceled.
// A nil ctl runs to completion with full minimization.
func Order[T comparable](ctl Control, items []T, matches []Match[T], opts Options[T]) (*Result[T], error) {
	if ctl == nil {
		ctl = noControl{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	less := opts.Less
	if less == nil {
		less = func(a, b T) bool { return false }
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})

	r := &run[T]{
		ctl:     ctl,
		logger:  logger,
		matches: matches,
		tree:    bundle.Create(sorted),
		done:    make([]bool, len(matches)),
		res: &Result[T]{Stats: Stats{
			Items:     len(items),
			MatchSets: len(matches),
		}},
	}

	if err := r.firstPass(); err != nil {
		return nil, err
	}
	if err := r.foldPass(); err != nil {
		return nil, err
	}
	for i, m := range matches {
		if !r.done[i] {
			r.res.Unsatisfied = append(r.res.Unsatisfied, m)
		}
	}
	r.res.Stats.Unsatisfied = len(r.res.Unsatisfied)

	r.tree = r.tree.Canonical(less)
	order, err := r.applyPositions()
	if err != nil {
		return nil, err
	}

	for _, g := range r.res.Satisfied {
		if bundle.Classify(order, g.Items) == bundle.Conflict {
			panic(fmt.Sprintf("ordering: satisfied group %q is not contiguous", g.Description))
		}
	}

	r.res.Order = order
	r.res.Tour = buildHierarchy(order, r.res.Satisfied, logger)
	logger.Debug("Ordering finished",
		slog.Int("items", len(order)),
		slog.Int("direct", r.res.Stats.Direct),
		slog.Int("viaFolding", r.res.Stats.ViaFolding),
		slog.Int("unsatisfied", r.res.Stats.Unsatisfied),
		slog.Bool("fastMode", r.res.Stats.FastMode))
	return r.res, nil
}

func (r *run[T]) firstPass() error {
	for i, m := range r.matches {
		if err := checkCanceled(r.ctl); err != nil {
			return err
		}
		next, ok := r.tree.Bundle(m.Set.Items)
		if !ok {
			r.logger.Debug("Match set conflicts", slog.String("description", m.Description), slog.Int("size", m.Set.Items.Len()))
			continue
		}
		r.tree = next
		r.done[i] = true
		r.folds = append(r.folds, m.Set.Items)
		r.res.Satisfied = append(r.res.Satisfied, Group[T]{
			Items:       m.Set.Items,
			Matched:     m.Set.Items,
			Description: m.Description,
			Explicit:    m.Explicit,
		})
		r.res.Stats.Direct++
	}
	return nil
}

// foldPass retries unsatisfied matches with satisfied sets folded in until no
// further match can be satisfied.
func (r *run[T]) foldPass() error {
	for progress := true; progress; {
		progress = false
		for i, m := range r.matches {
			if r.done[i] {
				continue
			}
			if err := checkCanceled(r.ctl); err != nil {
				return err
			}
			ok, err := r.tryFold(i, m)
			if err != nil {
				return err
			}
			if ok {
				progress = true
			}
		}
	}
	return nil
}

func (r *run[T]) candidates(m Match[T]) []bundle.Set[T] {
	var withCenter, rest []bundle.Set[T]
	for _, f := range r.folds {
		if !f.Intersects(m.Set.Items) || m.Set.Items.ContainsAll(f) {
			continue
		}
		if slices.ContainsFunc(m.Set.Centers, f.Has) {
			withCenter = append(withCenter, f)
		} else {
			rest = append(rest, f)
		}
	}
	return append(withCenter, rest...)
}

func union[T comparable](base bundle.Set[T], folds []bundle.Set[T]) bundle.Set[T] {
	u := base.Union(nil)
	for _, f := range folds {
		for v := range f {
			u[v] = struct{}{}
		}
	}
	return u
}

func (r *run[T]) tryFold(i int, m Match[T]) (bool, error) {
	used := r.candidates(m)
	if len(used) == 0 {
		return false, nil
	}
	next, ok := r.tree.Bundle(union(m.Set.Items, used))
	if !ok {
		return false, nil
	}

	if r.ctl.FastModeNeeded() {
		if !r.res.Stats.FastMode {
			r.logger.Info("Switching to fast mode", slog.Int("pending", r.pending()))
			r.res.Stats.FastMode = true
		}
	} else {
		for k := 0; k < len(used); {
			if err := checkCanceled(r.ctl); err != nil {
				return false, err
			}
			trial := slices.Delete(slices.Clone(used), k, k+1)
			if smaller, ok := r.tree.Bundle(union(m.Set.Items, trial)); ok {
				used, next = trial, smaller
				continue
			}
			k++
		}
	}

	u := union(m.Set.Items, used)
	r.tree = next
	r.done[i] = true
	r.folds = append(r.folds, u)
	r.res.Satisfied = append(r.res.Satisfied, Group[T]{
		Items:       u,
		Matched:     m.Set.Items,
		Description: m.Description,
		Explicit:    m.Explicit,
		ViaFolds:    used,
	})
	r.res.Stats.ViaFolding++
	r.logger.Debug("Match set satisfied via folding",
		slog.String("description", m.Description),
		slog.Int("folds", len(used)))
	return true, nil
}

func (r *run[T]) pending() int {
	n := 0
	for _, d := range r.done {
		if !d {
			n++
		}
	}
	return n
}

// applyPositions realizes the position requests of satisfied matches in
// priority order, followed by the lead hints of single-center star sets.
func (r *run[T]) applyPositions() ([]T, error) {
	pt := position.FromBundle(r.tree)
	for i, m := range r.matches {
		if !r.done[i] {
			continue
		}
		for _, p := range m.Positions {
			if err := checkCanceled(r.ctl); err != nil {
				return nil, err
			}
			if next, ok := pt.FixPosition(p.Set, p.Item, p.Anchor); ok {
				pt = next
				r.res.PositionsSatisfied = append(r.res.PositionsSatisfied, p)
				continue
			}
			r.res.PositionsFailed = append(r.res.PositionsFailed, p)
			r.logger.Debug("Position request conflicts",
				slog.String("description", m.Description),
				slog.String("anchor", p.Anchor.String()))
		}
	}
	r.res.Stats.PositionsSatisfied = len(r.res.PositionsSatisfied)
	r.res.Stats.PositionsFailed = len(r.res.PositionsFailed)

	for i, m := range r.matches {
		if !r.done[i] || len(m.Set.Centers) != 1 {
			continue
		}
		if err := checkCanceled(r.ctl); err != nil {
			return nil, err
		}
		if next, ok := pt.FixPosition(m.Set.Items, m.Set.Centers[0], position.First); ok {
			pt = next
			r.res.Stats.HintsApplied++
		}
	}
	return pt.Order(), nil
}
