package changepart

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
)

// Options controls partitioning.
type Options struct {
	// Irrelevant lists fragment categories that never merge with other
	// fragments.
	Irrelevant []string
	// MaxDepth is the boundary depth passed to ScanBoundaries. Values below
	// one use DefaultBoundaryDepth.
	MaxDepth int
	Logger   *slog.Logger
}

// Partition groups frags into change parts ordered by path and line.
// Fragments of a file are merged while no region boundary separates them.
// A file that is binary, has a single fragment or whose content cannot be
// read yields one part per fragment. The only error is ctx's.
func Partition(ctx context.Context, frags []Fragment, src ContentSource, opts Options) ([]*ChangePart, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sorted := slices.Clone(frags)
	slices.SortStableFunc(sorted, compareFragments)

	var parts []*ChangePart
	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && sorted[end].Path == sorted[start].Path {
			end++
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parts = append(parts, partitionFile(ctx, sorted[start:end], src, opts, logger)...)
		start = end
	}
	return parts, nil
}

func partitionFile(ctx context.Context, frags []Fragment, src ContentSource, opts Options, logger *slog.Logger) []*ChangePart {
	path := frags[0].Path
	if len(frags) == 1 || slices.ContainsFunc(frags, func(f Fragment) bool { return f.Binary }) || src == nil {
		return singletons(frags)
	}
	content, err := src.Content(ctx, path)
	if err != nil {
		logger.Warn("Cannot read file content, keeping fragments separate",
			slog.String("path", path), slog.String("error", err.Error()))
		return singletons(frags)
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return singletons(frags)
	}
	bounds := ScanBoundaries(content, opts.MaxDepth)

	var parts []*ChangePart
	current := []Fragment{frags[0]}
	for _, f := range frags[1:] {
		prev := current[len(current)-1]
		if irrelevant(prev, opts.Irrelevant) || irrelevant(f, opts.Irrelevant) ||
			boundaryBetween(bounds, prev.LastLine(), f.StartLine-1) {
			parts = append(parts, New(current...))
			current = nil
		}
		current = append(current, f)
	}
	return append(parts, New(current...))
}

func singletons(frags []Fragment) []*ChangePart {
	parts := make([]*ChangePart, len(frags))
	for i, f := range frags {
		parts[i] = New(f)
	}
	return parts
}

func irrelevant(f Fragment, categories []string) bool {
	return f.Category != "" && slices.Contains(categories, f.Category)
}
