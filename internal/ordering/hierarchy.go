package ordering

import (
	"log/slog"
)

// hnode is a node of the hierarchy forest. It spans the inclusive index range
// [min, max] of the final order. Leaves have no child.
type hnode struct {
	min, max int
	desc     string
	child    *hnode
	next     *hnode
}

// BuildHierarchy nests the items of order into named groups. Groups are
// applied in the given order; a group that is not contiguous in order, that
// crosses an existing group or that would only rename an existing node is
// skipped.
func BuildHierarchy[T comparable](order []T, groups []Group[T]) []TourElement[T] {
	return buildHierarchy(order, groups, slog.Default())
}

func buildHierarchy[T comparable](order []T, groups []Group[T], logger *slog.Logger) []TourElement[T] {
	index := make(map[T]int, len(order))
	var head *hnode
	link := &head
	for i, v := range order {
		index[v] = i
		*link = &hnode{min: i, max: i}
		link = &(*link).next
	}

	for _, g := range groups {
		lo, hi, n := len(order), -1, 0
		for v := range g.Items {
			i, ok := index[v]
			if !ok {
				continue
			}
			lo, hi = min(lo, i), max(hi, i)
			n++
		}
		if n < 2 {
			continue
		}
		if hi-lo+1 != n {
			logger.Warn("Skipping non-contiguous group", slog.String("description", g.Description))
			continue
		}
		if reason := insert(&head, lo, hi, g.Description); reason != "" {
			logger.Debug("Skipping group", slog.String("description", g.Description), slog.String("reason", reason))
		}
	}
	return convertForest(head, order)
}

// insert wraps the nodes spanning exactly [lo, hi] into a new node. It
// returns why the range was not inserted, or "" on success.
func insert(link **hnode, lo, hi int, desc string) string {
	for *link != nil && (*link).max < lo {
		link = &(*link).next
	}
	s := *link
	if s == nil {
		return "out of range"
	}
	if s.min <= lo && hi <= s.max {
		if s.min == lo && s.max == hi {
			return "trivial"
		}
		return insert(&s.child, lo, hi, desc)
	}
	if s.min != lo {
		return "crossing"
	}
	e := s
	for e.max < hi {
		if e.next == nil {
			return "out of range"
		}
		e = e.next
	}
	if e.max != hi {
		return "crossing"
	}
	*link = &hnode{min: lo, max: hi, desc: desc, child: s, next: e.next}
	e.next = nil
	return ""
}

func convertForest[T comparable](n *hnode, order []T) []TourElement[T] {
	var out []TourElement[T]
	for ; n != nil; n = n.next {
		if n.child == nil {
			out = append(out, TourElement[T]{Item: order[n.min]})
			continue
		}
		out = append(out, TourElement[T]{
			Description: n.desc,
			Children:    convertForest(n.child, order),
		})
	}
	return out
}
