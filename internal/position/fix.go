package position

import (
	"slices"

	"github.com/tobiasbaum/reviewtool-sub002/internal/bundle"
)

// maxCandidates bounds the rewrites tried per request.
const maxCandidates = 16

type fixer[T comparable] struct {
	set    bundle.Set[T]
	item   T
	counts map[*node[T]]int
	onPath map[*node[T]]bool
}

func (f *fixer[T]) count(n *node[T]) int {
	if n.kind == bundle.KindLeaf {
		if f.set.Has(n.value) {
			f.counts[n] = 1
			return 1
		}
		return 0
	}
	total := 0
	for _, ch := range n.children {
		total += f.count(ch)
	}
	f.counts[n] = total
	return total
}

func (f *fixer[T]) mark(n *node[T]) bool {
	if n.kind == bundle.KindLeaf {
		if n.value == f.item {
			f.onPath[n] = true
		}
		return f.onPath[n]
	}
	for _, ch := range n.children {
		if f.mark(ch) {
			f.onPath[n] = true
			return true
		}
	}
	return false
}

type step[T comparable] struct {
	node  *node[T]
	index int
}

// FixPosition returns a tree in which item takes anchor a among the members
// of s, or false when that is impossible without breaking the grouping or a
// previously accepted request. Only the smallest subtree holding all known
// members of s is rewritten. The receiver is never modified.
func (t *Tree[T]) FixPosition(s bundle.Set[T], item T, a Anchor) (*Tree[T], bool) {
	if t.root == nil || !s.Has(item) {
		return nil, false
	}
	f := &fixer[T]{
		set:    s,
		item:   item,
		counts: make(map[*node[T]]int),
		onPath: make(map[*node[T]]bool),
	}
	if !f.mark(t.root) {
		return nil, false
	}
	total := f.count(t.root)
	req := Request[T]{Set: s, Item: item, Anchor: a}

	if Satisfied(t.Order(), req) {
		return t.withPin(req), true
	}

	var path []step[T]
	n := t.root
descend:
	for n.kind != bundle.KindLeaf {
		for i, ch := range n.children {
			if f.counts[ch] == total {
				path = append(path, step[T]{node: n, index: i})
				n = ch
				continue descend
			}
		}
		break
	}

	pins := append(slices.Clone(t.pins), req)
	for _, cand := range f.realize(n, a) {
		root := rebuild(path, cand)
		order := root.appendLeaves(make([]T, 0, root.size))
		if allSatisfied(order, pins) {
			return &Tree[T]{root: root, pins: pins}, true
		}
	}
	return nil, false
}

func (t *Tree[T]) withPin(req Request[T]) *Tree[T] {
	for _, p := range t.pins {
		if p.equal(req) {
			return t
		}
	}
	return &Tree[T]{root: t.root, pins: append(slices.Clone(t.pins), req)}
}

func allSatisfied[T comparable](order []T, reqs []Request[T]) bool {
	for _, r := range reqs {
		if !Satisfied(order, r) {
			return false
		}
	}
	return true
}

func rebuild[T comparable](path []step[T], repl *node[T]) *node[T] {
	cur := repl
	for i := len(path) - 1; i >= 0; i-- {
		p := path[i]
		ch := slices.Clone(p.node.children)
		ch[p.index] = cur
		cur = p.node.withChildren(ch)
	}
	return cur
}

// realize returns rewrites of n, most conservative first, in which the item
// takes anchor a among the members below n.
func (f *fixer[T]) realize(n *node[T], a Anchor) []*node[T] {
	if f.counts[n] == 1 {
		if a == Second {
			return nil
		}
		return []*node[T]{n}
	}
	var out []*node[T]
	switch n.kind {
	case bundle.KindReorderable:
		out = f.realizeReorderable(n, a)
	case bundle.KindFixed:
		out = f.realizeFixed(n, a)
	}
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}

func (f *fixer[T]) realizeReorderable(n *node[T], a Anchor) []*node[T] {
	var slots []int
	var cx *node[T]
	var others []*node[T]
	for i, ch := range n.children {
		if f.counts[ch] == 0 {
			continue
		}
		slots = append(slots, i)
		if f.onPath[ch] {
			cx = ch
		} else {
			others = append(others, ch)
		}
	}

	// place puts seq into the slots of the matched children and leaves the
	// others where they are.
	place := func(seq ...[]*node[T]) *node[T] {
		ch := slices.Clone(n.children)
		k := 0
		for _, part := range seq {
			for _, c := range part {
				ch[slots[k]] = c
				k++
			}
		}
		return n.withChildren(ch)
	}
	without := func(y *node[T]) []*node[T] {
		rest := make([]*node[T], 0, len(others)-1)
		for _, o := range others {
			if o != y {
				rest = append(rest, o)
			}
		}
		return rest
	}

	var out []*node[T]
	switch a {
	case First:
		for _, r := range f.realize(cx, First) {
			out = append(out, place([]*node[T]{r}, others))
		}
	case Last:
		for _, r := range f.realize(cx, Last) {
			out = append(out, place(others, []*node[T]{r}))
		}
	case Second:
		leadFirst := func(y *node[T]) {
			for _, r := range f.realize(cx, First) {
				out = append(out, place([]*node[T]{y, r}, without(y)))
			}
		}
		var singles []*node[T]
		for _, o := range others {
			if f.counts[o] == 1 {
				singles = append(singles, o)
			}
		}
		// A single member already leading keeps its place.
		lead := n.children[slots[0]]
		if lead != cx && f.counts[lead] == 1 {
			leadFirst(lead)
		}
		if f.counts[cx] >= 2 {
			for _, r := range f.realize(cx, Second) {
				out = append(out, place([]*node[T]{r}, others))
			}
		}
		for _, y := range singles {
			if y != lead {
				leadFirst(y)
			}
		}
	}
	return out
}

func (f *fixer[T]) realizeFixed(n *node[T], a Anchor) []*node[T] {
	var out []*node[T]
	for _, mirror := range []bool{false, true} {
		ch := slices.Clone(n.children)
		if mirror {
			slices.Reverse(ch)
		}
		idx, before, after := -1, 0, 0
		for i, c := range ch {
			switch {
			case f.onPath[c]:
				idx = i
			case idx < 0:
				before += f.counts[c]
			default:
				after += f.counts[c]
			}
		}

		var sub []*node[T]
		switch {
		case a == First && before == 0:
			sub = f.realize(ch[idx], First)
		case a == Last && after == 0:
			sub = f.realize(ch[idx], Last)
		case a == Second && before == 1:
			sub = f.realize(ch[idx], First)
		case a == Second && before == 0:
			sub = f.realize(ch[idx], Second)
		}
		for _, r := range sub {
			next := slices.Clone(ch)
			next[idx] = r
			out = append(out, n.withChildren(next))
		}
	}
	return out
}
