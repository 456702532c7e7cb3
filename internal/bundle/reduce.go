package bundle

import "slices"

// reduction is the outcome of rewriting one subtree for a match set. For a
// partial outcome node is a fixed node and full flags which of its children
// are completely matched; those children form one run on the side given by c.
type reduction[T comparable] struct {
	node *Node[T]
	c    Containment
	full []bool
}

type reducer[T comparable] struct {
	counts map[*Node[T]]int
}

func (r *reducer[T]) count(n *Node[T], s Set[T]) int {
	if n.kind == KindLeaf {
		if s.Has(n.value) {
			r.counts[n] = 1
			return 1
		}
		return 0
	}
	total := 0
	for _, ch := range n.children {
		total += r.count(ch, s)
	}
	if total > 0 {
		r.counts[n] = total
	}
	return total
}

type step[T comparable] struct {
	node  *Node[T]
	index int
}

// Bundle returns a tree that additionally keeps the members of s contiguous
// in every order it permits. It reports false when this conflicts with the
// constraints already enforced; the receiver is never modified. Members that
// are not in the tree are ignored, and a set with fewer than two known members
// is trivially satisfied.
func (t *Tree[T]) Bundle(s Set[T]) (*Tree[T], bool) {
	if t.root == nil {
		return t, true
	}
	r := &reducer[T]{counts: make(map[*Node[T]]int)}
	total := r.count(t.root, s)
	if total < 2 {
		return t, true
	}
	root, ok := r.bundle(t.root, total)
	switch {
	case !ok:
		return nil, false
	case root == t.root:
		return t, true
	}
	return &Tree[T]{root: root}, true
}

// bundle rewrites the smallest subtree of root holding all total counted
// members and returns the new root. It returns root itself when that subtree
// is already exactly the member set.
func (r *reducer[T]) bundle(root *Node[T], total int) (*Node[T], bool) {
	var path []step[T]
	n := root
descend:
	for n.kind != KindLeaf {
		for i, ch := range n.children {
			if r.counts[ch] == total {
				path = append(path, step[T]{node: n, index: i})
				n = ch
				continue descend
			}
		}
		break
	}
	if total == n.size {
		return root, true
	}

	res := r.reduce(n, true)
	if res.c == Conflict {
		return nil, false
	}
	return rebuild(path, res.node), true
}

// CheckContainment classifies s against the orders the tree permits without
// changing it. Members of s that are not in the tree are ignored.
//
// The result is NONE or FULL when no or every item is a member. Otherwise it
// is PARTIAL_TOP or PARTIAL_BOTTOM when some permitted order puts the members
// in one run at that end, measured against the current orientation of fixed
// nodes, PARTIAL_MIDDLE when they can only be kept together away from both
// ends, and CONFLICT exactly when Bundle(s) would fail. Only subtrees holding
// members are rewritten, and the rewrites are discarded.
func (t *Tree[T]) CheckContainment(s Set[T]) Containment {
	if t.root == nil {
		return None
	}
	r := &reducer[T]{counts: make(map[*Node[T]]int)}
	total := r.count(t.root, s)
	switch total {
	case 0:
		return None
	case t.root.size:
		return Full
	}
	if c := r.reduce(t.root, false).c; c != Conflict {
		return c
	}
	if _, ok := r.bundle(t.root, total); ok {
		return PartialMiddle
	}
	return Conflict
}

// rebuild replaces the subtree at the end of path with repl and copies every
// ancestor on the way up.
func rebuild[T comparable](path []step[T], repl *Node[T]) *Node[T] {
	cur := repl
	for i := len(path) - 1; i >= 0; i-- {
		p := path[i]
		ch := slices.Clone(p.node.children)
		ch[p.index] = cur
		cur = &Node[T]{kind: p.node.kind, children: ch, size: p.node.size}
	}
	return cur
}

func (r *reducer[T]) reduce(n *Node[T], root bool) reduction[T] {
	switch c := r.counts[n]; {
	case c == 0:
		return reduction[T]{node: n, c: None}
	case c == n.size:
		return reduction[T]{node: n, c: Full}
	}
	switch n.kind {
	case KindReorderable:
		return r.reduceReorderable(n, root)
	case KindFixed:
		return r.reduceFixed(n, root)
	default:
		// Leaves are always NONE or FULL.
		panic("bundle: partial leaf")
	}
}

func group[T comparable](nodes []*Node[T]) *Node[T] {
	return newInternal(KindReorderable, slices.Clone(nodes))
}

// oriented returns the children and flags of a partial reduction with the
// matched run moved to the front (top) or the back.
func oriented[T comparable](p reduction[T], top bool) ([]*Node[T], []bool) {
	ch := slices.Clone(p.node.children)
	fl := slices.Clone(p.full)
	if (p.c == PartialTop) != top {
		slices.Reverse(ch)
		slices.Reverse(fl)
	}
	return ch, fl
}

func (r *reducer[T]) reduceReorderable(n *Node[T], root bool) reduction[T] {
	var fulls, empties []*Node[T]
	var partials []reduction[T]
	for _, ch := range n.children {
		res := r.reduce(ch, false)
		switch res.c {
		case Conflict:
			return reduction[T]{c: Conflict}
		case None:
			empties = append(empties, ch)
		case Full:
			fulls = append(fulls, ch)
		default:
			partials = append(partials, res)
		}
	}

	if !root {
		if len(partials) > 1 {
			return reduction[T]{c: Conflict}
		}
		var ch []*Node[T]
		var fl []bool
		if len(fulls) > 0 {
			ch = append(ch, group(fulls))
			fl = append(fl, true)
		}
		if len(partials) == 1 {
			pc, pf := oriented(partials[0], true)
			ch = append(ch, pc...)
			fl = append(fl, pf...)
		}
		if len(empties) > 0 {
			ch = append(ch, group(empties))
			fl = append(fl, false)
		}
		return reduction[T]{node: newInternal(KindFixed, ch), c: PartialTop, full: fl}
	}

	if len(partials) > 2 {
		return reduction[T]{c: Conflict}
	}
	var g *Node[T]
	if len(partials) == 0 {
		g = group(fulls)
	} else {
		var ch []*Node[T]
		pc, _ := oriented(partials[0], false)
		ch = append(ch, pc...)
		if len(fulls) > 0 {
			ch = append(ch, group(fulls))
		}
		if len(partials) == 2 {
			pc, _ := oriented(partials[1], true)
			ch = append(ch, pc...)
		}
		g = newInternal(KindFixed, ch)
	}
	if len(empties) == 0 {
		return reduction[T]{node: g, c: Full}
	}

	// Keep the untouched children in place and put the new group where the
	// first matched child was.
	ch := make([]*Node[T], 0, len(empties)+1)
	placed := false
	for _, c := range n.children {
		if r.counts[c] == 0 {
			ch = append(ch, c)
			continue
		}
		if !placed {
			ch = append(ch, g)
			placed = true
		}
	}
	return reduction[T]{node: newInternal(KindReorderable, ch), c: PartialMiddle}
}

func (r *reducer[T]) reduceFixed(n *Node[T], root bool) reduction[T] {
	results := make([]reduction[T], len(n.children))
	first, last := -1, -1
	for i, ch := range n.children {
		res := r.reduce(ch, false)
		if res.c == Conflict {
			return reduction[T]{c: Conflict}
		}
		results[i] = res
		if res.c != None {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	for i := first + 1; i < last; i++ {
		if results[i].c != Full {
			return reduction[T]{c: Conflict}
		}
	}

	var ch []*Node[T]
	var fl []bool
	for i, res := range results {
		if res.c == None || res.c == Full {
			ch = append(ch, res.node)
			fl = append(fl, res.c == Full)
			continue
		}
		var top bool
		switch {
		case first < last:
			top = i == last
		case i == 0:
			top = true
		case i == len(results)-1:
			top = false
		default:
			if !root {
				return reduction[T]{c: Conflict}
			}
			top = true
		}
		pc, pf := oriented(res, top)
		ch = append(ch, pc...)
		fl = append(fl, pf...)
	}
	node := newInternal(KindFixed, ch)
	if root {
		return reduction[T]{node: node, c: PartialMiddle}
	}

	fi := slices.Index(fl, true)
	li := len(fl) - 1 - slices.Index(reversedFlags(fl), true)
	switch {
	case fi == 0:
		return reduction[T]{node: node, c: PartialTop, full: fl}
	case li == len(fl)-1:
		return reduction[T]{node: node, c: PartialBottom, full: fl}
	default:
		return reduction[T]{c: Conflict}
	}
}

func reversedFlags(fl []bool) []bool {
	out := slices.Clone(fl)
	slices.Reverse(out)
	return out
}
