package position

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tobiasbaum/reviewtool-sub002/internal/bundle"
)

// Anchor is the place an item should take among the members of a match set.
type Anchor int

const (
	First Anchor = iota
	Second
	Last
)

func (a Anchor) String() string {
	switch a {
	case First:
		return "FIRST"
	case Second:
		return "SECOND"
	case Last:
		return "LAST"
	default:
		return fmt.Sprintf("Anchor(%d)", int(a))
	}
}

// Request asks for Item to take the Anchor position relative to the other
// members of Set.
type Request[T comparable] struct {
	Set    bundle.Set[T]
	Item   T
	Anchor Anchor
}

func (r Request[T]) equal(o Request[T]) bool {
	return r.Item == o.Item && r.Anchor == o.Anchor && r.Set.Equal(o.Set)
}

type node[T comparable] struct {
	kind     bundle.Kind
	value    T
	children []*node[T]
	size     int
}

func (n *node[T]) appendLeaves(dst []T) []T {
	if n.kind == bundle.KindLeaf {
		return append(dst, n.value)
	}
	for _, ch := range n.children {
		dst = ch.appendLeaves(dst)
	}
	return dst
}

func (n *node[T]) withChildren(ch []*node[T]) *node[T] {
	return &node[T]{kind: n.kind, children: ch, size: n.size}
}

// Tree mirrors the shape of a bundle tree and records the accepted position
// requests. Like bundle trees it is persistent.
type Tree[T comparable] struct {
	root *node[T]
	pins []Request[T]
}

// FromBundle builds a position tree with the shape and leaf order of b.
func FromBundle[T comparable](b *bundle.Tree[T]) *Tree[T] {
	if b.Root() == nil {
		return &Tree[T]{}
	}
	return &Tree[T]{root: convert(b.Root())}
}

func convert[T comparable](n *bundle.Node[T]) *node[T] {
	if n.Kind() == bundle.KindLeaf {
		return &node[T]{kind: bundle.KindLeaf, value: n.Value(), size: 1}
	}
	ch := make([]*node[T], len(n.Children()))
	for i, c := range n.Children() {
		ch[i] = convert(c)
	}
	return &node[T]{kind: n.Kind(), children: ch, size: n.Size()}
}

// Order returns the items in the current leaf order.
func (t *Tree[T]) Order() []T {
	if t.root == nil {
		return nil
	}
	return t.root.appendLeaves(make([]T, 0, t.root.size))
}

// Pins returns the accepted requests in the order they were fixed.
func (t *Tree[T]) Pins() []Request[T] {
	return slices.Clone(t.pins)
}

// Satisfied reports whether order places req.Item at req.Anchor among the
// members of req.Set that occur in order.
func Satisfied[T comparable](order []T, req Request[T]) bool {
	idx, n := -1, 0
	for _, v := range order {
		if !req.Set.Has(v) {
			continue
		}
		if v == req.Item {
			idx = n
		}
		n++
	}
	if idx < 0 {
		return false
	}
	switch req.Anchor {
	case First:
		return idx == 0
	case Second:
		return idx == 1
	case Last:
		return idx == n-1
	default:
		return false
	}
}

func (t *Tree[T]) String() string {
	if t.root == nil {
		return "<empty>"
	}
	var b strings.Builder
	writeNode(&b, t.root)
	return b.String()
}

func writeNode[T comparable](b *strings.Builder, n *node[T]) {
	switch n.kind {
	case bundle.KindLeaf:
		fmt.Fprint(b, n.value)
		return
	case bundle.KindFixed:
		b.WriteString("F(")
	default:
		b.WriteString("R(")
	}
	for i, ch := range n.children {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeNode(b, ch)
	}
	b.WriteByte(')')
}
