package bundle

import (
	"fmt"
	"slices"
)

// Kind is the variant of a tree node.
type Kind int

const (
	KindLeaf Kind = iota
	KindReorderable
	KindFixed
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindReorderable:
		return "reorderable"
	case KindFixed:
		return "fixed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Containment classifies how a match set relates to the leaf order of a
// subtree.
type Containment int

const (
	// None means no leaf of the subtree is in the set.
	None Containment = iota
	// Full means every leaf of the subtree is in the set.
	Full
	// PartialTop means the matching leaves form a proper prefix.
	PartialTop
	// PartialBottom means the matching leaves form a proper suffix.
	PartialBottom
	// PartialMiddle means the matching leaves are contiguous but touch
	// neither end.
	PartialMiddle
	// Conflict means the matching leaves cannot be made contiguous.
	Conflict
)

func (c Containment) String() string {
	switch c {
	case None:
		return "NONE"
	case Full:
		return "FULL"
	case PartialTop:
		return "PARTIAL_TOP"
	case PartialBottom:
		return "PARTIAL_BOTTOM"
	case PartialMiddle:
		return "PARTIAL_MIDDLE"
	case Conflict:
		return "CONFLICT"
	default:
		return fmt.Sprintf("Containment(%d)", int(c))
	}
}

// Node is an immutable tree node. Internal nodes always have at least two
// children.
type Node[T comparable] struct {
	kind     Kind
	value    T
	children []*Node[T]
	size     int
}

// Kind returns the node variant.
func (n *Node[T]) Kind() Kind { return n.kind }

// Value returns the item of a leaf. It is the zero value for internal nodes.
func (n *Node[T]) Value() T { return n.value }

// Children returns the child nodes. Callers must not modify the slice.
func (n *Node[T]) Children() []*Node[T] { return n.children }

// Size returns the number of leaves below n.
func (n *Node[T]) Size() int { return n.size }

func newLeaf[T comparable](v T) *Node[T] {
	return &Node[T]{kind: KindLeaf, value: v, size: 1}
}

// newInternal builds an internal node. A single child is returned as is.
func newInternal[T comparable](kind Kind, children []*Node[T]) *Node[T] {
	switch len(children) {
	case 0:
		panic("bundle: internal node without children")
	case 1:
		return children[0]
	}
	size := 0
	for _, ch := range children {
		size += ch.size
	}
	return &Node[T]{kind: kind, children: children, size: size}
}

func (n *Node[T]) appendLeaves(dst []T) []T {
	if n.kind == KindLeaf {
		return append(dst, n.value)
	}
	for _, ch := range n.children {
		dst = ch.appendLeaves(dst)
	}
	return dst
}

func (n *Node[T]) firstLeaf() T {
	for n.kind != KindLeaf {
		n = n.children[0]
	}
	return n.value
}

func (n *Node[T]) lastLeaf() T {
	for n.kind != KindLeaf {
		n = n.children[len(n.children)-1]
	}
	return n.value
}

// Tree is a persistent bundle combination tree.
type Tree[T comparable] struct {
	root *Node[T]
}

// Create builds the initial tree: one reorderable node holding a leaf per
// item, or a bare leaf for a single item. Duplicate items violate the
// one-leaf-per-item invariant and cause a panic.
func Create[T comparable](items []T) *Tree[T] {
	if len(items) == 0 {
		return &Tree[T]{}
	}
	seen := make(Set[T], len(items))
	leaves := make([]*Node[T], 0, len(items))
	for _, it := range items {
		if seen.Has(it) {
			panic(fmt.Sprintf("bundle: duplicate item %v", it))
		}
		seen[it] = struct{}{}
		leaves = append(leaves, newLeaf(it))
	}
	return &Tree[T]{root: newInternal(KindReorderable, leaves)}
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree[T]) Root() *Node[T] { return t.root }

// Size returns the number of items in the tree.
func (t *Tree[T]) Size() int {
	if t.root == nil {
		return 0
	}
	return t.root.size
}

// PossibleOrder returns the items in the current leaf order.
func (t *Tree[T]) PossibleOrder() []T {
	if t.root == nil {
		return nil
	}
	return t.root.appendLeaves(make([]T, 0, t.root.size))
}

// Walk visits the nodes in pre-order. Returning false from fn skips the
// children of the visited node.
func (t *Tree[T]) Walk(fn func(n *Node[T], depth int) bool) {
	if t.root != nil {
		walk(t.root, 0, fn)
	}
}

func walk[T comparable](n *Node[T], depth int, fn func(*Node[T], int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, ch := range n.children {
		walk(ch, depth+1, fn)
	}
}

// Reverse returns the mirrored tree: every child sequence is reversed, so the
// leaf order is the exact reverse of the receiver's.
func (t *Tree[T]) Reverse() *Tree[T] {
	if t.root == nil {
		return t
	}
	return &Tree[T]{root: deepMirror(t.root)}
}

func deepMirror[T comparable](n *Node[T]) *Node[T] {
	if n.kind == KindLeaf {
		return n
	}
	ch := make([]*Node[T], len(n.children))
	for i, c := range n.children {
		ch[len(ch)-1-i] = deepMirror(c)
	}
	return &Node[T]{kind: n.kind, children: ch, size: n.size}
}

// Classify returns the containment of s in a plain item sequence.
func Classify[T comparable](order []T, s Set[T]) Containment {
	first, last, count := -1, -1, 0
	for i, v := range order {
		if !s.Has(v) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		count++
	}
	switch {
	case count == 0:
		return None
	case count == len(order):
		return Full
	case last-first+1 != count:
		return Conflict
	case first == 0:
		return PartialTop
	case last == len(order)-1:
		return PartialBottom
	default:
		return PartialMiddle
	}
}

// Canonical normalizes the tree with the tie-break order less: children of
// reorderable nodes are sorted by their first leaf, and fixed nodes are
// mirrored when their last leaf sorts before their first. Only choices left
// open by the bundled constraints are affected.
func (t *Tree[T]) Canonical(less func(a, b T) bool) *Tree[T] {
	if t.root == nil {
		return t
	}
	return &Tree[T]{root: canonical(t.root, less)}
}

func canonical[T comparable](n *Node[T], less func(a, b T) bool) *Node[T] {
	if n.kind == KindLeaf {
		return n
	}
	ch := make([]*Node[T], len(n.children))
	for i, c := range n.children {
		ch[i] = canonical(c, less)
	}
	switch n.kind {
	case KindReorderable:
		slices.SortStableFunc(ch, func(a, b *Node[T]) int {
			af, bf := a.firstLeaf(), b.firstLeaf()
			switch {
			case less(af, bf):
				return -1
			case less(bf, af):
				return 1
			default:
				return 0
			}
		})
	case KindFixed:
		if less(ch[len(ch)-1].lastLeaf(), ch[0].firstLeaf()) {
			slices.Reverse(ch)
		}
	}
	return &Node[T]{kind: n.kind, children: ch, size: n.size}
}

// String renders the tree structure, e.g. "R(a F(b c))".
func (t *Tree[T]) String() string {
	if t.root == nil {
		return "<empty>"
	}
	return t.root.String()
}

func (n *Node[T]) String() string {
	switch n.kind {
	case KindLeaf:
		return fmt.Sprint(n.value)
	case KindReorderable, KindFixed:
		prefix := "R("
		if n.kind == KindFixed {
			prefix = "F("
		}
		s := prefix
		for i, ch := range n.children {
			if i > 0 {
				s += " "
			}
			s += ch.String()
		}
		return s + ")"
	default:
		return "?"
	}
}
