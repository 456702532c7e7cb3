// Package bundle implements the bundle combination tree that keeps track of
// which groups of items have to stay contiguous in a review tour.
//
// A tree has three kinds of nodes. Leaves wrap one item. Reorderable nodes
// allow their children in any order. Fixed nodes keep their children in the
// given order, although the whole sequence may be mirrored. Every order that
// can be produced by permuting reorderable nodes and mirroring fixed nodes
// keeps all bundled match sets contiguous.
//
// Trees are persistent: [Tree.Bundle], [Tree.Reverse] and [Tree.Canonical]
// return new roots that share unchanged subtrees with the receiver, so an
// older root stays a valid snapshot for backtracking.
//
// Bundling a match set classifies every visited subtree with a [Containment]
// value and rewrites the smallest subtree that holds the whole set. Partial
// matches below that subtree are turned into fixed nodes whose matched
// children sit on one edge; those are flattened into the parent so that the
// edge orientation cannot be undone by a later mirror.
package bundle
