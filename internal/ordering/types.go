package ordering

import (
	"github.com/tobiasbaum/reviewtool-sub002/internal/bundle"
	"github.com/tobiasbaum/reviewtool-sub002/internal/position"
)

// MatchSet is a set of items that should appear contiguously. A match set
// with Centers is a star match set; its centers are hinted to lead the group
// and make folds that contain them preferred candidates.
type MatchSet[T comparable] struct {
	Items   bundle.Set[T]
	Centers []T
}

// NewMatchSet returns an unordered match set.
func NewMatchSet[T comparable](items ...T) MatchSet[T] {
	return MatchSet[T]{Items: bundle.NewSet(items...)}
}

// NewStarMatchSet returns a match set of center and items with center as
// its distinguished item.
func NewStarMatchSet[T comparable](center T, items ...T) MatchSet[T] {
	s := bundle.NewSet(items...)
	s[center] = struct{}{}
	return MatchSet[T]{Items: s, Centers: []T{center}}
}

// IsStar reports whether the set has distinguished centers.
func (m MatchSet[T]) IsStar() bool { return len(m.Centers) > 0 }

// PositionRequest asks for Item to take Anchor among the members of Set.
type PositionRequest[T comparable] struct {
	Set    bundle.Set[T]
	Item   T
	Anchor position.Anchor
}

// Match is one result of a relation matcher.
type Match[T comparable] struct {
	Set         MatchSet[T]
	Positions   []PositionRequest[T]
	Explicit    bool
	Description string
}

// Group is a satisfied match. Items is contiguous in the final order; for
// a match satisfied via folding it is the union of the matched set and the
// folds in ViaFolds.
type Group[T comparable] struct {
	Items       bundle.Set[T]
	Matched     bundle.Set[T]
	Description string
	Explicit    bool
	ViaFolds    []bundle.Set[T]
}

// TourElement is a node of the presented tour: a single item, or a named
// group with children in tour order.
type TourElement[T comparable] struct {
	Description string
	Item        T
	Children    []TourElement[T]
}

// IsGroup reports whether e is a named group rather than a single item.
func (e TourElement[T]) IsGroup() bool { return len(e.Children) > 0 }

// Stats counts what happened during one ordering run.
type Stats struct {
	Items              int  `json:"items"`
	MatchSets          int  `json:"matchSets"`
	Direct             int  `json:"satisfiedDirectly"`
	ViaFolding         int  `json:"satisfiedViaFolding"`
	Unsatisfied        int  `json:"unsatisfied"`
	PositionsSatisfied int  `json:"positionsSatisfied"`
	PositionsFailed    int  `json:"positionsFailed"`
	HintsApplied       int  `json:"hintsApplied"`
	FastMode           bool `json:"fastMode"`
}

// Result is the outcome of a complete ordering run.
type Result[T comparable] struct {
	Order              []T
	Tour               []TourElement[T]
	Satisfied          []Group[T]
	Unsatisfied        []Match[T]
	PositionsSatisfied []PositionRequest[T]
	PositionsFailed    []PositionRequest[T]
	Stats              Stats
}
