package bundle

// Set is an unordered collection of items.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding the given items.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports whether v is a member of s.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s Set[T]) Len() int {
	return len(s)
}

// Union returns a new set with the members of s and o.
func (s Set[T]) Union(o Set[T]) Set[T] {
	u := make(Set[T], len(s)+len(o))
	for v := range s {
		u[v] = struct{}{}
	}
	for v := range o {
		u[v] = struct{}{}
	}
	return u
}

// Intersects reports whether s and o share at least one member.
func (s Set[T]) Intersects(o Set[T]) bool {
	a, b := s, o
	if len(a) > len(b) {
		a, b = b, a
	}
	for v := range a {
		if b.Has(v) {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every member of o is in s.
func (s Set[T]) ContainsAll(o Set[T]) bool {
	for v := range o {
		if !s.Has(v) {
			return false
		}
	}
	return true
}

// Equal reports whether s and o have the same members.
func (s Set[T]) Equal(o Set[T]) bool {
	return len(s) == len(o) && s.ContainsAll(o)
}
