package sets

// Set is a simple generic hash set for comparable keys.
// The export-signature diff in the decision engine is its main consumer:
// membership checks drive added/removed classification while the signature
// slices themselves keep encounter order for diagnostics.
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Equal reports whether s and other hold the same members.
func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// Diff returns the members of s absent from other, in unspecified order.
func (s Set[T]) Diff(other Set[T]) []T {
	var out []T
	for k := range s {
		if !other.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
