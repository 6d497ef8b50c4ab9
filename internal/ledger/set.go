package ledger

// Set is an insertion-ordered collection of definitions with unique names.
// The zero value is not usable; create one with NewSet.
type Set struct {
	seen map[string]struct{}
	defs []Definition
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add appends def unless a definition with the same name is already present.
// It reports whether def was added.
func (s *Set) Add(def Definition) bool {
	if _, ok := s.seen[def.Name]; ok {
		return false
	}
	s.seen[def.Name] = struct{}{}
	s.defs = append(s.defs, def)
	return true
}

// Contains reports whether a ledger named name is present.
func (s *Set) Contains(name string) bool {
	_, ok := s.seen[name]
	return ok
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	return len(s.defs)
}

// Definitions returns a copy of the definitions in first-seen order.
func (s *Set) Definitions() []Definition {
	out := make([]Definition, len(s.defs))
	copy(out, s.defs)
	return out
}

// CountByKind returns how many definitions of each kind the set holds.
func (s *Set) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, d := range s.defs {
		counts[d.Kind]++
	}
	return counts
}
