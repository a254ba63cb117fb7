package dupes

import "slices"

// Pair links a duplicate to the original it was matched against.
type Pair struct {
	Duplicate string
	Original  string
}

// Registry maps duplicate paths to the first original they matched, in
// discovery order.
type Registry struct {
	order     []string
	originals map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{originals: map[string]string{}}
}

// Add records dup as a duplicate of orig. It returns false and leaves the
// registry untouched if dup is already recorded or is orig itself.
func (r *Registry) Add(dup, orig string) bool {
	if dup == orig {
		return false
	}
	if _, ok := r.originals[dup]; ok {
		return false
	}
	r.originals[dup] = orig
	r.order = append(r.order, dup)
	return true
}

// Original returns the original recorded for dup.
func (r *Registry) Original(dup string) (string, bool) {
	o, ok := r.originals[dup]
	return o, ok
}

// Contains reports whether path is recorded as a duplicate.
func (r *Registry) Contains(path string) bool {
	_, ok := r.originals[path]
	return ok
}

// Remove drops dup from the registry, marking it as an original. It reports
// whether dup was present.
func (r *Registry) Remove(dup string) bool {
	if _, ok := r.originals[dup]; !ok {
		return false
	}
	delete(r.originals, dup)
	r.order = slices.DeleteFunc(r.order, func(p string) bool { return p == dup })
	return true
}

// Len returns the number of duplicates.
func (r *Registry) Len() int { return len(r.order) }

// Pairs returns all duplicate/original pairs in discovery order.
func (r *Registry) Pairs() []Pair {
	ps := make([]Pair, 0, len(r.order))
	for _, d := range r.order {
		ps = append(ps, Pair{Duplicate: d, Original: r.originals[d]})
	}
	return ps
}

// Clear empties the registry.
func (r *Registry) Clear() {
	r.order = nil
	r.originals = map[string]string{}
}
