// Package store provides the in-memory entity stores the fold loop
// mutates and the per-event changelog that makes those mutations atomic
// with respect to persistence.
package store

// Keyed is a map-backed entity store with the load-or-create access
// pattern the handlers rely on.
type Keyed[K comparable, V any] struct {
	entries map[K]V
}

func NewKeyed[K comparable, V any]() *Keyed[K, V] {
	return &Keyed[K, V]{entries: make(map[K]V)}
}

func (s *Keyed[K, V]) Get(key K) (V, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// GetOrCreate returns the stored value for key, or stores and returns
// the result of create. The second return reports whether the value
// already existed.
func (s *Keyed[K, V]) GetOrCreate(key K, create func() V) (V, bool) {
	if v, ok := s.entries[key]; ok {
		return v, true
	}
	v := create()
	s.entries[key] = v
	return v, false
}

func (s *Keyed[K, V]) Put(key K, value V) {
	s.entries[key] = value
}

func (s *Keyed[K, V]) Delete(key K) {
	delete(s.entries, key)
}

func (s *Keyed[K, V]) Len() int {
	return len(s.entries)
}

// Range calls fn for each entry until fn returns false. Iteration order
// is unspecified; callers needing determinism must sort outside.
func (s *Keyed[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range s.entries {
		if !fn(k, v) {
			return
		}
	}
}
