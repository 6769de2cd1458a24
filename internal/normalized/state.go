// Package normalized provides an ordered ID list plus an ID→entity map.
// Order defines iteration and display; the map defines existence and content.
package normalized

import (
	"iter"
	"slices"
)

// State holds entities of type T keyed by ID with a separate display order.
type State[T any] struct {
	AllIDs []string      `json:"allIds"`
	ByID   map[string]*T `json:"byId"`
}

// New creates an empty state.
func New[T any]() *State[T] {
	return &State[T]{
		AllIDs: []string{},
		ByID:   make(map[string]*T),
	}
}

// FromSeed creates a state holding seed in the given order.
func FromSeed[T any](seed []*T, getID func(*T) string) *State[T] {
	s := &State[T]{
		AllIDs: make([]string, 0, len(seed)),
		ByID:   make(map[string]*T, len(seed)),
	}
	for _, item := range seed {
		s.Append(getID(item), item)
	}
	return s
}

// Len returns the number of entities.
func (s *State[T]) Len() int {
	return len(s.AllIDs)
}

// Get returns the entity with the given ID.
func (s *State[T]) Get(id string) (*T, bool) {
	v, ok := s.ByID[id]
	return v, ok
}

// Has reports whether an entity with the given ID exists.
func (s *State[T]) Has(id string) bool {
	_, ok := s.ByID[id]
	return ok
}

// Prepend inserts an entity at the front of the order.
// An existing entity with the same ID is replaced and moved to the front.
func (s *State[T]) Prepend(id string, v *T) {
	if s.Has(id) {
		s.removeFromOrder(id)
	}
	s.AllIDs = slices.Insert(s.AllIDs, 0, id)
	s.ByID[id] = v
}

// Append inserts an entity at the end of the order.
// An existing entity with the same ID is replaced and moved to the end.
func (s *State[T]) Append(id string, v *T) {
	if s.Has(id) {
		s.removeFromOrder(id)
	}
	s.AllIDs = append(s.AllIDs, id)
	s.ByID[id] = v
}

// Replace swaps the content of an existing entity without touching the order.
// Returns false when no entity has the ID.
func (s *State[T]) Replace(id string, v *T) bool {
	if !s.Has(id) {
		return false
	}
	s.ByID[id] = v
	return true
}

// Delete removes an entity. Returns false when no entity has the ID.
func (s *State[T]) Delete(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.ByID, id)
	s.removeFromOrder(id)
	return true
}

// All iterates entities in display order.
func (s *State[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, id := range s.AllIDs {
			v, ok := s.ByID[id]
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Array returns entities in display order.
func (s *State[T]) Array() []*T {
	return slices.Collect(s.All())
}

// SortFunc reorders the ID list by cmp. Content is untouched.
func (s *State[T]) SortFunc(cmp func(a, b *T) int) {
	slices.SortStableFunc(s.AllIDs, func(a, b string) int {
		return cmp(s.ByID[a], s.ByID[b])
	})
}

// Clone returns a copy of the state where each entity is copied with cloneFn.
func (s *State[T]) Clone(cloneFn func(*T) *T) *State[T] {
	c := &State[T]{
		AllIDs: slices.Clone(s.AllIDs),
		ByID:   make(map[string]*T, len(s.ByID)),
	}
	for id, v := range s.ByID {
		c.ByID[id] = cloneFn(v)
	}
	return c
}

func (s *State[T]) removeFromOrder(id string) {
	if i := slices.Index(s.AllIDs, id); i >= 0 {
		s.AllIDs = slices.Delete(s.AllIDs, i, i+1)
	}
}
