// Package pathstore holds strokes keyed by id in insertion order.
//
// A board keeps two stores, live and removed. A stroke moves between them
// with Transfer and is never dropped, which is what makes erasure
// undoable.
package pathstore

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inkboard/inkboard/backend-go/internal/document"
)

var (
	ErrNotFound  = errors.New("stroke not found")
	ErrDuplicate = errors.New("stroke already present")
)

// Store is an insertion-ordered map from stroke id to stroke.
// The zero value is not usable; call New.
type Store struct {
	order   []document.StrokeID
	strokes map[document.StrokeID]document.Stroke
}

// New creates an empty store.
func New() *Store {
	return &Store{strokes: make(map[document.StrokeID]document.Stroke)}
}

// Set inserts or replaces the stroke for id. A replaced entry keeps its
// position in the iteration order.
func (s *Store) Set(id document.StrokeID, stroke document.Stroke) {
	if _, ok := s.strokes[id]; !ok {
		s.order = append(s.order, id)
	}
	s.strokes[id] = stroke
}

// Get returns the stroke for id.
func (s *Store) Get(id document.StrokeID) (document.Stroke, bool) {
	stroke, ok := s.strokes[id]
	return stroke, ok
}

// Has reports whether id is in the store.
func (s *Store) Has(id document.StrokeID) bool {
	_, ok := s.strokes[id]
	return ok
}

// Delete removes id and reports whether it was present.
func (s *Store) Delete(id document.StrokeID) bool {
	if _, ok := s.strokes[id]; !ok {
		return false
	}
	delete(s.strokes, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

// Len returns the number of strokes.
func (s *Store) Len() int {
	return len(s.order)
}

// Keys returns the ids in insertion order.
func (s *Store) Keys() []document.StrokeID {
	return slices.Clone(s.order)
}

// Values returns the strokes in insertion order.
func (s *Store) Values() []document.Stroke {
	out := make([]document.Stroke, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.strokes[id])
	}
	return out
}

// ForEach calls fn for every entry in insertion order.
// fn may Delete or Transfer the entry it is given; iteration works on a
// snapshot of the keys taken before the first call.
func (s *Store) ForEach(fn func(id document.StrokeID, stroke document.Stroke)) {
	for _, id := range s.Keys() {
		stroke, ok := s.strokes[id]
		if !ok {
			continue
		}
		fn(id, stroke)
	}
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.order = nil
	clear(s.strokes)
}

// MapValues returns a new store with every stroke replaced by fn(stroke).
// Keys and their order are unchanged.
func (s *Store) MapValues(fn func(document.Stroke) document.Stroke) *Store {
	out := &Store{
		order:   slices.Clone(s.order),
		strokes: make(map[document.StrokeID]document.Stroke, len(s.strokes)),
	}
	for _, id := range s.order {
		out.strokes[id] = fn(s.strokes[id])
	}
	return out
}

// Merge returns a new store holding the entries of s followed by those of
// other. When both hold the same id, other's value wins and the id keeps
// the position it had in s.
func (s *Store) Merge(other *Store) *Store {
	out := &Store{strokes: make(map[document.StrokeID]document.Stroke, s.Len()+other.Len())}
	for _, id := range s.order {
		out.Set(id, s.strokes[id])
	}
	for _, id := range other.order {
		out.Set(id, other.strokes[id])
	}
	return out
}

// Transfer moves id, with its current value, from s into dst.
// Both stores are left untouched if id is missing from s or already in
// dst.
func (s *Store) Transfer(id document.StrokeID, dst *Store) error {
	stroke, ok := s.strokes[id]
	if !ok {
		return fmt.Errorf("transfer %d: %w", id, ErrNotFound)
	}
	if dst.Has(id) {
		return fmt.Errorf("transfer %d: %w", id, ErrDuplicate)
	}
	s.Delete(id)
	dst.Set(id, stroke)
	return nil
}
