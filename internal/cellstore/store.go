// Package cellstore holds the committed timetable cells in memory.
//
// The Store is the single mutation boundary for cell records: Put refuses to
// keep a record that is not meaningful and removes the slot instead. Every
// other mutation funnels through Put so the invariant is checked in one place.
package cellstore

import (
	"errors"
	"fmt"

	"github.com/roach88/timetable/internal/grid"
)

// ErrIndexOutOfRange is returned for checklist indexes outside [0, AssignmentCount).
var ErrIndexOutOfRange = errors.New("assignment index out of range")

// Store maps cell identifiers to committed records.
// It is not safe for concurrent use; the owning core serializes access.
type Store struct {
	cells map[grid.CellID]grid.CellRecord
}

// New returns an empty store.
func New() *Store {
	return &Store{cells: make(map[grid.CellID]grid.CellRecord)}
}

// FromSnapshot returns a store seeded with a copy of snap.
// Invalid identifiers and non-meaningful records are dropped.
func FromSnapshot(snap grid.Snapshot) *Store {
	s := New()
	s.Replace(snap)
	return s
}

// Get returns the record for id. The boolean is false for an empty slot.
func (s *Store) Get(id grid.CellID) (grid.CellRecord, bool) {
	rec, ok := s.cells[id]
	return rec, ok
}

// Put inserts or replaces the record for id. A record that is not meaningful
// removes the slot instead of being stored.
func (s *Store) Put(id grid.CellID, rec grid.CellRecord) error {
	if !id.Valid() {
		return fmt.Errorf("put: %w: %s", grid.ErrInvalidCell, id)
	}
	if !rec.Meaningful() {
		delete(s.cells, id)
		return nil
	}
	s.cells[id] = rec
	return nil
}

// Remove deletes the record for id. Removing an empty slot is a no-op.
func (s *Store) Remove(id grid.CellID) error {
	if !id.Valid() {
		return fmt.Errorf("remove: %w: %s", grid.ErrInvalidCell, id)
	}
	delete(s.cells, id)
	return nil
}

// SetAssignmentFlag sets checklist entry index of id to value.
//
// The record is read or created, updated and written back through Put, so a
// toggle that leaves a cell with nothing meaningful removes it. This path does
// not consult edit mode.
func (s *Store) SetAssignmentFlag(id grid.CellID, index int, value bool) error {
	if !id.Valid() {
		return fmt.Errorf("set assignment: %w: %s", grid.ErrInvalidCell, id)
	}
	if index < 0 || index >= grid.AssignmentCount {
		return fmt.Errorf("set assignment: %w: %d", ErrIndexOutOfRange, index)
	}
	rec := s.cells[id]
	rec.Assignments[index] = value
	return s.Put(id, rec)
}

// ToggleAssignmentFlag flips checklist entry index of id and returns the new value.
func (s *Store) ToggleAssignmentFlag(id grid.CellID, index int) (bool, error) {
	if index < 0 || index >= grid.AssignmentCount {
		return false, fmt.Errorf("toggle assignment: %w: %d", ErrIndexOutOfRange, index)
	}
	next := !s.cells[id].Assignments[index]
	if err := s.SetAssignmentFlag(id, index, next); err != nil {
		return false, err
	}
	return next, nil
}

// IsEmpty reports whether no cell holds a record.
func (s *Store) IsEmpty() bool {
	return len(s.cells) == 0
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.cells)
}

// Snapshot returns an independent copy of all stored records.
func (s *Store) Snapshot() grid.Snapshot {
	return grid.Snapshot(s.cells).Clone()
}

// Replace discards the current contents and loads snap.
func (s *Store) Replace(snap grid.Snapshot) {
	s.cells = make(map[grid.CellID]grid.CellRecord, len(snap))
	for id, rec := range snap {
		// Put only fails for invalid ids, which are skipped.
		_ = s.Put(id, rec)
	}
}

// Clear removes every record.
func (s *Store) Clear() {
	s.cells = make(map[grid.CellID]grid.CellRecord)
}
