// Package view derives what each grid cell shows.
//
// The grid face communicates occupancy only: a cell is either Empty or
// HasContent. Field values never appear in a Display; they are revealed only
// inside an open edit session. Derivation is a pure function of the stored
// record and the edit-mode flag, so a Synchronizer keeps no state between
// renders.
package view

import "github.com/roach88/timetable/internal/grid"

// State is the occupancy shown on the grid face.
type State int

const (
	// Empty shows the add-content affordance.
	Empty State = iota
	// HasContent shows the generic content indicator.
	HasContent
)

// String returns the state name used in traces and JSON output.
func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case HasContent:
		return "has_content"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Display is the derived state of one cell.
type Display struct {
	Cell  grid.CellID `json:"-"`
	State State       `json:"state"`

	// Editable mirrors the global edit-mode flag. It is a styling hint only
	// and never changes State.
	Editable bool `json:"editable"`
}

// Derive computes the display of one cell. present is false for an empty
// slot; a record that is not meaningful is treated as absent as well.
func Derive(id grid.CellID, rec grid.CellRecord, present bool, editMode bool) Display {
	d := Display{Cell: id, State: Empty, Editable: editMode}
	if present && rec.Meaningful() {
		d.State = HasContent
	}
	return d
}

// Lookup reads committed records. cellstore.Store satisfies it.
type Lookup interface {
	Get(id grid.CellID) (grid.CellRecord, bool)
}

// Sink receives derived displays. It is implemented by rendering surfaces.
type Sink interface {
	RenderCell(d Display)
}

// Synchronizer pushes derived displays to a Sink.
type Synchronizer struct {
	Cells Lookup
	Sink  Sink
}

// Sync renders exactly one cell.
func (s Synchronizer) Sync(id grid.CellID, editMode bool) {
	rec, ok := s.Cells.Get(id)
	s.Sink.RenderCell(Derive(id, rec, ok, editMode))
}

// SyncAll renders every cell of the grid in key-space order.
func (s Synchronizer) SyncAll(editMode bool) {
	for _, id := range grid.AllCellIDs() {
		s.Sync(id, editMode)
	}
}
