package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/timetable/internal/grid"
)

type mapLookup map[grid.CellID]grid.CellRecord

func (m mapLookup) Get(id grid.CellID) (grid.CellRecord, bool) {
	rec, ok := m[id]
	return rec, ok
}

type recordingSink struct {
	rendered []Display
}

func (r *recordingSink) RenderCell(d Display) {
	r.rendered = append(r.rendered, d)
}

func TestDerive(t *testing.T) {
	id := grid.MustCellID(1, 1)
	flagged := grid.CellRecord{}
	flagged.Assignments[3] = true

	tests := []struct {
		name     string
		rec      grid.CellRecord
		present  bool
		editMode bool
		want     State
	}{
		{"absent view", grid.CellRecord{}, false, false, Empty},
		{"absent edit", grid.CellRecord{}, false, true, Empty},
		{"present but empty", grid.CellRecord{}, true, true, Empty},
		{"subject view", grid.CellRecord{Subject: "Math"}, true, false, HasContent},
		{"subject edit", grid.CellRecord{Subject: "Math"}, true, true, HasContent},
		{"assignment only", flagged, true, false, HasContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Derive(id, tt.rec, tt.present, tt.editMode)
			assert.Equal(t, tt.want, d.State)
			assert.Equal(t, tt.editMode, d.Editable)
			assert.Equal(t, id, d.Cell)
		})
	}
}

func TestEditModeDoesNotChangeState(t *testing.T) {
	id := grid.MustCellID(2, 2)
	for _, rec := range []grid.CellRecord{{}, {Room: "A"}} {
		for _, present := range []bool{true, false} {
			a := Derive(id, rec, present, true)
			b := Derive(id, rec, present, false)
			assert.Equal(t, a.State, b.State)
		}
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "empty", Empty.String())
	assert.Equal(t, "has_content", HasContent.String())
	assert.Equal(t, "unknown", State(9).String())

	text, err := HasContent.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "has_content", string(text))
}

func TestSyncRendersOneCell(t *testing.T) {
	cells := mapLookup{grid.MustCellID(3, 4): {Subject: "Art"}}
	sink := &recordingSink{}
	s := Synchronizer{Cells: cells, Sink: sink}

	s.Sync(grid.MustCellID(3, 4), false)

	assert.Len(t, sink.rendered, 1)
	assert.Equal(t, HasContent, sink.rendered[0].State)
	assert.Equal(t, grid.MustCellID(3, 4), sink.rendered[0].Cell)
}

func TestSyncAll(t *testing.T) {
	cells := mapLookup{grid.MustCellID(1, 2): {Subject: "Art"}}
	sink := &recordingSink{}
	s := Synchronizer{Cells: cells, Sink: sink}

	s.SyncAll(true)

	assert.Len(t, sink.rendered, grid.CellCount)
	for i, d := range sink.rendered {
		assert.Equal(t, i, d.Cell.Index())
		assert.True(t, d.Editable)
		if d.Cell == grid.MustCellID(1, 2) {
			assert.Equal(t, HasContent, d.State)
		} else {
			assert.Equal(t, Empty, d.State)
		}
	}
}
