package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timetable/internal/cellstore"
	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/kv"
	"github.com/roach88/timetable/internal/persist"
	"github.com/roach88/timetable/internal/session"
	"github.com/roach88/timetable/internal/testutil"
	"github.com/roach88/timetable/internal/view"
)

type fixture struct {
	tt      *Timetable
	mem     *kv.Memory
	surface *testutil.RecordingSurface
	confirm *testutil.ScriptedConfirmer
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newFixture builds a Timetable over mem (a fresh store when nil).
func newFixture(t *testing.T, mem *kv.Memory) *fixture {
	t.Helper()
	if mem == nil {
		mem = kv.NewMemory()
	}
	g, err := persist.New(mem, discardLogger)
	require.NoError(t, err)

	f := &fixture{
		mem:     mem,
		surface: testutil.NewRecordingSurface(),
		confirm: testutil.NewScriptedConfirmer(),
	}
	f.tt, err = New(context.Background(), Options{
		Persister: g,
		Surface:   f.surface,
		Confirmer: f.confirm,
		Logger:    discardLogger,
		IDs:       session.NewSequenceGenerator("s"),
	})
	require.NoError(t, err)
	return f
}

// reload builds a second Timetable over the same byte store.
func (f *fixture) reload(t *testing.T) *fixture {
	t.Helper()
	return newFixture(t, f.mem)
}

var (
	r1c1 = grid.MustCellID(1, 1)
	r2c3 = grid.MustCellID(2, 3)
	r4c2 = grid.MustCellID(4, 2)
)

func TestNewRequiresPersister(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestStartupOrder(t *testing.T) {
	f := newFixture(t, nil)

	events := f.surface.Events()
	require.Len(t, events, 1+grid.CellCount)
	assert.Equal(t, testutil.EventBackground, events[0].Kind, "preferences are applied before cells render")
	assert.Equal(t, "#ffffff", events[0].Color)
	for i, e := range events[1:] {
		assert.Equal(t, testutil.EventRender, e.Kind)
		assert.Equal(t, i, e.Display.Cell.Index())
		assert.Equal(t, view.Empty, e.Display.State)
	}
}

func TestEmptyStoreDefaultsToEditMode(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, f.tt.EditModeEnabled())
	assert.True(t, f.surface.Cell(r1c1).Editable)
}

func TestNonEmptyStoreDefaultsToViewMode(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.tt.ToggleAssignment(context.Background(), r1c1, 0)
	require.NoError(t, err)

	again := f.reload(t)
	assert.False(t, again.tt.EditModeEnabled())
	assert.Equal(t, view.HasContent, again.surface.Cell(r1c1).State)
}

func TestScenarioOpenSetSubjectCommit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.True(t, f.tt.EditModeEnabled())

	require.NoError(t, f.tt.OpenCell(r1c1))
	assert.Equal(t, session.OpenEdit, f.tt.Session().State)
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Math"}))
	require.NoError(t, f.tt.Commit(ctx))

	rec, ok := f.tt.Cell(r1c1)
	require.True(t, ok)
	assert.Equal(t, "Math", rec.Subject)
	assert.Equal(t, view.HasContent, f.tt.Display(r1c1).State)
	assert.Equal(t, view.HasContent, f.surface.Cell(r1c1).State)
	assert.Equal(t, session.Closed, f.tt.Session().State)

	// Survives a reload.
	again := f.reload(t)
	rec, ok = again.tt.Cell(r1c1)
	require.True(t, ok)
	assert.Equal(t, "Math", rec.Subject)
}

func TestScenarioViewModeToggleIsPersisted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.tt.SetEditModeEnabled(false)

	require.NoError(t, f.tt.OpenCell(r2c3))
	assert.Equal(t, session.OpenView, f.tt.Session().State)
	assert.ErrorIs(t, f.tt.StageFields(session.Fields{Subject: "x"}), session.ErrReadOnly)

	value, err := f.tt.ToggleAssignment(ctx, r2c3, 4)
	require.NoError(t, err)
	assert.True(t, value)
	assert.True(t, f.tt.Session().Assignments[4], "open session mirrors the live checklist")

	// Persisted before any close or commit.
	raw, ok, err := f.mem.Get(ctx, persist.CellsKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"r2-c3":{"assignments":[false,false,false,false,true`)

	f.tt.Close()

	for _, editMode := range []bool{true, false} {
		again := f.reload(t)
		again.tt.SetEditModeEnabled(editMode)
		require.NoError(t, again.tt.OpenCell(r2c3))
		assert.True(t, again.tt.Session().Assignments[4])
	}
}

func TestScenarioClearingFieldsRemovesCell(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.OpenCell(r4c2))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Art"}))
	require.NoError(t, f.tt.Commit(ctx))
	_, ok := f.tt.Cell(r4c2)
	require.True(t, ok)

	f.tt.SetEditModeEnabled(true)
	require.NoError(t, f.tt.OpenCell(r4c2))
	assert.Equal(t, "Art", f.tt.Session().Fields.Subject)
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "   "}))
	require.NoError(t, f.tt.Commit(ctx))

	_, ok = f.tt.Cell(r4c2)
	assert.False(t, ok, "a commit with nothing meaningful removes the cell")
	assert.Equal(t, view.Empty, f.surface.Cell(r4c2).State)

	raw, _, err := f.mem.Get(ctx, persist.CellsKey)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestCommitTrimsFields(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: " Math ", Room: "\tA101", Time: "9:00\n"}))
	require.NoError(t, f.tt.Commit(context.Background()))

	rec, _ := f.tt.Cell(r1c1)
	assert.Equal(t, grid.CellRecord{Subject: "Math", Room: "A101", Time: "9:00"}, rec)
}

func TestCommittedTextSurvivesReload(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	r3c4 := grid.MustCellID(3, 4)

	want := map[grid.CellID]string{
		r1c1: "Math",
		r2c3: "\u304b\u3099",
		r3c4: "\ufeffHistory",
	}
	for id, subject := range want {
		require.NoError(t, f.tt.OpenCell(id))
		require.NoError(t, f.tt.StageFields(session.Fields{Subject: subject}))
		require.NoError(t, f.tt.Commit(ctx))
	}
	require.NoError(t, f.tt.LastSaveError())

	again := f.reload(t)
	assert.False(t, again.tt.EditModeEnabled(), "stored cells must load, so the timetable opens in view mode")
	assert.Len(t, again.tt.Snapshot(), len(want))
	for id, subject := range want {
		rec, ok := again.tt.Cell(id)
		require.True(t, ok, id.String())
		assert.Equal(t, subject, rec.Subject, id.String())
	}
}

func TestStagedEditsDoNotTouchStore(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Math"}))
	require.NoError(t, f.tt.Commit(ctx))

	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Changed"}))

	rec, _ := f.tt.Cell(r1c1)
	assert.Equal(t, "Math", rec.Subject, "staged edits stay in the session until commit")

	f.tt.Close()
	rec, _ = f.tt.Cell(r1c1)
	assert.Equal(t, "Math", rec.Subject, "close discards staged edits")
}

func TestCloseKeepsToggles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Dropped"}))
	_, err := f.tt.ToggleAssignment(ctx, r1c1, 2)
	require.NoError(t, err)
	f.tt.Close()

	rec, ok := f.tt.Cell(r1c1)
	require.True(t, ok)
	assert.True(t, rec.Assignments[2])
	assert.Equal(t, "", rec.Subject)
}

func TestCommitIncludesToggledChecklist(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.OpenCell(r1c1))
	_, err := f.tt.ToggleAssignment(ctx, r1c1, 7)
	require.NoError(t, err)
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Math"}))
	require.NoError(t, f.tt.Commit(ctx))

	rec, _ := f.tt.Cell(r1c1)
	assert.Equal(t, "Math", rec.Subject)
	assert.True(t, rec.Assignments[7])
}

func TestOpenSecondCellDiscardsFirst(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Lost"}))
	require.NoError(t, f.tt.OpenCell(r2c3))

	v := f.tt.Session()
	assert.Equal(t, "r2-c3", v.Cell)
	assert.Equal(t, "s-2", v.ID)
	assert.Equal(t, "", v.Fields.Subject)

	require.NoError(t, f.tt.Commit(ctx))
	_, ok := f.tt.Cell(r1c1)
	assert.False(t, ok)
}

func TestOpenInvalidCell(t *testing.T) {
	f := newFixture(t, nil)
	err := f.tt.OpenCell(grid.CellID{Period: 0, Day: 3})
	assert.ErrorIs(t, err, grid.ErrInvalidCell)
	assert.Equal(t, session.Closed, f.tt.Session().State)
}

func TestOperationsWithoutOpenCell(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, f.tt.StageFields(session.Fields{}), ErrNoOpenCell)
	assert.ErrorIs(t, f.tt.Commit(ctx), ErrNoOpenCell)
	_, err := f.tt.DeleteCurrent(ctx)
	assert.ErrorIs(t, err, ErrNoOpenCell)

	// Close with nothing open is a no-op.
	f.surface.Reset()
	f.tt.Close()
	assert.Empty(t, f.surface.Events())
}

func TestViewModeCannotCommitOrDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.tt.SetEditModeEnabled(false)

	require.NoError(t, f.tt.OpenCell(r1c1))
	assert.ErrorIs(t, f.tt.Commit(ctx), session.ErrReadOnly)
	_, err := f.tt.DeleteCurrent(ctx)
	assert.ErrorIs(t, err, session.ErrReadOnly)
	assert.Empty(t, f.confirm.Prompts(), "no prompt for a delete that is not allowed")
	assert.Equal(t, session.OpenView, f.tt.Session().State)
}

func TestDeleteCurrent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Math"}))
	require.NoError(t, f.tt.Commit(ctx))

	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Edited"}))

	f.confirm.Push(true)
	f.surface.Reset()
	deleted, err := f.tt.DeleteCurrent(ctx)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok := f.tt.Cell(r1c1)
	assert.False(t, ok)
	assert.Equal(t, session.Closed, f.tt.Session().State)
	assert.Equal(t, []string{PromptDelete}, f.confirm.Prompts())
	assert.Equal(t, 1, f.surface.Count(testutil.EventRender))
	assert.Equal(t, view.Empty, f.surface.Cell(r1c1).State)

	again := f.reload(t)
	_, ok = again.tt.Cell(r1c1)
	assert.False(t, ok)
}

func TestDeleteDeclined(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Math"}))
	require.NoError(t, f.tt.Commit(ctx))
	require.NoError(t, f.tt.OpenCell(r1c1))

	f.confirm.Push(false)
	writes, _ := f.mem.WriteSeq(ctx)
	deleted, err := f.tt.DeleteCurrent(ctx)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, ok := f.tt.Cell(r1c1)
	assert.True(t, ok)
	assert.Equal(t, session.OpenEdit, f.tt.Session().State, "declining keeps the session open")
	after, _ := f.mem.WriteSeq(ctx)
	assert.Equal(t, writes, after, "declining writes nothing")
}

func TestRenderCounts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	t.Run("commit renders one cell", func(t *testing.T) {
		require.NoError(t, f.tt.OpenCell(r1c1))
		require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Math"}))
		f.surface.Reset()
		require.NoError(t, f.tt.Commit(ctx))
		renders := f.surface.Renders()
		require.Len(t, renders, 1)
		assert.Equal(t, r1c1, renders[0].Cell)
	})

	t.Run("toggle renders one cell", func(t *testing.T) {
		f.surface.Reset()
		_, err := f.tt.ToggleAssignment(ctx, r2c3, 0)
		require.NoError(t, err)
		renders := f.surface.Renders()
		require.Len(t, renders, 1)
		assert.Equal(t, r2c3, renders[0].Cell)
	})

	t.Run("open and close render nothing", func(t *testing.T) {
		f.surface.Reset()
		require.NoError(t, f.tt.OpenCell(r4c2))
		f.tt.Close()
		assert.Equal(t, 0, f.surface.Count(testutil.EventRender))
		assert.Equal(t, 1, f.surface.Count(testutil.EventShow))
		assert.Equal(t, 1, f.surface.Count(testutil.EventHide))
	})

	t.Run("edit mode change renders all cells", func(t *testing.T) {
		f.surface.Reset()
		f.tt.SetEditModeEnabled(!f.tt.EditModeEnabled())
		assert.Equal(t, grid.CellCount, f.surface.Count(testutil.EventRender))

		f.surface.Reset()
		f.tt.SetEditModeEnabled(f.tt.EditModeEnabled())
		assert.Equal(t, 0, f.surface.Count(testutil.EventRender), "unchanged flag is a no-op")
	})
}

func TestEditModeToggleAffectsNextOpenOnly(t *testing.T) {
	f := newFixture(t, nil)
	require.True(t, f.tt.EditModeEnabled())

	require.NoError(t, f.tt.OpenCell(r1c1))
	f.tt.SetEditModeEnabled(false)
	assert.Equal(t, session.OpenEdit, f.tt.Session().State, "open session keeps its mode")

	require.NoError(t, f.tt.OpenCell(r2c3))
	assert.Equal(t, session.OpenView, f.tt.Session().State)
	assert.False(t, f.surface.Cell(r1c1).Editable)
}

func TestToggleTwiceRestoresState(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.tt.ToggleAssignment(ctx, r4c2, 9)
	require.NoError(t, err)
	_, ok := f.tt.Cell(r4c2)
	assert.True(t, ok)

	_, err = f.tt.ToggleAssignment(ctx, r4c2, 9)
	require.NoError(t, err)
	_, ok = f.tt.Cell(r4c2)
	assert.False(t, ok)
	assert.Equal(t, view.Empty, f.surface.Cell(r4c2).State)
}

func TestSetAssignment(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.SetAssignment(ctx, r1c1, 14, true))
	rec, ok := f.tt.Cell(r1c1)
	require.True(t, ok)
	assert.True(t, rec.Assignments[14])

	require.NoError(t, f.tt.SetAssignment(ctx, r1c1, 14, false))
	_, ok = f.tt.Cell(r1c1)
	assert.False(t, ok)

	assert.ErrorIs(t, f.tt.SetAssignment(ctx, r1c1, 15, true), cellstore.ErrIndexOutOfRange)
	_, err := f.tt.ToggleAssignment(ctx, grid.CellID{Period: 9, Day: 9}, 0)
	assert.ErrorIs(t, err, grid.ErrInvalidCell)
}

func TestSetBackgroundColor(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.SetBackgroundColor(ctx, "#AABBCC"))
	assert.Equal(t, "#aabbcc", f.tt.Preferences().BackgroundColor)
	assert.Equal(t, "#aabbcc", f.surface.Background())

	raw, _, err := f.mem.Get(ctx, persist.PreferencesKey)
	require.NoError(t, err)
	assert.Equal(t, `{"backgroundColor":"#aabbcc"}`, string(raw))

	err = f.tt.SetBackgroundColor(ctx, "blue")
	assert.ErrorIs(t, err, grid.ErrInvalidColor)
	assert.Equal(t, "#aabbcc", f.tt.Preferences().BackgroundColor)

	again := f.reload(t)
	assert.Equal(t, "#aabbcc", again.surface.Background())
}

func TestClearAll(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.tt.SetBackgroundColor(ctx, "#000000"))
	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Math"}))
	require.NoError(t, f.tt.Commit(ctx))
	_, err := f.tt.ToggleAssignment(ctx, r2c3, 1)
	require.NoError(t, err)
	require.NoError(t, f.tt.OpenCell(r4c2))

	f.confirm.Push(true)
	f.surface.Reset()
	cleared, err := f.tt.ClearAll(ctx)
	require.NoError(t, err)
	assert.True(t, cleared)

	assert.Empty(t, f.tt.Snapshot())
	assert.Equal(t, grid.DefaultPreferences(), f.tt.Preferences())
	assert.Equal(t, session.Closed, f.tt.Session().State)
	assert.Equal(t, grid.CellCount, f.surface.Count(testutil.EventRender))
	assert.Equal(t, "#ffffff", f.surface.Background())

	cells, _, err := f.mem.Get(ctx, persist.CellsKey)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(cells))
	prefs, _, err := f.mem.Get(ctx, persist.PreferencesKey)
	require.NoError(t, err)
	assert.Equal(t, `{"backgroundColor":"#ffffff"}`, string(prefs))

	again := f.reload(t)
	assert.Empty(t, again.tt.Snapshot())
	assert.Equal(t, grid.DefaultPreferences(), again.tt.Preferences())
	assert.True(t, again.tt.EditModeEnabled())
}

func TestClearAllDeclined(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.tt.ToggleAssignment(ctx, r1c1, 0)
	require.NoError(t, err)

	cleared, err := f.tt.ClearAll(ctx)
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Len(t, f.tt.Snapshot(), 1)
	assert.Equal(t, []string{PromptClearAll}, f.confirm.Prompts())
}

func TestDefaultConfirmerDeclines(t *testing.T) {
	g, err := persist.New(kv.NewMemory(), discardLogger)
	require.NoError(t, err)
	tt, err := New(context.Background(), Options{Persister: g, Logger: discardLogger})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = tt.ToggleAssignment(ctx, r1c1, 0)
	require.NoError(t, err)

	cleared, err := tt.ClearAll(ctx)
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Len(t, tt.Snapshot(), 1)
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	mem := kv.NewMemory(kv.WithQuota(64))
	f := newFixture(t, mem)
	ctx := context.Background()

	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Math"}))
	require.NoError(t, f.tt.Commit(ctx), "write failures do not abort the operation")

	assert.ErrorIs(t, f.tt.LastSaveError(), kv.ErrQuotaExceeded)
	rec, ok := f.tt.Cell(r1c1)
	require.True(t, ok, "memory stays authoritative")
	assert.Equal(t, "Math", rec.Subject)
	assert.Equal(t, view.HasContent, f.surface.Cell(r1c1).State)

	// Nothing reached the byte store.
	again := f.reload(t)
	assert.Empty(t, again.tt.Snapshot())
}

func TestWriteFailureRecovers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.mem.FailWrites(errors.New("disk full"))
	_, err := f.tt.ToggleAssignment(ctx, r1c1, 0)
	require.NoError(t, err)
	assert.Error(t, f.tt.LastSaveError())

	f.mem.FailWrites(nil)
	_, err = f.tt.ToggleAssignment(ctx, r1c1, 1)
	require.NoError(t, err)
	assert.NoError(t, f.tt.LastSaveError())

	// The next successful write carries the earlier change too.
	again := f.reload(t)
	rec, ok := again.tt.Cell(r1c1)
	require.True(t, ok)
	assert.True(t, rec.Assignments[0])
	assert.True(t, rec.Assignments[1])
}

func TestCorruptStorageStartsFresh(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, persist.CellsKey, []byte("{not json")))
	require.NoError(t, mem.Set(ctx, persist.PreferencesKey, []byte(`{"backgroundColor":"nope"}`)))

	f := newFixture(t, mem)
	assert.Empty(t, f.tt.Snapshot())
	assert.True(t, f.tt.EditModeEnabled())
	assert.Equal(t, "#ffffff", f.tt.Preferences().BackgroundColor)
}

func TestDisplayHidesFieldValues(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.tt.OpenCell(r1c1))
	require.NoError(t, f.tt.StageFields(session.Fields{Subject: "Secret"}))
	require.NoError(t, f.tt.Commit(context.Background()))

	d := f.tt.Display(r1c1)
	assert.Equal(t, view.Display{Cell: r1c1, State: view.HasContent, Editable: true}, d)
}
