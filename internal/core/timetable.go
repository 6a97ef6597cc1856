package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/timetable/internal/cellstore"
	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/session"
	"github.com/roach88/timetable/internal/view"
)

// ErrNoOpenCell is returned by session operations when no cell is open.
var ErrNoOpenCell = errors.New("no cell is open")

// Confirmation prompts.
const (
	PromptDelete   = "Delete this cell?"
	PromptClearAll = "Erase all saved timetable data?"
)

// Options configures a Timetable.
type Options struct {
	// Persister loads and saves state. Required.
	Persister Persister

	// Surface receives render callbacks. Nil discards them.
	Surface Surface

	// Confirmer approves destructive actions. Nil declines every prompt.
	Confirmer Confirmer

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// IDs generates session identifiers. Defaults to UUIDv7.
	IDs session.IDGenerator
}

// Timetable is the editor core.
type Timetable struct {
	mu sync.Mutex

	persist Persister
	surface Surface
	confirm Confirmer
	logger  *slog.Logger
	ids     session.IDGenerator

	cells    *cellstore.Store
	sync     view.Synchronizer
	sess     session.Session
	prefs    grid.Preferences
	editMode bool

	lastSaveErr error
}

// New loads persisted state and renders the initial grid.
func New(ctx context.Context, opts Options) (*Timetable, error) {
	if opts.Persister == nil {
		return nil, fmt.Errorf("core: persister is required")
	}
	t := &Timetable{
		persist: opts.Persister,
		surface: opts.Surface,
		confirm: opts.Confirmer,
		logger:  opts.Logger,
		ids:     opts.IDs,
	}
	if t.surface == nil {
		t.surface = nopSurface{}
	}
	if t.confirm == nil {
		t.confirm = declineAll
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.ids == nil {
		t.ids = session.UUIDv7Generator{}
	}
	t.logger = t.logger.With("component", "core")

	t.prefs = t.persist.LoadPreferences(ctx)
	t.surface.ApplyBackground(t.prefs.BackgroundColor)

	t.cells = cellstore.FromSnapshot(t.persist.LoadCells(ctx))
	t.sync = view.Synchronizer{Cells: t.cells, Sink: t.surface}

	// First-time users start in edit mode so they are guided into filling cells.
	t.editMode = t.cells.IsEmpty()

	t.sync.SyncAll(t.editMode)

	t.logger.Info("timetable ready",
		"cells", t.cells.Len(),
		"edit_mode", t.editMode,
		"background", t.prefs.BackgroundColor,
	)
	return t, nil
}

// OpenCell opens id in the current edit mode. An already open session is
// closed first and its staged edits are discarded.
func (t *Timetable) OpenCell(id grid.CellID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !id.Valid() {
		return fmt.Errorf("open: %w: %s", grid.ErrInvalidCell, id)
	}
	if prev, ok := t.sess.Cell(); ok {
		t.logger.Debug("closing open session before opening another",
			"session", t.sess.ID(), "cell", prev.String(), "next", id.String())
		t.sess.Close()
		t.surface.HideSession()
	}

	rec, _ := t.cells.Get(id)
	sid := t.ids.Generate()
	if err := t.sess.Open(sid, id, rec, t.editMode); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	t.surface.ShowSession(t.sess.View())

	t.logger.Debug("cell opened", "session", sid, "cell", id.String(), "state", t.sess.State().String())
	return nil
}

// StageFields replaces the staged descriptive fields of the open cell and
// shows the updated session. Nothing is stored until Commit.
func (t *Timetable) StageFields(f session.Fields) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.sess.Stage(f); err != nil {
		if errors.Is(err, session.ErrNotOpen) {
			return ErrNoOpenCell
		}
		return err
	}
	t.surface.ShowSession(t.sess.View())
	return nil
}

// ToggleAssignment flips checklist entry index of id, persists immediately
// and re-renders id. It returns the new value.
func (t *Timetable) ToggleAssignment(ctx context.Context, id grid.CellID, index int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	value, err := t.cells.ToggleAssignmentFlag(id, index)
	if err != nil {
		return false, err
	}
	t.afterAssignment(ctx, id, index, value)
	return value, nil
}

// SetAssignment sets checklist entry index of id to value, persists
// immediately and re-renders id.
func (t *Timetable) SetAssignment(ctx context.Context, id grid.CellID, index int, value bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.cells.SetAssignmentFlag(id, index, value); err != nil {
		return err
	}
	t.afterAssignment(ctx, id, index, value)
	return nil
}

func (t *Timetable) afterAssignment(ctx context.Context, id grid.CellID, index int, value bool) {
	t.saveCells(ctx)
	t.sync.Sync(id, t.editMode)

	if open, ok := t.sess.Cell(); ok && open == id {
		rec, _ := t.cells.Get(id)
		t.sess.MirrorAssignments(rec.Assignments)
		t.surface.ShowSession(t.sess.View())
	}
	t.logger.Debug("assignment set", "cell", id.String(), "index", index, "value", value)
}

// Commit stores the staged fields of an edit-mode session together with the
// current checklist, persists and re-renders the cell, and closes the session.
// A commit that leaves nothing meaningful removes the cell.
func (t *Timetable) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sid := t.sess.ID()
	id, rec, err := t.sess.Commit()
	if err != nil {
		if errors.Is(err, session.ErrNotOpen) {
			return ErrNoOpenCell
		}
		return err
	}

	if err := t.cells.Put(id, rec); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	t.saveCells(ctx)
	t.sync.Sync(id, t.editMode)
	t.surface.HideSession()

	_, present := t.cells.Get(id)
	t.logger.Info("cell committed", "session", sid, "cell", id.String(), "present", present)
	return nil
}

// DeleteCurrent removes the open cell after confirmation. It returns false
// with no error when the user declines; nothing changes in that case.
func (t *Timetable) DeleteCurrent(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.sess.Cell()
	if !ok {
		return false, ErrNoOpenCell
	}
	if !t.sess.CanDiscard() {
		return false, fmt.Errorf("delete %s: %w", id, session.ErrReadOnly)
	}
	if !t.confirm.Confirm(PromptDelete) {
		t.logger.Debug("delete declined", "cell", id.String())
		return false, nil
	}

	sid := t.sess.ID()
	if _, err := t.sess.Discard(); err != nil {
		return false, err
	}
	if err := t.cells.Remove(id); err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	t.saveCells(ctx)
	t.sync.Sync(id, t.editMode)
	t.surface.HideSession()

	t.logger.Info("cell deleted", "session", sid, "cell", id.String())
	return true, nil
}

// Close ends the open session without committing. Staged fields are
// dropped; checklist toggles made during the session stay applied.
// Closing with no open session is a no-op.
func (t *Timetable) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	sid := t.sess.ID()
	if id, ok := t.sess.Close(); ok {
		t.surface.HideSession()
		t.logger.Debug("session closed", "session", sid, "cell", id.String())
	}
}

// SetEditModeEnabled changes the mode used by the next OpenCell and
// re-renders every cell. An open session keeps the mode it was opened with.
func (t *Timetable) SetEditModeEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.editMode == enabled {
		return
	}
	t.editMode = enabled
	t.sync.SyncAll(t.editMode)
	t.logger.Debug("edit mode changed", "enabled", enabled)
}

// SetBackgroundColor validates and stores a new background color, persists
// the preferences immediately and applies the color to the surface.
func (t *Timetable) SetBackgroundColor(ctx context.Context, color string) error {
	normalized, err := grid.NormalizeColor(color)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.prefs.BackgroundColor = normalized
	t.surface.ApplyBackground(normalized)
	t.savePreferences(ctx)
	t.logger.Debug("background changed", "color", normalized)
	return nil
}

// ClearAll erases every cell and resets the preferences after confirmation.
// It returns false with no error when the user declines.
func (t *Timetable) ClearAll(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.confirm.Confirm(PromptClearAll) {
		t.logger.Debug("clear all declined")
		return false, nil
	}

	if _, ok := t.sess.Close(); ok {
		t.surface.HideSession()
	}
	t.cells.Clear()
	t.prefs = grid.DefaultPreferences()

	t.lastSaveErr = errors.Join(
		t.persist.SaveCells(ctx, t.cells.Snapshot()),
		t.persist.SavePreferences(ctx, t.prefs),
	)
	t.surface.ApplyBackground(t.prefs.BackgroundColor)
	t.sync.SyncAll(t.editMode)

	t.logger.Info("all data cleared")
	return true, nil
}

// Cell returns the committed record of id.
func (t *Timetable) Cell(id grid.CellID) (grid.CellRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cells.Get(id)
}

// Snapshot returns a copy of all committed records.
func (t *Timetable) Snapshot() grid.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cells.Snapshot()
}

// Display returns the derived display of id.
func (t *Timetable) Display(id grid.CellID) view.Display {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cells.Get(id)
	return view.Derive(id, rec, ok, t.editMode)
}

// EditModeEnabled reports the global edit-mode flag.
func (t *Timetable) EditModeEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editMode
}

// Preferences returns the current preferences.
func (t *Timetable) Preferences() grid.Preferences {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prefs
}

// Session returns a copy of the session slot.
func (t *Timetable) Session() session.View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.View()
}

// LastSaveError returns the error of the most recent persistence write, or
// nil if it succeeded.
func (t *Timetable) LastSaveError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSaveErr
}

// saveCells writes the full snapshot. The gateway logs failures; here they
// are only recorded.
func (t *Timetable) saveCells(ctx context.Context) {
	t.lastSaveErr = t.persist.SaveCells(ctx, t.cells.Snapshot())
}

func (t *Timetable) savePreferences(ctx context.Context) {
	t.lastSaveErr = t.persist.SavePreferences(ctx, t.prefs)
}
