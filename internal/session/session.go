package session

import (
	"errors"
	"fmt"

	"github.com/roach88/timetable/internal/grid"
)

var (
	// ErrNotOpen is returned by operations that need an open session.
	ErrNotOpen = errors.New("no open session")

	// ErrReadOnly is returned when a view-mode session is asked to change
	// descriptive fields, commit or delete.
	ErrReadOnly = errors.New("session is read-only")

	// ErrAlreadyOpen is returned by Open while another session is open.
	ErrAlreadyOpen = errors.New("session already open")
)

// State is the state of the session slot.
type State int

const (
	// Closed means no cell is open.
	Closed State = iota
	// OpenView shows a cell read-only; only the checklist is interactive.
	OpenView
	// OpenEdit stages descriptive field edits until commit.
	OpenEdit
)

// String returns the state name used in traces.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenView:
		return "open_view"
	case OpenEdit:
		return "open_edit"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fields are the staged descriptive values of a cell.
type Fields struct {
	Subject string `json:"subject"`
	Room    string `json:"room"`
	Time    string `json:"time"`
}

// View is a read-only copy of the session for rendering surfaces.
type View struct {
	ID          string           `json:"id,omitempty"`
	State       State            `json:"state"`
	Cell        string           `json:"cell,omitempty"`
	Fields      Fields           `json:"fields"`
	Assignments grid.Assignments `json:"assignments"`
	Editable    bool             `json:"editable"`
}

// Session is the single edit-session slot.
// The zero value is a closed session.
type Session struct {
	state  State
	id     string
	cell   grid.CellID
	staged grid.CellRecord
}

// Open starts a session on cell. rec is the committed record, or the zero
// record for an empty slot; the session keeps its own copy.
func (s *Session) Open(sessionID string, cell grid.CellID, rec grid.CellRecord, editMode bool) error {
	if s.state != Closed {
		return fmt.Errorf("open %s: %w (%s)", cell, ErrAlreadyOpen, s.cell)
	}
	if !cell.Valid() {
		return fmt.Errorf("open: %w: %s", grid.ErrInvalidCell, cell)
	}
	s.id = sessionID
	s.cell = cell
	s.staged = rec
	if editMode {
		s.state = OpenEdit
	} else {
		s.state = OpenView
	}
	return nil
}

// Stage replaces the staged descriptive fields.
func (s *Session) Stage(f Fields) error {
	switch s.state {
	case Closed:
		return ErrNotOpen
	case OpenView:
		return fmt.Errorf("stage %s: %w", s.cell, ErrReadOnly)
	}
	s.staged.Subject = f.Subject
	s.staged.Room = f.Room
	s.staged.Time = f.Time
	return nil
}

// MirrorAssignments copies live checklist values into the open session.
// It is a no-op when the session is closed.
func (s *Session) MirrorAssignments(a grid.Assignments) {
	if s.state == Closed {
		return
	}
	s.staged.Assignments = a
}

// Commit ends an edit-mode session and returns the record to store: the
// staged fields trimmed of surrounding whitespace plus the current checklist.
func (s *Session) Commit() (grid.CellID, grid.CellRecord, error) {
	switch s.state {
	case Closed:
		return grid.CellID{}, grid.CellRecord{}, ErrNotOpen
	case OpenView:
		return grid.CellID{}, grid.CellRecord{}, fmt.Errorf("commit %s: %w", s.cell, ErrReadOnly)
	}
	cell, rec := s.cell, s.staged.Trimmed()
	s.reset()
	return cell, rec, nil
}

// Discard ends an edit-mode session for the delete action and returns the
// cell to remove. Staged values are ignored.
func (s *Session) Discard() (grid.CellID, error) {
	switch s.state {
	case Closed:
		return grid.CellID{}, ErrNotOpen
	case OpenView:
		return grid.CellID{}, fmt.Errorf("delete %s: %w", s.cell, ErrReadOnly)
	}
	cell := s.cell
	s.reset()
	return cell, nil
}

// CanDiscard reports whether Discard would succeed.
func (s *Session) CanDiscard() bool {
	return s.state == OpenEdit
}

// Close ends any open session without committing. It returns the cell that
// was open and whether a session was open at all.
func (s *Session) Close() (grid.CellID, bool) {
	if s.state == Closed {
		return grid.CellID{}, false
	}
	cell := s.cell
	s.reset()
	return cell, true
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Cell returns the open cell.
func (s *Session) Cell() (grid.CellID, bool) {
	if s.state == Closed {
		return grid.CellID{}, false
	}
	return s.cell, true
}

// ID returns the identifier of the open session, or "" when closed.
func (s *Session) ID() string {
	return s.id
}

// View returns a copy of the session for rendering.
func (s *Session) View() View {
	if s.state == Closed {
		return View{State: Closed}
	}
	return View{
		ID:    s.id,
		State: s.state,
		Cell:  s.cell.String(),
		Fields: Fields{
			Subject: s.staged.Subject,
			Room:    s.staged.Room,
			Time:    s.staged.Time,
		},
		Assignments: s.staged.Assignments,
		Editable:    s.state == OpenEdit,
	}
}

func (s *Session) reset() {
	*s = Session{}
}
