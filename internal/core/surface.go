package core

import (
	"context"

	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/session"
	"github.com/roach88/timetable/internal/view"
)

// Surface is the rendering side the core calls back into after every
// state-affecting operation.
type Surface interface {
	// RenderCell shows the derived display of one cell.
	RenderCell(d view.Display)
	// ShowSession shows the open session.
	ShowSession(v session.View)
	// HideSession dismisses the session.
	HideSession()
	// ApplyBackground sets the page background.
	ApplyBackground(color string)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Persister loads and saves the two persisted records. persist.Gateway
// satisfies it.
type Persister interface {
	LoadCells(ctx context.Context) grid.Snapshot
	SaveCells(ctx context.Context, snap grid.Snapshot) error
	LoadPreferences(ctx context.Context) grid.Preferences
	SavePreferences(ctx context.Context, prefs grid.Preferences) error
}

type nopSurface struct{}

func (nopSurface) RenderCell(view.Display)  {}
func (nopSurface) ShowSession(session.View) {}
func (nopSurface) HideSession()             {}
func (nopSurface) ApplyBackground(string)   {}

// declineAll refuses every confirmation.
var declineAll = ConfirmFunc(func(string) bool { return false })
