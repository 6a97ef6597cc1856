// Package testutil provides deterministic collaborators for exercising the
// timetable core: a surface that records every callback, a scripted
// confirmation prompt and a fixed session id generator.
package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/session"
	"github.com/roach88/timetable/internal/view"
)

// Event kinds recorded by RecordingSurface.
const (
	EventRender     = "render"
	EventShow       = "show"
	EventHide       = "hide"
	EventBackground = "background"
)

// SurfaceEvent is one callback received by a RecordingSurface.
type SurfaceEvent struct {
	Kind    string
	Display view.Display // EventRender
	Session session.View // EventShow
	Color   string       // EventBackground
}

// String returns a compact one-line form used in traces and failure output.
func (e SurfaceEvent) String() string {
	switch e.Kind {
	case EventRender:
		return fmt.Sprintf("render %s %s editable=%t", e.Display.Cell, e.Display.State, e.Display.Editable)
	case EventShow:
		return fmt.Sprintf("show %s %s", e.Session.Cell, e.Session.State)
	case EventBackground:
		return fmt.Sprintf("background %s", e.Color)
	default:
		return e.Kind
	}
}

// RecordingSurface records every callback and keeps the latest display of
// each cell, the way a real board would.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type RecordingSurface struct {
	mu         sync.Mutex
	events     []SurfaceEvent
	cells      [grid.CellCount]view.Display
	session    session.View
	background string
}

// NewRecordingSurface returns an empty recorder.
func NewRecordingSurface() *RecordingSurface {
	return &RecordingSurface{}
}

// RenderCell implements core.Surface.
func (r *RecordingSurface) RenderCell(d view.Display) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, SurfaceEvent{Kind: EventRender, Display: d})
	if d.Cell.Valid() {
		r.cells[d.Cell.Index()] = d
	}
}

// ShowSession implements core.Surface.
func (r *RecordingSurface) ShowSession(v session.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, SurfaceEvent{Kind: EventShow, Session: v})
	r.session = v
}

// HideSession implements core.Surface.
func (r *RecordingSurface) HideSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, SurfaceEvent{Kind: EventHide})
	r.session = session.View{State: session.Closed}
}

// ApplyBackground implements core.Surface.
func (r *RecordingSurface) ApplyBackground(color string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, SurfaceEvent{Kind: EventBackground, Color: color})
	r.background = color
}

// Events returns a copy of all recorded events.
func (r *RecordingSurface) Events() []SurfaceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SurfaceEvent(nil), r.events...)
}

// Renders returns the recorded render events.
func (r *RecordingSurface) Renders() []view.Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []view.Display
	for _, e := range r.events {
		if e.Kind == EventRender {
			out = append(out, e.Display)
		}
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *RecordingSurface) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets recorded events but keeps the latest cell displays.
func (r *RecordingSurface) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Cell returns the latest display rendered for id.
func (r *RecordingSurface) Cell(id grid.CellID) view.Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cells[id.Index()]
}

// Session returns the latest session shown, or a closed view after a hide.
func (r *RecordingSurface) Session() session.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Background returns the latest background color applied.
func (r *RecordingSurface) Background() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.background
}
