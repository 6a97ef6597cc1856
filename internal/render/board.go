// Package render draws the timetable board and the open session as terminal
// text with lipgloss. A Board is a core.Surface: the core pushes displays into
// it and the caller asks for the current frame.
package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/session"
	"github.com/roach88/timetable/internal/view"
)

// Grid face labels. The face shows occupancy only.
const (
	EmptyLabel   = "（空）"
	AddHint      = "＋追加"
	ContentLabel = "●"
)

// Board keeps the latest display of every cell and the session shown.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Board struct {
	mu         sync.Mutex
	r          *lipgloss.Renderer
	cells      [grid.CellCount]view.Display
	session    session.View
	background string
	cursor     grid.CellID
}

// Option configures a Board.
type Option func(*Board)

// WithRenderer sets the lipgloss renderer used for styles. Tests pass a
// renderer over a plain buffer to get uncolored output.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(b *Board) { b.r = r }
}

// NewBoard returns a board with every cell empty.
func NewBoard(opts ...Option) *Board {
	b := &Board{
		r:          lipgloss.DefaultRenderer(),
		background: grid.DefaultBackgroundColor,
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, id := range grid.AllCellIDs() {
		b.cells[id.Index()] = view.Display{Cell: id}
	}
	return b
}

// RenderCell records d.
func (b *Board) RenderCell(d view.Display) {
	if !d.Cell.Valid() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cells[d.Cell.Index()] = d
}

// ShowSession records v as the open session.
func (b *Board) ShowSession(v session.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = v
}

// HideSession clears the open session.
func (b *Board) HideSession() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = session.View{State: session.Closed}
}

// ApplyBackground records the board background.
func (b *Board) ApplyBackground(color string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.background = color
}

// SetCursor highlights id. An invalid id removes the highlight.
func (b *Board) SetCursor(id grid.CellID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = id
}

// Display returns the latest display of id.
func (b *Board) Display(id grid.CellID) view.Display {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cells[id.Index()]
}

// Session returns the session shown, or a closed view.
func (b *Board) Session() session.View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// Background returns the applied background color.
func (b *Board) Background() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.background
}

// Grid renders the 6x5 board with day and period labels.
func (b *Board) Grid() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	headers := make([]string, 0, grid.Days+1)
	headers = append(headers, "")
	headers = append(headers, grid.DayLabels[:]...)

	rows := make([][]string, grid.Periods)
	for p := 1; p <= grid.Periods; p++ {
		row := make([]string, 0, grid.Days+1)
		row = append(row, fmt.Sprintf("%d限", p))
		for d := 1; d <= grid.Days; d++ {
			row = append(row, faceText(b.cells[grid.MustCellID(p, d).Index()]))
		}
		rows[p-1] = row
	}

	base := b.r.NewStyle().Padding(0, 1).Background(lipgloss.Color(b.background))
	header := base.Bold(true).Align(lipgloss.Center)
	content := base.Bold(true).Align(lipgloss.Center)
	empty := base.Faint(true).Align(lipgloss.Center)
	cursor := base.Reverse(true).Align(lipgloss.Center)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(b.r.NewStyle()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 {
				return header
			}
			d := b.cells[grid.MustCellID(row+1, col).Index()]
			switch {
			case b.cursor.Valid() && d.Cell == b.cursor:
				return cursor
			case d.State == view.HasContent:
				return content
			default:
				return empty
			}
		})
	return t.Render()
}

// faceText is what one cell shows on the board.
func faceText(d view.Display) string {
	if d.State == view.HasContent {
		return ContentLabel
	}
	if d.Editable {
		return AddHint
	}
	return EmptyLabel
}

// Focus marks the control under the cursor in the session panel.
type Focus struct {
	// Field is 0..2 for subject, room and time. Ignored when Checklist is set.
	Field int
	// Checklist moves focus to the assignment list.
	Checklist bool
	// Assignment is the checklist cursor, 0-based.
	Assignment int
}

// NoFocus highlights nothing.
var NoFocus = Focus{Field: -1}

// Panel renders the open session, or "" when no session is open.
func (b *Board) Panel(f Focus) string {
	b.mu.Lock()
	v := b.session
	b.mu.Unlock()
	return b.panel(v, f)
}

func (b *Board) panel(v session.View, f Focus) string {
	if v.State == session.Closed {
		return ""
	}
	id, err := grid.ParseCellID(v.Cell)
	if err != nil {
		return ""
	}

	title := b.r.NewStyle().Bold(true)
	focused := b.r.NewStyle().Reverse(true)
	muted := b.r.NewStyle().Faint(true)

	var sb strings.Builder
	mode := "view"
	if v.Editable {
		mode = "edit"
	}
	sb.WriteString(title.Render(fmt.Sprintf("%s (%s) [%s]", id.Label(), v.Cell, mode)))
	sb.WriteString("\n\n")

	fields := []struct{ name, value string }{
		{"Subject", v.Fields.Subject},
		{"Room", v.Fields.Room},
		{"Time", v.Fields.Time},
	}
	for i, fld := range fields {
		line := fmt.Sprintf("%-8s %s", fld.name+":", fld.value)
		switch {
		case v.Editable && !f.Checklist && f.Field == i:
			line = focused.Render(line)
		case !v.Editable:
			line = muted.Render(line)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')

	const perRow = 5
	for i, done := range v.Assignments {
		mark := "[ ]"
		if done {
			mark = "[x]"
		}
		item := fmt.Sprintf("%s 課題%-2d", mark, i+1)
		if f.Checklist && f.Assignment == i {
			item = focused.Render(item)
		}
		sb.WriteString(item)
		if (i+1)%perRow == 0 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}

	box := b.r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return box.Render(strings.TrimRight(sb.String(), "\n"))
}

// String renders the board followed by the open session, if any.
func (b *Board) String() string {
	out := b.Grid()
	if p := b.Panel(NoFocus); p != "" {
		out += "\n" + p
	}
	return out
}
