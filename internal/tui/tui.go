// Package tui provides the interactive terminal editor.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/timetable/internal/core"
	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/render"
	"github.com/roach88/timetable/internal/session"
)

// Palette is cycled by the background key.
var Palette = []string{"#ffffff", "#fff8e1", "#e3f2fd", "#e8f5e9", "#fce4ec", "#ede7f6"}

// Confirmer approves exactly one destructive action after the user answered
// yes to the on-screen prompt. Pass it to core.Options.Confirmer.
type Confirmer struct {
	armed bool
}

// Confirm implements core.Confirmer. It consumes the armed answer.
func (c *Confirmer) Confirm(string) bool {
	ok := c.armed
	c.armed = false
	return ok
}

type pendingAction int

const (
	noAction pendingAction = iota
	deleteAction
	clearAction
)

const fieldCount = 3

// Model is the bubbletea model. It drives a core.Timetable whose surface is
// the given board.
type Model struct {
	ctx     context.Context
	tt      *core.Timetable
	board   *render.Board
	confirm *Confirmer

	cursor  grid.CellID
	focus   render.Focus
	pending pendingAction
	status  string
	quit    bool
}

// New returns a model with the cursor on the first cell. confirm must be the
// Confirmer given to tt.
func New(ctx context.Context, tt *core.Timetable, board *render.Board, confirm *Confirmer) *Model {
	m := &Model{
		ctx:     ctx,
		tt:      tt,
		board:   board,
		confirm: confirm,
		cursor:  grid.MustCellID(1, 1),
		focus:   render.NoFocus,
	}
	board.SetCursor(m.cursor)
	return m
}

// Run starts the program on the alternate screen.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.Type == tea.KeyCtrlC {
		m.quit = true
		return m, tea.Quit
	}

	switch {
	case m.pending != noAction:
		m.updateConfirm(key)
	case m.tt.Session().State != session.Closed:
		m.updateSession(key)
	default:
		if m.updateBoard(key) {
			m.quit = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// updateBoard handles keys while no cell is open. It reports whether to quit.
func (m *Model) updateBoard(key tea.KeyMsg) bool {
	switch key.String() {
	case "q":
		return true
	case "up", "k":
		m.move(-1, 0)
	case "down", "j":
		m.move(1, 0)
	case "left", "h":
		m.move(0, -1)
	case "right", "l":
		m.move(0, 1)
	case "enter":
		m.open()
	case "e":
		enabled := !m.tt.EditModeEnabled()
		m.tt.SetEditModeEnabled(enabled)
		m.status = "edit mode off"
		if enabled {
			m.status = "edit mode on"
		}
	case "b":
		m.cycleBackground()
	case "X":
		m.pending = clearAction
		m.status = core.PromptClearAll + " (y/n)"
	}
	return false
}

func (m *Model) updateSession(key tea.KeyMsg) {
	v := m.tt.Session()

	switch key.String() {
	case "esc":
		m.tt.Close()
		m.focus = render.NoFocus
		m.status = ""
		return
	case "tab":
		m.cycleFocus(v, 1)
		return
	case "shift+tab":
		m.cycleFocus(v, -1)
		return
	case "ctrl+s":
		m.commit()
		return
	case "ctrl+d":
		if !v.Editable {
			m.status = "view mode: delete is disabled"
			return
		}
		m.pending = deleteAction
		m.status = core.PromptDelete + " (y/n)"
		return
	}

	if m.focus.Checklist {
		m.updateChecklist(key)
		return
	}
	if v.Editable {
		m.editField(v, key)
	}
}

func (m *Model) updateChecklist(key tea.KeyMsg) {
	const perRow = 5
	switch key.String() {
	case "left", "h":
		m.focus.Assignment = clamp(m.focus.Assignment-1, grid.AssignmentCount)
	case "right", "l":
		m.focus.Assignment = clamp(m.focus.Assignment+1, grid.AssignmentCount)
	case "up", "k":
		m.focus.Assignment = clamp(m.focus.Assignment-perRow, grid.AssignmentCount)
	case "down", "j":
		m.focus.Assignment = clamp(m.focus.Assignment+perRow, grid.AssignmentCount)
	case " ", "enter", "x":
		m.toggle()
	}
}

func (m *Model) editField(v session.View, key tea.KeyMsg) {
	f := v.Fields
	target := fieldRef(&f, m.focus.Field)
	if target == nil {
		return
	}
	switch key.Type {
	case tea.KeyRunes, tea.KeySpace:
		*target += string(key.Runes)
	case tea.KeyBackspace:
		r := []rune(*target)
		if len(r) == 0 {
			return
		}
		*target = string(r[:len(r)-1])
	case tea.KeyEnter:
		m.cycleFocus(v, 1)
		return
	default:
		return
	}
	if err := m.tt.StageFields(f); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) updateConfirm(key tea.KeyMsg) {
	action := m.pending
	m.pending = noAction
	m.status = ""

	switch key.String() {
	case "y", "Y":
	default:
		m.status = "cancelled"
		return
	}

	m.confirm.armed = true
	defer func() { m.confirm.armed = false }()

	switch action {
	case deleteAction:
		deleted, err := m.tt.DeleteCurrent(m.ctx)
		m.report(err)
		if err == nil && deleted {
			m.focus = render.NoFocus
			m.status = "deleted"
		}
	case clearAction:
		cleared, err := m.tt.ClearAll(m.ctx)
		m.report(err)
		if err == nil && cleared {
			m.focus = render.NoFocus
			m.status = "all data cleared"
		}
	}
}

func (m *Model) move(dp, dd int) {
	p := clamp(m.cursor.Period-1+dp, grid.Periods) + 1
	d := clamp(m.cursor.Day-1+dd, grid.Days) + 1
	m.cursor = grid.MustCellID(p, d)
	m.board.SetCursor(m.cursor)
}

func (m *Model) open() {
	if err := m.tt.OpenCell(m.cursor); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
	if m.tt.Session().Editable {
		m.focus = render.Focus{Field: 0}
	} else {
		m.focus = render.Focus{Field: -1, Checklist: true}
	}
}

func (m *Model) commit() {
	err := m.tt.Commit(m.ctx)
	if errors.Is(err, session.ErrReadOnly) {
		m.status = "view mode: nothing to save"
		return
	}
	m.report(err)
	if err == nil {
		m.focus = render.NoFocus
		m.status = "saved"
	}
}

func (m *Model) toggle() {
	id, err := grid.ParseCellID(m.tt.Session().Cell)
	if err != nil {
		m.status = err.Error()
		return
	}
	_, err = m.tt.ToggleAssignment(m.ctx, id, m.focus.Assignment)
	m.report(err)
}

func (m *Model) cycleBackground() {
	current := m.tt.Preferences().BackgroundColor
	next := Palette[0]
	for i, c := range Palette {
		if c == current {
			next = Palette[(i+1)%len(Palette)]
			break
		}
	}
	err := m.tt.SetBackgroundColor(m.ctx, next)
	m.report(err)
	if err == nil {
		m.status = "background " + next
	}
}

// cycleFocus walks subject, room, time and the checklist. View-mode
// sessions only have the checklist.
func (m *Model) cycleFocus(v session.View, step int) {
	if !v.Editable {
		m.focus = render.Focus{Field: -1, Checklist: true, Assignment: m.focus.Assignment}
		return
	}
	pos := m.focus.Field
	if m.focus.Checklist {
		pos = fieldCount
	}
	pos = (pos + step + fieldCount + 1) % (fieldCount + 1)
	if pos == fieldCount {
		m.focus = render.Focus{Field: -1, Checklist: true, Assignment: m.focus.Assignment}
		return
	}
	m.focus = render.Focus{Field: pos, Assignment: m.focus.Assignment}
}

func (m *Model) report(err error) {
	switch {
	case err != nil:
		m.status = err.Error()
	case m.tt.LastSaveError() != nil:
		m.status = "not saved: " + m.tt.LastSaveError().Error()
	}
}

func fieldRef(f *session.Fields, i int) *string {
	switch i {
	case 0:
		return &f.Subject
	case 1:
		return &f.Room
	case 2:
		return &f.Time
	default:
		return nil
	}
}

// clamp keeps i within [0, n).
func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder
	mode := "view"
	if m.tt.EditModeEnabled() {
		mode = "edit"
	}
	fmt.Fprintf(&b, "時間割  [%s mode]  %s\n\n", mode, m.tt.Preferences().BackgroundColor)
	b.WriteString(m.board.Grid())
	b.WriteString("\n")
	if panel := m.board.Panel(m.focus); panel != "" {
		b.WriteString(panel)
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(m.help())
	return b.String()
}

func (m *Model) help() string {
	switch {
	case m.pending != noAction:
		return "y confirm | any other key cancels"
	case m.tt.Session().State == session.Closed:
		return "arrows move | enter open | e edit mode | b background | X clear all | q quit"
	case m.tt.Session().Editable:
		return "tab next | space toggle | ctrl+s save | ctrl+d delete | esc close"
	default:
		return "arrows move | space toggle | esc close"
	}
}
