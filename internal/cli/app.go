package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/roach88/timetable/internal/core"
	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/kv"
	"github.com/roach88/timetable/internal/persist"
	"github.com/roach88/timetable/internal/render"
)

// app bundles an opened store with a loaded timetable for one command.
type app struct {
	store *kv.Store
	board *render.Board
	tt    *core.Timetable

	// loadedSeq is the store write sequence when the timetable was loaded.
	loadedSeq int64
}

// openApp opens the configured database and loads the timetable. The board
// renders for w so color output matches the terminal the command writes to.
func openApp(ctx context.Context, opts *RootOptions, w io.Writer, confirm core.Confirmer) (*app, error) {
	store, err := kv.Open(opts.Config.DB, kv.WithQuota(opts.Config.QuotaBytes))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to open database %s", opts.Config.DB), err)
	}

	gw, err := persist.New(store, opts.Logger)
	if err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "failed to initialize persistence", err)
	}

	board := render.NewBoard(render.WithRenderer(lipgloss.NewRenderer(w)))
	tt, err := core.New(ctx, core.Options{
		Persister: gw,
		Surface:   board,
		Confirmer: confirm,
		Logger:    opts.Logger,
	})
	if err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load timetable", err)
	}

	return &app{store: store, board: board, tt: tt}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// saved converts the last persistence failure into an exit error.
func (a *app) saved() error {
	if err := a.tt.LastSaveError(); err != nil {
		return WrapExitError(ExitFailure, "failed to save", err)
	}
	return nil
}

// parseCell parses a cell argument such as r3-c2.
func parseCell(arg string) (grid.CellID, error) {
	id, err := grid.ParseCellID(arg)
	if err != nil {
		return grid.CellID{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid cell %q", arg), err)
	}
	return id, nil
}

// withApp opens the app for cmd, runs fn and closes the store.
func withApp(cmd *cobra.Command, opts *RootOptions, confirm core.Confirmer, fn func(*app) error) error {
	a, err := openApp(cmd.Context(), opts, cmd.OutOrStdout(), confirm)
	if err != nil {
		return err
	}
	defer a.Close()

	seq, err := a.store.WriteSeq(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read database", err)
	}
	a.loadedSeq = seq
	opts.formatter(cmd).VerboseLog("opened %s: %d cells, write sequence %d", opts.Config.DB, len(a.tt.Snapshot()), seq)
	return fn(a)
}

// cellJSON is the CLI view of one committed record.
type cellJSON struct {
	Cell        string `json:"cell"`
	Label       string `json:"label"`
	Subject     string `json:"subject"`
	Room        string `json:"room"`
	Time        string `json:"time"`
	Assignments []bool `json:"assignments"`
	Done        int    `json:"done"`
}

func newCellJSON(id grid.CellID, rec grid.CellRecord) cellJSON {
	return cellJSON{
		Cell:        id.String(),
		Label:       id.Label(),
		Subject:     rec.Subject,
		Room:        rec.Room,
		Time:        rec.Time,
		Assignments: rec.Assignments[:],
		Done:        rec.Assignments.Count(),
	}
}
