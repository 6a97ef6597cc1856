package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/kv"
)

// StatusResult is the payload of the status command.
type StatusResult struct {
	DB                string     `json:"db"`
	ConfigFiles       []string   `json:"config_files"`
	Cells             int        `json:"cells"`
	Assignments       int        `json:"assignments_done"`
	CellsDigest       string     `json:"cells_digest"`
	Background        string     `json:"background"`
	PreferencesDigest string     `json:"preferences_digest"`
	EditMode          bool       `json:"edit_mode"`
	Format            string     `json:"format_version"`
	WriteSeq          int64      `json:"write_seq"`
	Entries           []kv.Entry `json:"entries"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the saved timetable",
		Long: `Print the number of saved cells, the content digests of the saved data,
the preferences, the edit mode a new session would start in and the
stored keys, newest write first.

Digests only change when the saved content changes, so they can be compared
across machines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, nil, func(a *app) error {
				res, err := statusResult(cmd.Context(), rootOpts, a)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to summarize database", err)
				}
				out := rootOpts.formatter(cmd)
				if rootOpts.Format == "json" {
					return out.Success(res)
				}
				return out.Success(res.text())
			})
		},
	}
}

func statusResult(ctx context.Context, opts *RootOptions, a *app) (StatusResult, error) {
	snap := a.tt.Snapshot()
	prefs := a.tt.Preferences()

	cellsDigest, err := grid.Digest(snap)
	if err != nil {
		return StatusResult{}, err
	}
	prefsDigest, err := grid.PreferencesDigest(prefs)
	if err != nil {
		return StatusResult{}, err
	}

	entries, err := a.store.Entries(ctx)
	if err != nil {
		return StatusResult{}, err
	}

	done := 0
	for _, rec := range snap {
		done += rec.Assignments.Count()
	}
	files := opts.Config.Files
	if files == nil {
		files = []string{}
	}
	if entries == nil {
		entries = []kv.Entry{}
	}
	return StatusResult{
		DB:                opts.Config.DB,
		ConfigFiles:       files,
		Cells:             len(snap),
		Assignments:       done,
		CellsDigest:       cellsDigest,
		Background:        prefs.BackgroundColor,
		PreferencesDigest: prefsDigest,
		EditMode:          a.tt.EditModeEnabled(),
		Format:            grid.FormatVersion,
		WriteSeq:          a.loadedSeq,
		Entries:           entries,
	}, nil
}

func (r StatusResult) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "database:    %s\n", r.DB)
	if len(r.ConfigFiles) > 0 {
		fmt.Fprintf(&b, "config:      %s\n", strings.Join(r.ConfigFiles, ", "))
	}
	fmt.Fprintf(&b, "cells:       %d/%d (%d assignments done)\n", r.Cells, grid.CellCount, r.Assignments)
	fmt.Fprintf(&b, "digest:      %s\n", r.CellsDigest)
	fmt.Fprintf(&b, "background:  %s (%s)\n", r.Background, r.PreferencesDigest)
	mode := "view"
	if r.EditMode {
		mode = "edit"
	}
	fmt.Fprintf(&b, "opens in:    %s mode\n", mode)
	fmt.Fprintf(&b, "format:      %s\n", r.Format)
	fmt.Fprintf(&b, "writes:      %d", r.WriteSeq)
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "\n  %-22s %6d bytes  write %d", e.Key, e.Bytes, e.UpdatedSeq)
	}
	return b.String()
}
