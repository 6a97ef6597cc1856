package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/timetable/internal/grid"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	Subject string
	Room    string
	Time    string
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <cell>",
		Short: "Edit and save the fields of one cell",
		Long: `Open a cell in edit mode, replace the given fields and save.

Fields that are not passed keep their saved value. Values are trimmed; a
cell left with no fields and no finished assignments is removed.

Examples:
  timetable set r1-c1 --subject Math --room A101
  timetable set r2-c3 --time "10:40-12:10"
  timetable set r2-c3 --subject "" --room "" --time ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "subject", "", "subject name")
	cmd.Flags().StringVar(&opts.Room, "room", "", "classroom")
	cmd.Flags().StringVar(&opts.Time, "time", "", "time range")

	return cmd
}

func runSet(opts *SetOptions, cmd *cobra.Command, arg string) error {
	id, err := parseCell(arg)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("subject") && !flags.Changed("room") && !flags.Changed("time") {
		return NewExitError(ExitCommandError, "nothing to set: pass --subject, --room or --time")
	}

	return withApp(cmd, opts.RootOptions, nil, func(a *app) error {
		a.tt.SetEditModeEnabled(true)
		if err := a.tt.OpenCell(id); err != nil {
			return WrapExitError(ExitCommandError, "failed to open cell", err)
		}

		f := a.tt.Session().Fields
		if flags.Changed("subject") {
			f.Subject = opts.Subject
		}
		if flags.Changed("room") {
			f.Room = opts.Room
		}
		if flags.Changed("time") {
			f.Time = opts.Time
		}
		if err := a.tt.StageFields(f); err != nil {
			a.tt.Close()
			return WrapExitError(ExitFailure, "failed to stage fields", err)
		}
		if err := a.tt.Commit(cmd.Context()); err != nil {
			return WrapExitError(ExitFailure, "failed to commit", err)
		}
		if err := a.saved(); err != nil {
			return err
		}

		out := opts.formatter(cmd)
		rec, ok := a.tt.Cell(id)
		if !ok {
			if opts.Format == "json" {
				return out.Success(map[string]any{"cell": id.String(), "removed": true})
			}
			return out.Success(id.Label() + " cleared")
		}
		if opts.Format == "json" {
			return out.Success(newCellJSON(id, rec))
		}
		return out.Success(id.Label() + " saved: " + summary(rec))
	})
}

// summary joins the non-empty fields of rec and the checklist progress.
func summary(rec grid.CellRecord) string {
	var parts []string
	for _, v := range []string{rec.Subject, rec.Room, rec.Time} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	parts = append(parts, fmt.Sprintf("%d/%d done", rec.Assignments.Count(), grid.AssignmentCount))
	return strings.Join(parts, ", ")
}
