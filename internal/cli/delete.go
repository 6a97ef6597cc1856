package cli

import (
	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <cell>",
		Short: "Delete one cell",
		Long: `Delete a cell together with its assignment checklist.

Asks for confirmation on stdin unless --yes is given. A declined
confirmation leaves the cell unchanged and exits with code 1.

Examples:
  timetable delete r4-c2
  timetable delete r4-c2 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCell(args[0])
			if err != nil {
				return err
			}
			confirm := newPromptConfirmer(cmd.InOrStdin(), rootOpts.formatter(cmd).GetErrWriter(), yes)

			return withApp(cmd, rootOpts, confirm, func(a *app) error {
				a.tt.SetEditModeEnabled(true)
				if err := a.tt.OpenCell(id); err != nil {
					return WrapExitError(ExitCommandError, "failed to open cell", err)
				}
				deleted, err := a.tt.DeleteCurrent(cmd.Context())
				if err != nil {
					a.tt.Close()
					return WrapExitError(ExitFailure, "failed to delete", err)
				}
				if !deleted {
					a.tt.Close()
					return NewExitError(ExitFailure, "delete cancelled")
				}
				if err := a.saved(); err != nil {
					return err
				}

				out := rootOpts.formatter(cmd)
				if rootOpts.Format == "json" {
					return out.Success(map[string]any{"cell": id.String(), "deleted": true})
				}
				return out.Success(id.Label() + " deleted")
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
