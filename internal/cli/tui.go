package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/timetable/internal/tui"
)

// NewTUICommand creates the interactive editor command.
func NewTUICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive editor",
		Long: `Open the full-screen timetable editor.

Move with the arrow keys, press enter to open a cell, e to toggle edit mode,
b to change the background and q to quit. Logs go to stderr; redirect it to
a file to keep them off the screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm := &tui.Confirmer{}
			return withApp(cmd, rootOpts, confirm, func(a *app) error {
				m := tui.New(cmd.Context(), a.tt, a.board, confirm)
				if err := tui.Run(cmd.Context(), m); err != nil {
					return WrapExitError(ExitFailure, "editor failed", err)
				}
				return a.saved()
			})
		},
	}
}
