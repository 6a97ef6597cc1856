package cli

import (
	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase every cell and reset preferences",
		Long: `Erase all saved cells and reset the background color.

Asks for confirmation on stdin unless --yes is given.

Examples:
  timetable clear --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm := newPromptConfirmer(cmd.InOrStdin(), rootOpts.formatter(cmd).GetErrWriter(), yes)

			return withApp(cmd, rootOpts, confirm, func(a *app) error {
				cleared, err := a.tt.ClearAll(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "failed to clear", err)
				}
				if !cleared {
					return NewExitError(ExitFailure, "clear cancelled")
				}
				if err := a.saved(); err != nil {
					return err
				}

				out := rootOpts.formatter(cmd)
				if rootOpts.Format == "json" {
					return out.Success(map[string]bool{"cleared": true})
				}
				return out.Success("all data cleared")
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
