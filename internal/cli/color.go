package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/timetable/internal/grid"
)

// NewColorCommand creates the color command.
func NewColorCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "color <#rrggbb>",
		Short: "Set the background color",
		Long: `Set and save the page background color.

Without an argument the current color is printed.

Examples:
  timetable color
  timetable color "#e3f2fd"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, nil, func(a *app) error {
				out := rootOpts.formatter(cmd)
				if len(args) == 1 {
					err := a.tt.SetBackgroundColor(cmd.Context(), args[0])
					if errors.Is(err, grid.ErrInvalidColor) {
						return WrapExitError(ExitCommandError, fmt.Sprintf("invalid color %q", args[0]), err)
					}
					if err != nil {
						return WrapExitError(ExitFailure, "failed to set color", err)
					}
					if err := a.saved(); err != nil {
						return err
					}
				}

				color := a.tt.Preferences().BackgroundColor
				if rootOpts.Format == "json" {
					return out.Success(map[string]string{"background": color})
				}
				return out.Success("background " + color)
			})
		},
	}
}
