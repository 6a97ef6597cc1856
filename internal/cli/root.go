package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/timetable/internal/config"
	"github.com/roach88/timetable/internal/grid"
	"github.com/roach88/timetable/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DB         string
	ConfigFile string
	LogFormat  string

	// Resolved in PersistentPreRunE.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the timetable CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "timetable",
		Short:   "timetable - weekly class timetable editor",
		Long:    "A Monday to Friday, six-period class timetable with per-cell details and a 15-item assignment checklist.",
		Version: grid.AppVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to the SQLite database (default from config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: user and project timetable.toml)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json|logfmt)")

	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewOpenCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewToggleCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewColorCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewTUICommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd, opts
}

// resolve loads configuration, applies explicit flags on top and installs
// the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DB = o.DB
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.LogFormat
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Prefix: "timetable",
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	slog.SetDefault(logger)

	o.Config = cfg
	o.Logger = logger
	logger.Debug("configuration resolved", "db", cfg.DB, "files", cfg.Files)
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// Execute runs the root command with args under ctx. In JSON mode a failed
// command also writes an error response to stdout.
func Execute(ctx context.Context, args []string) error {
	cmd, opts := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil && opts.Format == "json" {
		opts.formatter(cmd).Error(errorCode(err), err.Error(), nil)
	}
	return err
}

// errorCode maps an exit code to the code reported in JSON error responses.
func errorCode(err error) string {
	if GetExitCode(err) == ExitCommandError {
		return "E002"
	}
	return "E001"
}
