package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/workint/internal/config"
	"github.com/roach88/workint/internal/provider"
	"github.com/roach88/workint/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides the configured database when set
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the workint CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "workint",
		Short: "workint - work interruption tracker",
		Long: `Track work, breaks, meetings and interrupts as time-sliced tasks.

Tasks are addressed by path (/tasks, /tasks/{id}) or by content URI
(content://de.nenick.workinterruption/tasks/{id}).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.FileName+")")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite database file (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewTypeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewInitConfigCommand(opts))

	return cmd
}

// Execute runs the root command with os.Args and returns the process exit
// code. Errors are reported on stderr, or on stdout as a JSON error
// response with --format json.
func Execute(version string) int {
	cmd := NewRootCommand()
	cmd.Version = version
	return run(cmd, os.Stdout, os.Stderr)
}

func run(cmd *cobra.Command, stdout, stderr io.Writer) int {
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	format, _ := cmd.PersistentFlags().GetString("format")
	if format == "json" {
		out := &OutputFormatter{Format: format, Writer: stdout}
		_ = out.Error(string(provider.Code(err)), err.Error(), nil)
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}

	// RunE functions return ExitErrors; anything else is a flag or
	// argument error raised by cobra.
	if !isExitError(err) {
		return ExitCommandError
	}
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// loadConfig reads the config file and applies flag overrides.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.DB = o.Database
		if err := cfg.Validate(); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --db", err)
		}
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger. --verbose forces debug level.
func (o *RootOptions) newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
}

// session is an open store with its provider, owned by one command.
type session struct {
	cfg      *config.Config
	store    *store.Store
	provider *provider.Provider
	logger   *slog.Logger
}

// openSession loads config, opens the database and builds the provider.
func (o *RootOptions) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := o.newLogger(cmd, cfg)

	logger.Debug("opening database", "path", cfg.DB)
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	p := provider.New(st,
		provider.WithAuthority(cfg.Authority),
		provider.WithLogger(logger),
		provider.WithStrictExport(cfg.Export.Strict),
	)
	return &session{cfg: cfg, store: st, provider: p, logger: logger}, nil
}

// Close stops the provider and closes the database.
func (s *session) Close() {
	s.provider.Close()
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isExitError reports whether err already carries an exit code.
func isExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
