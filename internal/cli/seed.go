package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/workint/internal/config"
	"github.com/roach88/workint/internal/seed"
)

// seeded is the result of seed.
type seeded struct {
	Paths []string `json:"paths"`
	Count int      `json:"count"`
}

func (s seeded) String() string {
	if s.Count == 0 {
		return "seeded 0 tasks"
	}
	return fmt.Sprintf("seeded %d task(s): %s", s.Count, strings.Join(s.Paths, " "))
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := rootOpts

	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Insert tasks from a YAML fixture",
		Long: `Insert every task of a YAML fixture.

The whole fixture is validated first; an invalid task rejects the file
and nothing is inserted.

Example:
  workint seed ./testdata/tasks.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := seed.LoadFile(args[0])
			if err != nil {
				if errors.Is(err, seed.ErrInvalidFixture) {
					return WrapExitError(ExitCommandError, "invalid fixture", err)
				}
				return WrapExitError(ExitCommandError, "failed to read fixture", err)
			}

			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			addrs, err := seed.Apply(commandContext(cmd), sess.provider, tasks)
			result := seeded{Paths: make([]string, 0, len(addrs))}
			for _, addr := range addrs {
				result.Paths = append(result.Paths, addr.Path())
			}
			result.Count = len(result.Paths)
			if err != nil {
				return providerError(fmt.Sprintf("seed stopped after %d task(s)", result.Count), err)
			}

			opts.formatter(cmd).VerboseLog("seeded %d task(s) from %s", result.Count, args[0])
			return opts.formatter(cmd).Success(result)
		},
	}
}

// NewInitConfigCommand creates the init-config command.
func NewInitConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := rootOpts
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewExitError(ExitCommandError, fmt.Sprintf("%s already exists (use --force to overwrite)", path))
			}
			if err := config.WriteDefault(path); err != nil {
				return WrapExitError(ExitCommandError, "failed to write config", err)
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("wrote %s", path))
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
