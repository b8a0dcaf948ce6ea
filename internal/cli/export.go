package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Type   string
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <address>",
		Short: "Export a task as text",
		Long: `Export the task at an item address as text/plain: the category, an
empty line, and the start time in epoch milliseconds.

A charset parameter in --type selects the output encoding.

Example:
  workint export /tasks/3
  workint export /tasks/3 --type "text/plain; charset=iso-8859-1" -o task.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "text/plain", "requested MIME type")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, address string, cmd *cobra.Command) error {
	sess, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	stream, err := sess.provider.OpenTypedStream(commandContext(cmd), address, opts.Type)
	if err != nil {
		return providerError("failed to open export", err)
	}
	defer stream.Close()

	var n int64
	if opts.Output == "" {
		n, err = io.Copy(cmd.OutOrStdout(), stream)
		if err != nil {
			err = WrapExitError(ExitFailure, "export failed", err)
		}
	} else {
		n, err = copyToFile(opts.Output, stream)
	}
	if err != nil {
		return err
	}
	sess.logger.Debug("exported task", "address", address, "type", stream.MIMEType, "bytes", n)
	return nil
}

// copyToFile writes r to a new file at path. The file is closed before
// returning so a failed flush is reported.
func copyToFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "failed to create output file", err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, WrapExitError(ExitFailure, "export failed", err)
	}
	return n, nil
}
