package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/ara/internal/adapters/filesystem"
	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/wire"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Index one execution document",
		Long: `Index an execution graph (YAML or JSON) into the project.

Re-indexing the same job updates the execution in place: errors that
disappeared are removed, new errors are classified against every pattern
of the project. A DONE job sends the quality notification.

Use "-" to read the document from stdin (--format is then required).

Examples:
  ara index results/day.yaml
  cat day.json | ara index - --format json --project 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readExecution(args[0], format)
			if err != nil {
				return err
			}

			project, err := currentProject()
			if err != nil {
				return err
			}
			adapter, err := wire.IndexAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Index(cmd.Context(), project, *in)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Document format: yaml or json (default from file extension)")
	return cmd
}

func readExecution(path, format string) (*primary.ExecutionInput, error) {
	if path != "-" {
		if format == "" {
			return filesystem.LoadExecution(path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return filesystem.DecodeExecution(f, filesystem.Format(format))
	}

	if format == "" {
		return nil, fmt.Errorf("--format is required when reading stdin")
	}
	return filesystem.DecodeExecution(os.Stdin, filesystem.Format(format))
}
