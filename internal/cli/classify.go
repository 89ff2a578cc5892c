package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/ara/internal/wire"
)

// ClassifyCmd returns the classify command group
func ClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Re-run error classification",
		Long: `Match errors against patterns outside of an indexing pass.
Existing links are kept: classifying twice creates no duplicate.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new <error-id>...",
		Short: "Match errors against every pattern of the project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs("error", args)
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
			return adapter.ClassifyNew(cmd.Context(), project, ids)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pattern <pattern-id>",
		Short: "Match one pattern against every error of its project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("pattern", args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.IndexAdapter()
			if err != nil {
				return err
			}
			return adapter.ClassifyPattern(cmd.Context(), id)
		},
	})

	return cmd
}
