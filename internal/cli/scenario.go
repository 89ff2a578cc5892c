package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/ara/internal/wire"
)

// ScenarioCmd returns the scenario command group
func ScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Show how failed scenarios are handled",
		Long: `A scenario is SUCCESS without error, HANDLED when one of its errors
belongs to a problem that did not reappear, UNHANDLED otherwise.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "handling <scenario-id>",
		Short: "Show the handling of one executed scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("scenario", args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.IndexAdapter()
			if err != nil {
				return err
			}
			return adapter.Handling(cmd.Context(), id)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "execution <execution-id>",
		Short: "Show the handling of every scenario of an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("execution", args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.IndexAdapter()
			if err != nil {
				return err
			}
			return adapter.ExecutionHandling(cmd.Context(), id)
		},
	})

	return cmd
}
