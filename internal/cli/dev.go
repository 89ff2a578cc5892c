package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/ara/internal/db"
	"github.com/example/ara/internal/wire"
)

// DevCmd returns the dev command group for development utilities.
func DevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "dev",
		Short:  "Development utilities",
		Hidden: true,
	}

	cmd.AddCommand(devSeedCmd())
	return cmd
}

func devSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo execution into the project",
		Long: `Insert a small finished execution with failed scenarios into the
current project, to try the problem and scenario commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := currentProject()
			if err != nil {
				return err
			}
			database, err := wire.DB()
			if err != nil {
				return err
			}
			if err := db.SeedFixtures(database, project); err != nil {
				return fmt.Errorf("failed to seed fixtures: %w", err)
			}
			fmt.Printf("✓ Seeded demo execution into project %d\n", project)
			return nil
		},
	}
}
