package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/ara/internal/config"
	"github.com/example/ara/internal/db"
	"github.com/example/ara/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ARA configuration and database",
		Long: `Write .ara/config.json with default settings (unless it exists) and
create the database with the current schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := filepath.Join(configDir, ".ara", "config.json")
			if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
				cfg := config.DefaultConfig()
				cfg.Database.Path = dbPath
				if err := config.SaveConfig(configDir, cfg); err != nil {
					return err
				}
				fmt.Printf("✓ Config written to %s\n", configPath)
			} else if err != nil {
				return fmt.Errorf("failed to check config: %w", err)
			}

			cfg, err := wire.Config()
			if err != nil {
				return err
			}
			if _, err := wire.DB(); err != nil {
				return err
			}

			location := cfg.Database.Path
			if location == "" {
				location, _ = db.DefaultPath()
			}
			fmt.Printf("✓ Database ready at %s (schema v%d)\n", location, db.LatestVersion())
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  ara problem create \"Gateway timeouts\" --exception java.net.SocketTimeoutException")
			fmt.Println("  ara index execution.yaml")
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Database path written to a new config (default ~/.ara/ara.db)")
	return cmd
}
