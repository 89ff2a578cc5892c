// Package cli holds the cobra command tree of the ara binary.
package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/ara/internal/version"
	"github.com/example/ara/internal/wire"
)

// global flags
var (
	configDir string
	verbosity int
	quiet     bool
	projectID int64
)

// RootCmd returns the root command with every subcommand attached.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ara",
		Short:   "ARA - triage of automated test failures",
		Version: version.String(),
		Long: `ARA indexes the results of CI test executions, groups their errors into
problems through patterns, and tells which failed scenarios are already
handled.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			wire.Configure(wire.Options{Dir: configDir, Verbosity: verbosity, Quiet: quiet})
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configDir, "dir", ".", "Directory holding .ara/config.json")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v, -vv)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	flags.Int64VarP(&projectID, "project", "p", 0, "Project ID (default from config)")

	rootCmd.AddCommand(InitCmd())
	rootCmd.AddCommand(IndexCmd())
	rootCmd.AddCommand(ClassifyCmd())
	rootCmd.AddCommand(ProblemCmd())
	rootCmd.AddCommand(PatternCmd())
	rootCmd.AddCommand(ScenarioCmd())
	rootCmd.AddCommand(DevCmd())
	return rootCmd
}

// currentProject resolves the --project flag, falling back to config.
func currentProject() (int64, error) {
	if projectID != 0 {
		return projectID, nil
	}
	cfg, err := wire.Config()
	if err != nil {
		return 0, err
	}
	return cfg.Project.Default, nil
}

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", kind, raw)
	}
	return id, nil
}

func parseIDs(kind string, raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(kind, r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
