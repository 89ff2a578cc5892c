package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/wire"
)

// ProblemCmd returns the problem command group
func ProblemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problem",
		Short: "Manage problems (known causes of failures)",
		Long:  "Create, list, and manage the problems errors are grouped into",
	}

	cmd.AddCommand(problemCreateCmd())
	cmd.AddCommand(problemListCmd())
	cmd.AddCommand(problemShowCmd())
	cmd.AddCommand(problemUpdateCmd())
	cmd.AddCommand(problemIDCmd("close", "Close a problem", func(cmd *cobra.Command, id int64) error {
		adapter, err := wire.ProblemAdapter()
		if err != nil {
			return err
		}
		return adapter.Close(cmd.Context(), id)
	}))
	cmd.AddCommand(problemIDCmd("reopen", "Reopen a closed problem", func(cmd *cobra.Command, id int64) error {
		adapter, err := wire.ProblemAdapter()
		if err != nil {
			return err
		}
		return adapter.Reopen(cmd.Context(), id)
	}))
	cmd.AddCommand(problemIDCmd("delete", "Delete a problem with its patterns", func(cmd *cobra.Command, id int64) error {
		adapter, err := wire.ProblemAdapter()
		if err != nil {
			return err
		}
		return adapter.Delete(cmd.Context(), id)
	}))
	cmd.AddCommand(problemDefectCmd())
	return cmd
}

func problemIDCmd(use, short string, run func(cmd *cobra.Command, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <problem-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("problem", args[0])
			if err != nil {
				return err
			}
			return run(cmd, id)
		},
	}
}

func problemCreateCmd() *cobra.Command {
	var (
		comment  string
		defectID string
		cf       criteriaFlags
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a problem with its first pattern",
		Long: `Create a problem and its first pattern from the criteria flags, then link
every existing error of the project that the pattern matches.

A pattern without any criterion is a catch-all: it matches every error.

Examples:
  ara problem create "Gateway timeouts" --exception java.net.SocketTimeoutException
  ara problem create "Receipt mail" --step "the receipt" --step-starts-with --country fr`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := cf.criteria()
			if err != nil {
				return err
			}
			project, err := currentProject()
			if err != nil {
				return err
			}
			adapter, err := wire.ProblemAdapter()
			if err != nil {
				return err
			}
			return adapter.Create(cmd.Context(), primary.CreateProblemRequest{
				ProjectID: project,
				Name:      args[0],
				Comment:   comment,
				DefectID:  defectID,
				Criteria:  criteria,
			})
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "Free text comment")
	cmd.Flags().StringVar(&defectID, "defect", "", "External defect ID")
	addCriteriaFlags(cmd, &cf)
	return cmd
}

func problemListCmd() *cobra.Command {
	var filters primary.ProblemFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := currentProject()
			if err != nil {
				return err
			}
			filters.ProjectID = project
			adapter, err := wire.ProblemAdapter()
			if err != nil {
				return err
			}
			return adapter.List(cmd.Context(), filters)
		},
	}

	cmd.Flags().StringVar(&filters.Name, "name", "", "Name contains (case-insensitive)")
	cmd.Flags().StringVar(&filters.Status, "status", "", "OPEN, CLOSED, REAPPEARED, OPEN_OR_REAPPEARED or CLOSED_OR_REAPPEARED")
	cmd.Flags().StringVar(&filters.DefectID, "defect", "", `Defect ID, "none" for problems without defect`)
	cmd.Flags().StringVar(&filters.DefectExistence, "defect-existence", "", "EXISTS, NONEXISTENT or UNKNOWN")
	cmd.Flags().IntVar(&filters.Limit, "limit", 0, "Maximum number of problems")
	return cmd
}

func problemShowCmd() *cobra.Command {
	return problemIDCmd("show", "Show problem details and statistics", func(cmd *cobra.Command, id int64) error {
		adapter, err := wire.ProblemAdapter()
		if err != nil {
			return err
		}
		_, err = adapter.Show(cmd.Context(), id)
		return err
	})
}

func problemUpdateCmd() *cobra.Command {
	var name, comment string

	cmd := problemIDCmd("update", "Rename a problem or change its comment", func(cmd *cobra.Command, id int64) error {
		adapter, err := wire.ProblemAdapter()
		if err != nil {
			return err
		}
		return adapter.Update(cmd.Context(), id, name, comment)
	})
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&comment, "comment", "", "New comment")
	return cmd
}

func problemDefectCmd() *cobra.Command {
	var existence string

	cmd := &cobra.Command{
		Use:   "defect <problem-id> [defect-id]",
		Short: "Link a problem to a defect, or unlink it without defect-id",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("problem", args[0])
			if err != nil {
				return err
			}
			var defectID string
			if len(args) == 2 {
				defectID = args[1]
			}
			adapter, err := wire.ProblemAdapter()
			if err != nil {
				return err
			}
			return adapter.SetDefect(cmd.Context(), id, defectID, existence)
		},
	}

	cmd.Flags().StringVar(&existence, "existence", "UNKNOWN", "EXISTS, NONEXISTENT or UNKNOWN")
	return cmd
}
