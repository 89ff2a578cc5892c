package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/ara/internal/wire"
)

// PatternCmd returns the pattern command group
func PatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Manage the patterns of problems",
		Long: `Patterns decide which errors belong to a problem. Every change
re-classifies the errors of the project.`,
	}

	cmd.AddCommand(patternAddCmd())
	cmd.AddCommand(patternEditCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <pattern-id>",
		Short: "Delete a pattern (and its problem when no pattern is left)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("pattern", args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.PatternAdapter()
			if err != nil {
				return err
			}
			return adapter.Delete(cmd.Context(), id)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "move <pattern-id> <problem-id>",
		Short: "Move a pattern with its errors to another problem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("pattern", args[0])
			if err != nil {
				return err
			}
			to, err := parseID("problem", args[1])
			if err != nil {
				return err
			}
			adapter, err := wire.PatternAdapter()
			if err != nil {
				return err
			}
			return adapter.Move(cmd.Context(), id, to)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list <problem-id>",
		Short: "List the patterns of a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("problem", args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.PatternAdapter()
			if err != nil {
				return err
			}
			return adapter.List(cmd.Context(), id)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "errors <pattern-id>",
		Short: "List the errors linked to a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("pattern", args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.PatternAdapter()
			if err != nil {
				return err
			}
			return adapter.Errors(cmd.Context(), id)
		},
	})
	return cmd
}

func patternAddCmd() *cobra.Command {
	var cf criteriaFlags

	cmd := &cobra.Command{
		Use:   "add <problem-id>",
		Short: "Add a pattern to a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("problem", args[0])
			if err != nil {
				return err
			}
			criteria, err := cf.criteria()
			if err != nil {
				return err
			}
			adapter, err := wire.PatternAdapter()
			if err != nil {
				return err
			}
			return adapter.Add(cmd.Context(), id, criteria)
		},
	}

	addCriteriaFlags(cmd, &cf)
	return cmd
}

func patternEditCmd() *cobra.Command {
	var cf criteriaFlags

	cmd := &cobra.Command{
		Use:   "edit <pattern-id>",
		Short: "Replace the criteria of a pattern",
		Long: `Replace every criterion of a pattern with the given flags. The errors
of the old criteria are unlinked and the new criteria are matched against
every error of the project.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("pattern", args[0])
			if err != nil {
				return err
			}
			criteria, err := cf.criteria()
			if err != nil {
				return err
			}
			adapter, err := wire.PatternAdapter()
			if err != nil {
				return err
			}
			return adapter.Edit(cmd.Context(), id, criteria)
		},
	}

	addCriteriaFlags(cmd, &cf)
	return cmd
}
