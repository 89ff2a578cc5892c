package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/ara/internal/ports/primary"
)

// IndexAdapter translates indexing, classification and handling operations.
type IndexAdapter struct {
	indexing       primary.IndexingService
	classification primary.ClassificationService
	scenarios      primary.ScenarioService
	out            io.Writer
}

// NewIndexAdapter creates a new IndexAdapter with the given services.
func NewIndexAdapter(indexing primary.IndexingService, classification primary.ClassificationService, scenarios primary.ScenarioService, out io.Writer) *IndexAdapter {
	return &IndexAdapter{indexing: indexing, classification: classification, scenarios: scenarios, out: out}
}

// Index indexes one execution document.
func (a *IndexAdapter) Index(ctx context.Context, projectID int64, in primary.ExecutionInput) (*primary.IndexResult, error) {
	result, err := a.indexing.IndexExecution(ctx, primary.IndexExecutionRequest{ProjectID: projectID, Execution: in})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "✓ Indexed execution %d (%s)\n", result.ExecutionID, result.JobStatus)
	fmt.Fprintf(a.out, "  %d new errors, %d removed, %d new occurrences\n",
		len(result.NewErrorIDs), len(result.RemovedErrorIDs), result.InsertedCount)
	fmt.Fprintf(a.out, "  updated problems: %s\n", formatIDs(result.UpdatedProblemIDs))
	if result.Notified {
		fmt.Fprintln(a.out, "  quality notification sent")
	}
	return result, nil
}

// ClassifyNew matches errors against every pattern of the project.
func (a *IndexAdapter) ClassifyNew(ctx context.Context, projectID int64, errorIDs []int64) error {
	result, err := a.classification.AssignNewErrors(ctx, primary.AssignNewErrorsRequest{ProjectID: projectID, ErrorIDs: errorIDs})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Classified %d errors into problems %s\n", len(errorIDs), formatIDs(result.ProblemIDs))
	printAssignment(a.out, result)
	return nil
}

// ClassifyPattern matches one pattern against every error of its project.
func (a *IndexAdapter) ClassifyPattern(ctx context.Context, patternID int64) error {
	result, err := a.classification.AssignExistingErrors(ctx, patternID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Classified existing errors with pattern %d\n", patternID)
	printAssignment(a.out, result)
	return nil
}

// Handling displays the handling of one executed scenario.
func (a *IndexAdapter) Handling(ctx context.Context, scenarioID int64) error {
	h, err := a.scenarios.GetHandling(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("failed to get scenario handling: %w", err)
	}

	fmt.Fprintf(a.out, "\nScenario: %d\n", h.ScenarioID)
	fmt.Fprintf(a.out, "Name:     %s:%s\n", h.FeatureFile, h.Name)
	fmt.Fprintf(a.out, "Run:      %s/%s/%s\n", h.Country, h.Type, orDash(h.Platform))
	fmt.Fprintf(a.out, "Handling: %s\n", handlingLabel(h.Handling))
	fmt.Fprintf(a.out, "Errors:   %d\n", h.ErrorCount)
	fmt.Fprintf(a.out, "Problems: %s\n\n", formatIDs(h.ProblemIDs))
	return nil
}

// ExecutionHandling displays the handling of every scenario of an execution.
func (a *IndexAdapter) ExecutionHandling(ctx context.Context, executionID int64) error {
	handlings, err := a.scenarios.ListExecutionHandling(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to list scenario handling: %w", err)
	}

	if len(handlings) == 0 {
		fmt.Fprintln(a.out, "No scenarios found")
		return nil
	}

	counts := make(map[string]int)
	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tRUN\tHANDLING\tERRORS\tPROBLEMS\tSCENARIO")
	for _, h := range handlings {
		counts[h.Handling]++
		fmt.Fprintf(tw, "%d\t%s/%s\t%s\t%d\t%s\t%s:%s\n",
			h.ScenarioID, h.Country, h.Type, handlingLabel(h.Handling), h.ErrorCount, formatIDs(h.ProblemIDs), h.FeatureFile, h.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n%s success, %s handled, %s unhandled\n",
		color.New(color.FgGreen).Sprint(counts["SUCCESS"]),
		color.New(color.FgYellow).Sprint(counts["HANDLED"]),
		color.New(color.FgRed).Sprint(counts["UNHANDLED"]))
	return nil
}
