package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/ara/internal/ports/primary"
)

// PatternAdapter is a thin adapter that translates CLI operations to PatternService calls.
type PatternAdapter struct {
	service primary.PatternService
	out     io.Writer
}

// NewPatternAdapter creates a new PatternAdapter with the given service.
func NewPatternAdapter(service primary.PatternService, out io.Writer) *PatternAdapter {
	return &PatternAdapter{service: service, out: out}
}

// Add adds a pattern to a problem.
func (a *PatternAdapter) Add(ctx context.Context, problemID int64, criteria primary.Criteria) error {
	resp, err := a.service.AddPattern(ctx, primary.AddPatternRequest{ProblemID: problemID, Criteria: criteria})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Added pattern %d to problem %d: %s\n", resp.PatternID, resp.ProblemID, describeCriteria(criteria))
	printAssignment(a.out, resp.Assignment)
	return nil
}

// Edit replaces the criteria of a pattern.
func (a *PatternAdapter) Edit(ctx context.Context, patternID int64, criteria primary.Criteria) error {
	resp, err := a.service.UpdatePattern(ctx, primary.UpdatePatternRequest{PatternID: patternID, Criteria: criteria})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Pattern %d updated: %s\n", resp.PatternID, describeCriteria(criteria))
	printAssignment(a.out, resp.Assignment)
	return nil
}

// Delete deletes a pattern.
func (a *PatternAdapter) Delete(ctx context.Context, patternID int64) error {
	resp, err := a.service.DeletePattern(ctx, patternID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Deleted pattern %d\n", patternID)
	if resp.ProblemDeleted {
		fmt.Fprintf(a.out, "✓ Deleted problem %d (no pattern left)\n", resp.ProblemID)
	}
	return nil
}

// Move moves a pattern to another problem.
func (a *PatternAdapter) Move(ctx context.Context, patternID, toProblemID int64) error {
	err := a.service.MovePattern(ctx, primary.MovePatternRequest{PatternID: patternID, ToProblemID: toProblemID})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Pattern %d moved to problem %d\n", patternID, toProblemID)
	return nil
}

// List lists the patterns of a problem.
func (a *PatternAdapter) List(ctx context.Context, problemID int64) error {
	patterns, err := a.service.ListPatterns(ctx, problemID)
	if err != nil {
		return fmt.Errorf("failed to list patterns: %w", err)
	}

	if len(patterns) == 0 {
		fmt.Fprintln(a.out, "No patterns found")
		return nil
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tCREATED\tCRITERIA")
	for _, p := range patterns {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, formatTime(&p.CreationDateTime), describeCriteria(p.Criteria))
	}
	return tw.Flush()
}

// Errors lists the errors a pattern is linked to.
func (a *PatternAdapter) Errors(ctx context.Context, patternID int64) error {
	errs, err := a.service.ListPatternErrors(ctx, patternID)
	if err != nil {
		return fmt.Errorf("failed to list pattern errors: %w", err)
	}

	if len(errs) == 0 {
		fmt.Fprintln(a.out, "No errors linked")
		return nil
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ERROR\tEXECUTION\tRUN\tSCENARIO\tSTEP\tEXCEPTION")
	for _, e := range errs {
		fmt.Fprintf(tw, "%d\t%d\t%s/%s/%s\t%s:%s\t%d %s\t%s\n",
			e.ErrorID, e.ExecutionID, e.Country, e.Type, orDash(e.Platform),
			e.FeatureFile, e.ScenarioName, e.StepLine, e.Step, firstLine(e.Exception))
	}
	return tw.Flush()
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
