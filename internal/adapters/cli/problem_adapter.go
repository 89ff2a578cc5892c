// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/ara/internal/ports/primary"
)

// ProblemAdapter is a thin adapter that translates CLI operations to ProblemService calls.
type ProblemAdapter struct {
	service primary.ProblemService
	out     io.Writer
}

// NewProblemAdapter creates a new ProblemAdapter with the given service.
func NewProblemAdapter(service primary.ProblemService, out io.Writer) *ProblemAdapter {
	return &ProblemAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a problem with its first pattern.
func (a *ProblemAdapter) Create(ctx context.Context, req primary.CreateProblemRequest) error {
	resp, err := a.service.CreateProblem(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created problem %d: %s (pattern %d)\n", resp.ProblemID, req.Name, resp.PatternID)
	printAssignment(a.out, resp.Assignment)
	return nil
}

// List lists problems matching the filters.
func (a *ProblemAdapter) List(ctx context.Context, filters primary.ProblemFilters) error {
	problems, err := a.service.ListProblems(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list problems: %w", err)
	}

	if len(problems) == 0 {
		fmt.Fprintln(a.out, "No problems found")
		return nil
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tSTATUS\tDEFECT\tLAST SEEN\tNAME")
	for _, p := range problems {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, statusLabel(p.EffectiveStatus), orDash(p.DefectID), formatTime(p.LastSeen), p.Name)
	}
	return tw.Flush()
}

// Show displays a problem with its patterns and occurrence statistics.
func (a *ProblemAdapter) Show(ctx context.Context, problemID int64) (*primary.Problem, error) {
	p, err := a.service.GetProblem(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}

	fmt.Fprintf(a.out, "\nProblem: %d\n", p.ID)
	fmt.Fprintf(a.out, "Name:    %s\n", p.Name)
	fmt.Fprintf(a.out, "Status:  %s\n", statusLabel(p.EffectiveStatus))
	if p.Comment != "" {
		fmt.Fprintf(a.out, "Comment: %s\n", p.Comment)
	}
	if p.DefectID != "" {
		fmt.Fprintf(a.out, "Defect:  %s (%s)\n", p.DefectID, p.DefectExistence)
	}
	if p.ClosingDateTime != nil {
		fmt.Fprintf(a.out, "Closed:  %s\n", formatTime(p.ClosingDateTime))
	}
	fmt.Fprintf(a.out, "Seen:    %s .. %s\n", formatTime(p.FirstSeen), formatTime(p.LastSeen))

	if agg := p.Aggregate; agg != nil {
		fmt.Fprintf(a.out, "\n%d errors in %d scenarios (first: %s)\n", agg.ErrorCount, agg.ScenarioCount, orDash(agg.FirstScenario))
		tw := newTable(a.out)
		fmt.Fprintf(tw, "  branches\t%d\t%s\n", agg.BranchCount, orDash(agg.FirstBranch))
		fmt.Fprintf(tw, "  releases\t%d\t%s\n", agg.ReleaseCount, orDash(agg.FirstRelease))
		fmt.Fprintf(tw, "  versions\t%d\t%s\n", agg.VersionCount, orDash(agg.FirstVersion))
		fmt.Fprintf(tw, "  countries\t%d\t%s\n", agg.CountryCount, orDash(agg.FirstCountry))
		fmt.Fprintf(tw, "  types\t%d\t%s\n", agg.TypeCount, orDash(agg.FirstType))
		fmt.Fprintf(tw, "  platforms\t%d\t%s\n", agg.PlatformCount, orDash(agg.FirstPlatform))
		if err := tw.Flush(); err != nil {
			return nil, err
		}
	}

	if len(p.Patterns) > 0 {
		fmt.Fprintln(a.out, "\nPatterns:")
		for _, pt := range p.Patterns {
			fmt.Fprintf(a.out, "  - %d: %s\n", pt.ID, describeCriteria(pt.Criteria))
		}
	}
	fmt.Fprintln(a.out)

	return p, nil
}

// Update renames a problem and/or changes its comment.
func (a *ProblemAdapter) Update(ctx context.Context, problemID int64, name, comment string) error {
	if name == "" && comment == "" {
		return fmt.Errorf("must specify at least --name or --comment")
	}

	err := a.service.UpdateProblem(ctx, primary.UpdateProblemRequest{ProblemID: problemID, Name: name, Comment: comment})
	if err != nil {
		return fmt.Errorf("failed to update problem: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Problem %d updated\n", problemID)
	return nil
}

// Close closes a problem.
func (a *ProblemAdapter) Close(ctx context.Context, problemID int64) error {
	if err := a.service.CloseProblem(ctx, problemID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Problem %d closed\n", problemID)
	return nil
}

// Reopen reopens a problem.
func (a *ProblemAdapter) Reopen(ctx context.Context, problemID int64) error {
	if err := a.service.ReopenProblem(ctx, problemID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Problem %d reopened\n", problemID)
	return nil
}

// SetDefect records or clears the defect of a problem.
func (a *ProblemAdapter) SetDefect(ctx context.Context, problemID int64, defectID, existence string) error {
	err := a.service.SetDefect(ctx, primary.SetDefectRequest{ProblemID: problemID, DefectID: defectID, Existence: existence})
	if err != nil {
		return fmt.Errorf("failed to set defect: %w", err)
	}

	if defectID == "" {
		fmt.Fprintf(a.out, "✓ Defect of problem %d removed\n", problemID)
		return nil
	}
	fmt.Fprintf(a.out, "✓ Problem %d linked to defect %s\n", problemID, defectID)
	return nil
}

// Delete deletes a problem.
func (a *ProblemAdapter) Delete(ctx context.Context, problemID int64) error {
	p, err := a.service.GetProblem(ctx, problemID)
	if err != nil {
		return fmt.Errorf("failed to get problem: %w", err)
	}

	if err := a.service.DeleteProblem(ctx, problemID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Deleted problem %d: %s\n", p.ID, p.Name)
	return nil
}
