package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/ara/internal/core/pattern"
	"github.com/example/ara/internal/ports/secondary"
)

// ErrorRepository implements secondary.ErrorRepository with SQLite.
type ErrorRepository struct {
	db        DBTX
	batchSize int
}

// NewErrorRepository creates a new SQLite error repository.
func NewErrorRepository(db DBTX, batchSize int) *ErrorRepository {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ErrorRepository{db: db, batchSize: batchSize}
}

// contextSelect loads error contexts with LEFT JOINs, so that a broken
// ownership chain surfaces as NULL owner columns instead of a missing row.
const contextSelect = `SELECT er.id, er.step, er.step_definition, er.step_line, er.exception,
	s.id, s.feature_file, s.feature_name, s.name,
	r.id, r.country, r.type, r.type_is_browser, r.type_is_mobile, r.platform,
	e.id, e.project_id, e.release
	FROM errors er
	LEFT JOIN executed_scenarios s ON s.id = er.executed_scenario_id
	LEFT JOIN runs r ON r.id = s.run_id
	LEFT JOIN executions e ON e.id = r.execution_id`

// FindErrorIDsMatching pushes the criteria down to SQL.
func (r *ErrorRepository) FindErrorIDsMatching(ctx context.Context, projectID int64, criteria pattern.Criteria, candidateIDs []int64) ([]int64, error) {
	clause, clauseArgs := criteriaClause(criteria)
	base := "SELECT er.id" + errorContextFrom + " WHERE e.project_id = ? AND " + clause

	if candidateIDs == nil {
		args := append([]any{projectID}, clauseArgs...)
		rows, err := r.db.QueryContext(ctx, base+" ORDER BY er.id", args...)
		if err != nil {
			return nil, fmt.Errorf("failed to match errors: %w", err)
		}
		return scanIDs(rows)
	}

	var matched []int64
	for _, chunk := range chunks(candidateIDs, r.batchSize) {
		args := append([]any{projectID}, clauseArgs...)
		args = append(args, int64Args(chunk)...)
		rows, err := r.db.QueryContext(ctx,
			base+" AND er.id IN ("+placeholders(len(chunk))+") ORDER BY er.id", args...)
		if err != nil {
			return nil, fmt.Errorf("failed to match errors: %w", err)
		}
		ids, err := scanIDs(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matched errors: %w", err)
		}
		matched = append(matched, ids...)
	}
	return matched, nil
}

// FindContexts loads the matching context of errors.
func (r *ErrorRepository) FindContexts(ctx context.Context, projectID int64, ids []int64) ([]pattern.ErrorContext, error) {
	if ids == nil {
		rows, err := r.db.QueryContext(ctx, contextSelect+" WHERE e.project_id = ? ORDER BY er.id", projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to load error contexts: %w", err)
		}
		return scanContexts(rows)
	}

	var out []pattern.ErrorContext
	for _, chunk := range chunks(ids, r.batchSize) {
		rows, err := r.db.QueryContext(ctx,
			contextSelect+" WHERE er.id IN ("+placeholders(len(chunk))+") ORDER BY er.id", int64Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to load error contexts: %w", err)
		}
		contexts, err := scanContexts(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, contexts...)
	}
	return out, nil
}

// FindLinks returns the pattern links of each error.
func (r *ErrorRepository) FindLinks(ctx context.Context, errorIDs []int64) (map[int64][]secondary.PatternLink, error) {
	links := make(map[int64][]secondary.PatternLink)
	for _, chunk := range chunks(errorIDs, r.batchSize) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT po.error_id, pp.id, pp.problem_id
			 FROM problem_occurrences po
			 JOIN problem_patterns pp ON pp.id = po.problem_pattern_id
			 WHERE po.error_id IN (`+placeholders(len(chunk))+`)
			 ORDER BY po.error_id, pp.id`,
			int64Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to find error links: %w", err)
		}
		for rows.Next() {
			var errorID int64
			var link secondary.PatternLink
			if err := rows.Scan(&errorID, &link.PatternID, &link.ProblemID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan error link: %w", err)
			}
			links[errorID] = append(links[errorID], link)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return links, nil
}

// ListByPattern returns the contexts of the errors linked to a pattern.
func (r *ErrorRepository) ListByPattern(ctx context.Context, patternID int64) ([]pattern.ErrorContext, error) {
	rows, err := r.db.QueryContext(ctx,
		contextSelect+` JOIN problem_occurrences po ON po.error_id = er.id
		 WHERE po.problem_pattern_id = ? ORDER BY er.id`, patternID)
	if err != nil {
		return nil, fmt.Errorf("failed to list errors of pattern: %w", err)
	}
	return scanContexts(rows)
}

// ListIDsByProject returns every error ID of a project.
func (r *ErrorRepository) ListIDsByProject(ctx context.Context, projectID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT er.id"+errorContextFrom+" WHERE e.project_id = ? ORDER BY er.id", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list errors: %w", err)
	}
	return scanIDs(rows)
}

// ListIDsByScenarios returns error IDs grouped by scenario.
func (r *ErrorRepository) ListIDsByScenarios(ctx context.Context, scenarioIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64)
	for _, chunk := range chunks(scenarioIDs, r.batchSize) {
		rows, err := r.db.QueryContext(ctx,
			"SELECT executed_scenario_id, id FROM errors WHERE executed_scenario_id IN ("+placeholders(len(chunk))+") ORDER BY id",
			int64Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to list errors of scenarios: %w", err)
		}
		for rows.Next() {
			var scenarioID, id int64
			if err := rows.Scan(&scenarioID, &id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan error: %w", err)
			}
			out[scenarioID] = append(out[scenarioID], id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CountOrphans counts errors whose scenario, run or execution is missing.
// With nil ids the count spans every project, since project_id is only
// reachable through the broken chain.
func (r *ErrorRepository) CountOrphans(ctx context.Context, ids []int64) (int, error) {
	const orphans = `SELECT COUNT(*)
		FROM errors er
		LEFT JOIN executed_scenarios s ON s.id = er.executed_scenario_id
		LEFT JOIN runs r ON r.id = s.run_id
		LEFT JOIN executions e ON e.id = r.execution_id
		WHERE (s.id IS NULL OR r.id IS NULL OR e.id IS NULL)`

	if ids == nil {
		var n int
		if err := r.db.QueryRowContext(ctx, orphans).Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to count orphan errors: %w", err)
		}
		return n, nil
	}

	total := 0
	for _, chunk := range chunks(ids, r.batchSize) {
		var n int
		err := r.db.QueryRowContext(ctx,
			orphans+" AND er.id IN ("+placeholders(len(chunk))+")", int64Args(chunk)...,
		).Scan(&n)
		if err != nil {
			return 0, fmt.Errorf("failed to count orphan errors: %w", err)
		}
		total += n
	}
	return total, nil
}

// DeleteByIDs removes errors; their occurrences cascade.
func (r *ErrorRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	for _, chunk := range chunks(ids, r.batchSize) {
		if _, err := r.db.ExecContext(ctx,
			"DELETE FROM errors WHERE id IN ("+placeholders(len(chunk))+")", int64Args(chunk)...,
		); err != nil {
			return fmt.Errorf("failed to delete errors: %w", err)
		}
	}
	return nil
}

func scanContexts(rows *sql.Rows) ([]pattern.ErrorContext, error) {
	defer rows.Close()
	var out []pattern.ErrorContext
	for rows.Next() {
		var (
			ec                              pattern.ErrorContext
			scenarioID, runID, executionID  sql.NullInt64
			projectID                       sql.NullInt64
			featureFile, featureName, name  sql.NullString
			country, typ, platform, release sql.NullString
			isBrowser, isMobile             sql.NullBool
		)
		err := rows.Scan(&ec.ErrorID, &ec.Step, &ec.StepDefinition, &ec.StepLine, &ec.Exception,
			&scenarioID, &featureFile, &featureName, &name,
			&runID, &country, &typ, &isBrowser, &isMobile, &platform,
			&executionID, &projectID, &release)
		if err != nil {
			return nil, fmt.Errorf("failed to scan error context: %w", err)
		}

		if scenarioID.Valid {
			ec.Scenario = &pattern.ScenarioContext{
				ID:          scenarioID.Int64,
				FeatureFile: featureFile.String,
				FeatureName: featureName.String,
				Name:        name.String,
			}
		}
		if runID.Valid {
			ec.Run = &pattern.RunContext{
				ID:            runID.Int64,
				Country:       country.String,
				Type:          typ.String,
				TypeIsBrowser: isBrowser.Bool,
				TypeIsMobile:  isMobile.Bool,
				Platform:      platform.String,
			}
		}
		if executionID.Valid {
			ec.Execution = &pattern.ExecutionContext{
				ID:        executionID.Int64,
				ProjectID: projectID.Int64,
				Release:   release.String,
			}
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}

var _ secondary.ErrorRepository = (*ErrorRepository)(nil)
