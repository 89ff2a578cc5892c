package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/ara/internal/core/indexing"
	"github.com/example/ara/internal/ports/secondary"
)

// ExecutionRepository implements secondary.ExecutionRepository with SQLite.
type ExecutionRepository struct {
	db DBTX
}

// NewExecutionRepository creates a new SQLite execution repository.
func NewExecutionRepository(db DBTX) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

const executionColumns = `id, project_id, job_url, job_link, name, branch, release, version, status, test_date_time`

const scenarioSelect = `SELECT s.id, r.execution_id, r.id, r.country, r.type, r.platform,
	s.feature_file, s.feature_name, s.name, s.line
	FROM executed_scenarios s
	JOIN runs r ON r.id = s.run_id`

// FindPreviousByJobIdentity looks the execution up by job URL first, then job link.
func (r *ExecutionRepository) FindPreviousByJobIdentity(ctx context.Context, projectID int64, jobURL, jobLink string) (*secondary.ExecutionRecord, error) {
	lookups := []struct {
		column, value string
	}{
		{"job_url", jobURL},
		{"job_link", jobLink},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		rec, err := scanExecution(r.db.QueryRowContext(ctx,
			"SELECT "+executionColumns+" FROM executions WHERE project_id = ? AND "+l.column+" = ?",
			projectID, l.value))
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find previous execution: %w", err)
		}
		return rec, nil
	}
	return nil, nil
}

// GetByID retrieves an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id int64) (*secondary.ExecutionRecord, error) {
	rec, err := scanExecution(r.db.QueryRowContext(ctx,
		"SELECT "+executionColumns+" FROM executions WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("execution %d: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return rec, nil
}

// ErrorIDsOfExecution returns every error ID of an execution.
func (r *ExecutionRepository) ErrorIDsOfExecution(ctx context.Context, executionID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT er.id FROM errors er
		 JOIN executed_scenarios s ON s.id = er.executed_scenario_id
		 JOIN runs r ON r.id = s.run_id
		 WHERE r.execution_id = ? ORDER BY er.id`, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list errors of execution: %w", err)
	}
	return scanIDs(rows)
}

// ErrorKeysOfExecution returns the error IDs of an execution by natural key.
func (r *ExecutionRepository) ErrorKeysOfExecution(ctx context.Context, executionID int64) (map[indexing.ErrorKey]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT er.id, r.country, r.type, r.platform, s.feature_file, s.name, s.line, er.step_line
		 FROM errors er
		 JOIN executed_scenarios s ON s.id = er.executed_scenario_id
		 JOIN runs r ON r.id = s.run_id
		 WHERE r.execution_id = ?`, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list error keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[indexing.ErrorKey]int64)
	for rows.Next() {
		var (
			id  int64
			key indexing.ErrorKey
		)
		if err := rows.Scan(&id, &key.Country, &key.Type, &key.Platform, &key.FeatureFile, &key.Scenario, &key.Line, &key.StepLine); err != nil {
			return nil, fmt.Errorf("failed to scan error key: %w", err)
		}
		keys[key] = id
	}
	return keys, rows.Err()
}

// checkJobLinkOwner fails when jobLink already identifies an execution other
// than executionID.
func (r *ExecutionRepository) checkJobLinkOwner(ctx context.Context, projectID int64, jobLink string, executionID int64) error {
	if jobLink == "" {
		return nil
	}
	var owner int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM executions WHERE project_id = ? AND job_link = ? AND id <> ?",
		projectID, jobLink, executionID).Scan(&owner)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return fmt.Errorf("failed to check job link: %w", err)
	default:
		return fmt.Errorf("%w: job link %s belongs to execution %d, not %d",
			secondary.ErrJobIdentityConflict, jobLink, owner, executionID)
	}
}

// Save upserts the graph. Existing rows keep their IDs; runs, scenarios and
// errors of the execution that are absent from the graph are deleted.
func (r *ExecutionRepository) Save(ctx context.Context, graph *secondary.ExecutionGraph) (*secondary.SavedExecution, error) {
	x := graph.Execution

	previous, err := r.FindPreviousByJobIdentity(ctx, x.ProjectID, x.JobURL, x.JobLink)
	if err != nil {
		return nil, err
	}

	var executionID int64
	if previous != nil {
		executionID = previous.ID
		if err := r.checkJobLinkOwner(ctx, x.ProjectID, x.JobLink, executionID); err != nil {
			return nil, err
		}
		_, err = r.db.ExecContext(ctx,
			`UPDATE executions SET job_url = ?, job_link = ?, name = ?, branch = ?, release = ?,
				version = ?, status = ?, test_date_time = ?
			 WHERE id = ?`,
			nullString(x.JobURL), nullString(x.JobLink), x.Name, x.Branch, x.Release,
			x.Version, x.Status, toMillis(x.TestDateTime), executionID)
		if err != nil {
			return nil, fmt.Errorf("failed to update execution: %w", err)
		}
	} else {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO executions (project_id, job_url, job_link, name, branch, release, version, status, test_date_time)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			x.ProjectID, nullString(x.JobURL), nullString(x.JobLink), x.Name, x.Branch, x.Release,
			x.Version, x.Status, toMillis(x.TestDateTime))
		if err != nil {
			return nil, fmt.Errorf("failed to create execution: %w", err)
		}
		if executionID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to get execution id: %w", err)
		}
	}

	saved := &secondary.SavedExecution{ExecutionID: executionID}
	keptRuns := make(map[int64]struct{})

	for _, run := range graph.Runs {
		var runID int64
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO runs (execution_id, country, type, type_is_browser, type_is_mobile, platform)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (execution_id, country, type, platform) DO UPDATE SET
				type_is_browser = excluded.type_is_browser,
				type_is_mobile = excluded.type_is_mobile
			 RETURNING id`,
			executionID, run.Country, run.Type, run.TypeIsBrowser, run.TypeIsMobile, run.Platform,
		).Scan(&runID)
		if err != nil {
			return nil, fmt.Errorf("failed to save run %s/%s/%s: %w", run.Country, run.Type, run.Platform, err)
		}
		keptRuns[runID] = struct{}{}

		keptScenarios := make(map[int64]struct{})
		for _, sc := range run.Scenarios {
			var scenarioID int64
			err := r.db.QueryRowContext(ctx,
				`INSERT INTO executed_scenarios (run_id, feature_file, feature_name, name, line)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (run_id, feature_file, name, line) DO UPDATE SET
					feature_name = excluded.feature_name
				 RETURNING id`,
				runID, sc.FeatureFile, sc.FeatureName, sc.Name, sc.Line,
			).Scan(&scenarioID)
			if err != nil {
				return nil, fmt.Errorf("failed to save scenario %q: %w", sc.Name, err)
			}
			keptScenarios[scenarioID] = struct{}{}

			keptErrors := make(map[int64]struct{})
			for _, e := range sc.Errors {
				errorID, err := r.saveError(ctx, scenarioID, e)
				if err != nil {
					return nil, err
				}
				keptErrors[errorID] = struct{}{}
				saved.ErrorIDs = append(saved.ErrorIDs, errorID)
			}
			if err := r.prune(ctx, "errors", "executed_scenario_id", scenarioID, keptErrors); err != nil {
				return nil, err
			}
		}
		if err := r.prune(ctx, "executed_scenarios", "run_id", runID, keptScenarios); err != nil {
			return nil, err
		}
	}
	if err := r.prune(ctx, "runs", "execution_id", executionID, keptRuns); err != nil {
		return nil, err
	}

	return saved, nil
}

// saveError returns the ID of the error at (scenario, step line), inserting it
// when absent. Existing errors are never modified.
func (r *ExecutionRepository) saveError(ctx context.Context, scenarioID int64, e secondary.ErrorGraph) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM errors WHERE executed_scenario_id = ? AND step_line = ?", scenarioID, e.StepLine,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to find error: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO errors (executed_scenario_id, step, step_definition, step_line, exception) VALUES (?, ?, ?, ?, ?)",
		scenarioID, e.Step, e.StepDefinition, e.StepLine, e.Exception)
	if err != nil {
		return 0, fmt.Errorf("failed to create error: %w", err)
	}
	return res.LastInsertId()
}

// prune deletes the children of parentID in table whose IDs are not in keep.
func (r *ExecutionRepository) prune(ctx context.Context, table, parentColumn string, parentID int64, keep map[int64]struct{}) error {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM "+table+" WHERE "+parentColumn+" = ?", parentID)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", table, err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", table, err)
	}

	for _, id := range ids {
		if _, ok := keep[id]; ok {
			continue
		}
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to prune %s %d: %w", table, id, err)
		}
	}
	return nil
}

// GetScenario retrieves one executed scenario with its run.
func (r *ExecutionRepository) GetScenario(ctx context.Context, id int64) (*secondary.ScenarioView, error) {
	v, err := scanScenario(r.db.QueryRowContext(ctx, scenarioSelect+" WHERE s.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scenario %d: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return v, nil
}

// ListScenarios retrieves every executed scenario of an execution.
func (r *ExecutionRepository) ListScenarios(ctx context.Context, executionID int64) ([]*secondary.ScenarioView, error) {
	rows, err := r.db.QueryContext(ctx,
		scenarioSelect+" WHERE r.execution_id = ? ORDER BY r.country, r.type, r.platform, s.feature_file, s.line", executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var out []*secondary.ScenarioView
	for rows.Next() {
		v, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanExecution(row rowScanner) (*secondary.ExecutionRecord, error) {
	var (
		jobURL, jobLink sql.NullString
		testDate        int64
	)
	rec := &secondary.ExecutionRecord{}
	err := row.Scan(&rec.ID, &rec.ProjectID, &jobURL, &jobLink, &rec.Name, &rec.Branch,
		&rec.Release, &rec.Version, &rec.Status, &testDate)
	if err != nil {
		return nil, err
	}
	rec.JobURL = jobURL.String
	rec.JobLink = jobLink.String
	rec.TestDateTime = fromMillis(testDate)
	return rec, nil
}

func scanScenario(row rowScanner) (*secondary.ScenarioView, error) {
	v := &secondary.ScenarioView{}
	err := row.Scan(&v.ID, &v.ExecutionID, &v.RunID, &v.Country, &v.Type, &v.Platform,
		&v.FeatureFile, &v.FeatureName, &v.Name, &v.Line)
	if err != nil {
		return nil, err
	}
	return v, nil
}

var _ secondary.ExecutionRepository = (*ExecutionRepository)(nil)
