package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/ara/internal/core/pattern"
	"github.com/example/ara/internal/ports/secondary"
)

// PatternRepository implements secondary.PatternRepository with SQLite.
type PatternRepository struct {
	db DBTX
}

// NewPatternRepository creates a new SQLite pattern repository.
func NewPatternRepository(db DBTX) *PatternRepository {
	return &PatternRepository{db: db}
}

const patternSelect = `SELECT pp.id, pp.problem_id, p.project_id,
	pp.feature_file, pp.feature_name,
	pp.scenario_name, pp.scenario_name_starts_with,
	pp.step, pp.step_starts_with,
	pp.step_definition, pp.step_definition_starts_with,
	pp.exception, pp.release, pp.country, pp.type, pp.platform,
	pp.type_is_browser, pp.type_is_mobile, pp.creation_date_time
	FROM problem_patterns pp
	JOIN problems p ON p.id = pp.problem_id`

// Create persists a new pattern.
func (r *PatternRepository) Create(ctx context.Context, rec *secondary.PatternRecord) error {
	c := rec.Criteria
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO problem_patterns (problem_id, feature_file, feature_name,
			scenario_name, scenario_name_starts_with, step, step_starts_with,
			step_definition, step_definition_starts_with, exception,
			release, country, type, platform, type_is_browser, type_is_mobile, creation_date_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ProblemID, nullString(c.FeatureFile), nullString(c.FeatureName),
		nullString(c.ScenarioName), c.ScenarioNameStartsWith, nullString(c.Step), c.StepStartsWith,
		nullString(c.StepDefinition), c.StepDefinitionStartsWith, nullString(c.Exception),
		nullString(c.Release), nullString(c.Country), nullString(c.Type), nullString(c.Platform),
		nullBool(c.TypeIsBrowser), nullBool(c.TypeIsMobile), toMillis(rec.CreationDateTime),
	)
	if err != nil {
		return fmt.Errorf("failed to create pattern: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get pattern id: %w", err)
	}
	rec.ID = id
	return nil
}

// GetByID retrieves a pattern by its ID.
func (r *PatternRepository) GetByID(ctx context.Context, id int64) (*secondary.PatternRecord, error) {
	rec, err := scanPattern(r.db.QueryRowContext(ctx, patternSelect+" WHERE pp.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pattern %d: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	return rec, nil
}

// Update replaces the criteria of a pattern.
func (r *PatternRepository) Update(ctx context.Context, rec *secondary.PatternRecord) error {
	c := rec.Criteria
	res, err := r.db.ExecContext(ctx,
		`UPDATE problem_patterns SET feature_file = ?, feature_name = ?,
			scenario_name = ?, scenario_name_starts_with = ?, step = ?, step_starts_with = ?,
			step_definition = ?, step_definition_starts_with = ?, exception = ?,
			release = ?, country = ?, type = ?, platform = ?, type_is_browser = ?, type_is_mobile = ?
		 WHERE id = ?`,
		nullString(c.FeatureFile), nullString(c.FeatureName),
		nullString(c.ScenarioName), c.ScenarioNameStartsWith, nullString(c.Step), c.StepStartsWith,
		nullString(c.StepDefinition), c.StepDefinitionStartsWith, nullString(c.Exception),
		nullString(c.Release), nullString(c.Country), nullString(c.Type), nullString(c.Platform),
		nullBool(c.TypeIsBrowser), nullBool(c.TypeIsMobile), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
	}
	return expectOneRow(res, "pattern", rec.ID)
}

// Delete removes a pattern; its occurrences cascade.
func (r *PatternRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM problem_patterns WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}
	return expectOneRow(res, "pattern", id)
}

// Move reassigns a pattern to another problem.
func (r *PatternRepository) Move(ctx context.Context, id, problemID int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE problem_patterns SET problem_id = ? WHERE id = ?", problemID, id)
	if err != nil {
		return fmt.Errorf("failed to move pattern: %w", err)
	}
	return expectOneRow(res, "pattern", id)
}

// ListByProject retrieves every pattern of a project.
func (r *PatternRepository) ListByProject(ctx context.Context, projectID int64) ([]*secondary.PatternRecord, error) {
	rows, err := r.db.QueryContext(ctx, patternSelect+" WHERE p.project_id = ? ORDER BY pp.id", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	return scanPatterns(rows)
}

// ListByProblem retrieves the patterns of one problem.
func (r *PatternRepository) ListByProblem(ctx context.Context, problemID int64) ([]*secondary.PatternRecord, error) {
	rows, err := r.db.QueryContext(ctx, patternSelect+" WHERE pp.problem_id = ? ORDER BY pp.id", problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	return scanPatterns(rows)
}

// CountByProblem returns how many patterns a problem owns.
func (r *PatternRepository) CountByProblem(ctx context.Context, problemID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM problem_patterns WHERE problem_id = ?", problemID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count patterns: %w", err)
	}
	return n, nil
}

func scanPattern(row rowScanner) (*secondary.PatternRecord, error) {
	var (
		featureFile, featureName, scenarioName, step, stepDefinition sql.NullString
		exception, release, country, typ, platform                   sql.NullString
		isBrowser, isMobile                                          sql.NullBool
		created                                                      int64
	)
	rec := &secondary.PatternRecord{}
	c := &rec.Criteria
	err := row.Scan(&rec.ID, &rec.ProblemID, &rec.ProjectID,
		&featureFile, &featureName,
		&scenarioName, &c.ScenarioNameStartsWith,
		&step, &c.StepStartsWith,
		&stepDefinition, &c.StepDefinitionStartsWith,
		&exception, &release, &country, &typ, &platform,
		&isBrowser, &isMobile, &created)
	if err != nil {
		return nil, err
	}

	c.FeatureFile = featureFile.String
	c.FeatureName = featureName.String
	c.ScenarioName = scenarioName.String
	c.Step = step.String
	c.StepDefinition = stepDefinition.String
	c.Exception = exception.String
	c.Release = release.String
	c.Country = country.String
	c.Type = typ.String
	c.Platform = platform.String
	if isBrowser.Valid {
		c.TypeIsBrowser = pattern.Bool(isBrowser.Bool)
	}
	if isMobile.Valid {
		c.TypeIsMobile = pattern.Bool(isMobile.Bool)
	}
	rec.CreationDateTime = fromMillis(created)
	return rec, nil
}

func scanPatterns(rows *sql.Rows) ([]*secondary.PatternRecord, error) {
	defer rows.Close()
	var patterns []*secondary.PatternRecord
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

var _ secondary.PatternRepository = (*PatternRepository)(nil)
