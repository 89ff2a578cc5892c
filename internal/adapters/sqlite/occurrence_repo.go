package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/example/ara/internal/core/aggregate"
	"github.com/example/ara/internal/ports/secondary"
)

// OccurrenceRepository implements secondary.OccurrenceRepository with SQLite.
type OccurrenceRepository struct {
	db        DBTX
	batchSize int
}

// NewOccurrenceRepository creates a new SQLite occurrence repository.
func NewOccurrenceRepository(db DBTX, batchSize int) *OccurrenceRepository {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &OccurrenceRepository{db: db, batchSize: batchSize}
}

// occurrenceFrom joins problem patterns down to the executions of their errors.
const occurrenceFrom = `
	FROM problem_patterns pp
	JOIN problem_occurrences po ON po.problem_pattern_id = pp.id
	JOIN errors er ON er.id = po.error_id
	JOIN executed_scenarios s ON s.id = er.executed_scenario_id
	JOIN runs r ON r.id = s.run_id
	JOIN executions e ON e.id = r.execution_id`

// BatchInsert inserts occurrences with multi-row INSERT OR IGNORE statements.
// Each statement binds two parameters per row, so chunks hold batchSize/2 rows.
func (r *OccurrenceRepository) BatchInsert(ctx context.Context, occurrences []secondary.OccurrenceRecord) (int64, error) {
	rowsPerStatement := r.batchSize / 2
	if rowsPerStatement < 1 {
		rowsPerStatement = 1
	}

	var inserted int64
	for start := 0; start < len(occurrences); start += rowsPerStatement {
		end := min(start+rowsPerStatement, len(occurrences))
		batch := occurrences[start:end]

		values := strings.TrimSuffix(strings.Repeat("(?, ?), ", len(batch)), ", ")
		args := make([]any, 0, 2*len(batch))
		for _, o := range batch {
			args = append(args, o.ErrorID, o.PatternID)
		}

		res, err := r.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO problem_occurrences (error_id, problem_pattern_id) VALUES "+values, args...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert problem occurrences: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

// DeleteByPattern removes every occurrence of a pattern.
func (r *OccurrenceRepository) DeleteByPattern(ctx context.Context, patternID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM problem_occurrences WHERE problem_pattern_id = ?", patternID); err != nil {
		return fmt.Errorf("failed to delete problem occurrences: %w", err)
	}
	return nil
}

// ListErrorIDsByPattern returns the IDs of errors linked to a pattern.
func (r *OccurrenceRepository) ListErrorIDsByPattern(ctx context.Context, patternID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT error_id FROM problem_occurrences WHERE problem_pattern_id = ? ORDER BY error_id", patternID)
	if err != nil {
		return nil, fmt.Errorf("failed to list errors of pattern: %w", err)
	}
	return scanIDs(rows)
}

// FindFirstAndLastOccurrenceDates returns the min/max test date time per problem.
func (r *OccurrenceRepository) FindFirstAndLastOccurrenceDates(ctx context.Context, problemIDs []int64) (map[int64]secondary.SeenDates, error) {
	out := make(map[int64]secondary.SeenDates)
	for _, chunk := range chunks(problemIDs, r.batchSize) {
		rows, err := r.db.QueryContext(ctx,
			"SELECT pp.problem_id, MIN(e.test_date_time), MAX(e.test_date_time)"+occurrenceFrom+
				" WHERE pp.problem_id IN ("+placeholders(len(chunk))+") GROUP BY pp.problem_id",
			int64Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to find occurrence dates: %w", err)
		}
		for rows.Next() {
			var id, first, last int64
			if err := rows.Scan(&id, &first, &last); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan occurrence dates: %w", err)
			}
			out[id] = secondary.SeenDates{First: fromMillis(first), Last: fromMillis(last)}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FindFacts returns one flat fact per occurrence of the given problems.
func (r *OccurrenceRepository) FindFacts(ctx context.Context, problemIDs []int64) ([]aggregate.Fact, error) {
	var facts []aggregate.Fact
	for _, chunk := range chunks(problemIDs, r.batchSize) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT pp.problem_id, pp.id, er.id, s.name, e.branch, e.release, e.version,
				r.country, r.type, r.platform, e.test_date_time`+occurrenceFrom+
				" WHERE pp.problem_id IN ("+placeholders(len(chunk))+") ORDER BY pp.problem_id, pp.id, er.id",
			int64Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to find occurrence facts: %w", err)
		}
		chunkFacts, err := scanFacts(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, chunkFacts...)
	}
	return facts, nil
}

// FindProblemIDsByErrors returns the distinct problems linked to errors.
func (r *OccurrenceRepository) FindProblemIDsByErrors(ctx context.Context, errorIDs []int64) ([]int64, error) {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, chunk := range chunks(errorIDs, r.batchSize) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT DISTINCT pp.problem_id
			 FROM problem_occurrences po
			 JOIN problem_patterns pp ON pp.id = po.problem_pattern_id
			 WHERE po.error_id IN (`+placeholders(len(chunk))+`)
			 ORDER BY pp.problem_id`,
			int64Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to find problems of errors: %w", err)
		}
		chunkIDs, err := scanIDs(rows)
		if err != nil {
			return nil, err
		}
		for _, id := range chunkIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func scanFacts(rows *sql.Rows) ([]aggregate.Fact, error) {
	defer rows.Close()
	var facts []aggregate.Fact
	for rows.Next() {
		var (
			f        aggregate.Fact
			testDate int64
		)
		err := rows.Scan(&f.ProblemID, &f.PatternID, &f.ErrorID, &f.ScenarioName, &f.Branch,
			&f.Release, &f.Version, &f.Country, &f.Type, &f.Platform, &testDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occurrence fact: %w", err)
		}
		f.TestDateTime = fromMillis(testDate)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

var _ secondary.OccurrenceRepository = (*OccurrenceRepository)(nil)
