package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/ara/internal/core/problem"
	"github.com/example/ara/internal/ports/secondary"
)

// ProblemRepository implements secondary.ProblemRepository with SQLite.
type ProblemRepository struct {
	db DBTX
}

// NewProblemRepository creates a new SQLite problem repository.
func NewProblemRepository(db DBTX) *ProblemRepository {
	return &ProblemRepository{db: db}
}

const problemColumns = `id, project_id, name, comment, status, closing_date_time, defect_id,
	defect_existence, creation_date_time, first_seen_date_time, last_seen_date_time`

// reappearedSQL is true for a stored CLOSED problem seen again after closing.
const reappearedSQL = `(status = 'CLOSED' AND closing_date_time IS NOT NULL
	AND last_seen_date_time IS NOT NULL AND last_seen_date_time > closing_date_time)`

// Create persists a new problem.
func (r *ProblemRepository) Create(ctx context.Context, p *secondary.ProblemRecord) error {
	status := p.Status
	if status == "" {
		status = string(problem.StatusOpen)
	}
	existence := p.DefectExistence
	if existence == "" {
		existence = string(problem.DefectUnknown)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO problems (project_id, name, comment, status, closing_date_time, defect_id,
			defect_existence, creation_date_time, first_seen_date_time, last_seen_date_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProjectID, p.Name, p.Comment, status, nullMillis(p.ClosingDateTime), nullString(p.DefectID),
		existence, toMillis(p.CreationDateTime), nullMillis(p.FirstSeen), nullMillis(p.LastSeen),
	)
	if err != nil {
		return fmt.Errorf("failed to create problem: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get problem id: %w", err)
	}
	p.ID = id
	p.Status = status
	p.DefectExistence = existence
	return nil
}

// GetByID retrieves a problem by its ID.
func (r *ProblemRepository) GetByID(ctx context.Context, id int64) (*secondary.ProblemRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+problemColumns+" FROM problems WHERE id = ?", id)
	record, err := scanProblem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("problem %d: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}
	return record, nil
}

// GetByIDs retrieves the problems with the given IDs.
func (r *ProblemRepository) GetByIDs(ctx context.Context, ids []int64) ([]*secondary.ProblemRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+problemColumns+" FROM problems WHERE id IN ("+placeholders(len(ids))+") ORDER BY id",
		int64Args(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get problems: %w", err)
	}
	return scanProblems(rows)
}

// NameExists reports whether the project already has a problem named name.
func (r *ProblemRepository) NameExists(ctx context.Context, projectID int64, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM problems WHERE project_id = ? AND name = ?", projectID, name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check problem name: %w", err)
	}
	return n > 0, nil
}

// Update updates the name and comment of a problem.
func (r *ProblemRepository) Update(ctx context.Context, p *secondary.ProblemRecord) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE problems SET name = ?, comment = ? WHERE id = ?", p.Name, p.Comment, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update problem: %w", err)
	}
	return expectOneRow(res, "problem", p.ID)
}

// UpdateStatus sets the stored status and closing date time.
func (r *ProblemRepository) UpdateStatus(ctx context.Context, id int64, status string, closedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE problems SET status = ?, closing_date_time = ? WHERE id = ?",
		status, nullMillis(closedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update problem status: %w", err)
	}
	return expectOneRow(res, "problem", id)
}

// UpdateDefect sets the external defect id and its existence state.
func (r *ProblemRepository) UpdateDefect(ctx context.Context, id int64, defectID, existence string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE problems SET defect_id = ?, defect_existence = ? WHERE id = ?",
		nullString(defectID), existence, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update problem defect: %w", err)
	}
	return expectOneRow(res, "problem", id)
}

// UpdateSeenDates overwrites first/last seen dates of the given problems.
func (r *ProblemRepository) UpdateSeenDates(ctx context.Context, ids []int64, dates map[int64]secondary.SeenDates) error {
	for _, id := range ids {
		var first, last sql.NullInt64
		if d, ok := dates[id]; ok {
			first = sql.NullInt64{Int64: toMillis(d.First), Valid: true}
			last = sql.NullInt64{Int64: toMillis(d.Last), Valid: true}
		}
		if _, err := r.db.ExecContext(ctx,
			"UPDATE problems SET first_seen_date_time = ?, last_seen_date_time = ? WHERE id = ?",
			first, last, id,
		); err != nil {
			return fmt.Errorf("failed to update seen dates of problem %d: %w", id, err)
		}
	}
	return nil
}

// Delete removes a problem; patterns and occurrences cascade.
func (r *ProblemRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM problems WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete problem: %w", err)
	}
	return expectOneRow(res, "problem", id)
}

// List retrieves problems matching the given filters, ordered by ID.
func (r *ProblemRepository) List(ctx context.Context, filters secondary.ProblemFilters) ([]*secondary.ProblemRecord, error) {
	query := "SELECT " + problemColumns + " FROM problems WHERE project_id = ?"
	args := []any{filters.ProjectID}

	if filters.Name != "" {
		query += ` AND LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(filters.Name))+"%")
	}

	statusFilter, err := problem.ParseStatusFilter(filters.Status)
	if err != nil {
		return nil, err
	}
	if clause := statusClause(statusFilter); clause != "" {
		query += " AND " + clause
	}

	switch {
	case strings.EqualFold(filters.DefectID, "none"):
		query += " AND defect_id IS NULL"
	case filters.DefectID != "":
		query += " AND defect_id = ?"
		args = append(args, filters.DefectID)
	}

	if filters.DefectExistence != "" {
		query += " AND defect_existence = ?"
		args = append(args, string(problem.ParseDefectExistence(filters.DefectExistence)))
	}

	query += " ORDER BY id"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	return scanProblems(rows)
}

// statusClause translates a status combinator onto the denormalized columns.
// The schema only admits OPEN and CLOSED; anything not CLOSED reads as OPEN,
// like problem.ParseStatus.
func statusClause(f problem.StatusFilter) string {
	switch f {
	case problem.FilterOpen:
		return "status <> 'CLOSED'"
	case problem.FilterClosed:
		return "(status = 'CLOSED' AND NOT " + reappearedSQL + ")"
	case problem.FilterReappeared:
		return reappearedSQL
	case problem.FilterOpenOrReappeared:
		return "(status <> 'CLOSED' OR " + reappearedSQL + ")"
	case problem.FilterClosedOrReappeared:
		return "status = 'CLOSED'"
	default:
		return ""
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProblem(row rowScanner) (*secondary.ProblemRecord, error) {
	var (
		closing, first, last sql.NullInt64
		defectID             sql.NullString
		created              int64
		status, existence    string
	)
	p := &secondary.ProblemRecord{}
	err := row.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Comment, &status, &closing, &defectID,
		&existence, &created, &first, &last)
	if err != nil {
		return nil, err
	}
	p.Status = string(problem.ParseStatus(status))
	p.ClosingDateTime = timePtr(closing)
	p.DefectID = defectID.String
	p.DefectExistence = string(problem.ParseDefectExistence(existence))
	p.CreationDateTime = fromMillis(created)
	p.FirstSeen = timePtr(first)
	p.LastSeen = timePtr(last)
	return p, nil
}

func scanProblems(rows *sql.Rows) ([]*secondary.ProblemRecord, error) {
	defer rows.Close()
	var problems []*secondary.ProblemRecord
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan problem: %w", err)
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

func expectOneRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, secondary.ErrNotFound)
	}
	return nil
}

var _ secondary.ProblemRepository = (*ProblemRepository)(nil)
