// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/ara/internal/ports/secondary"
)

// DefaultBatchSize bounds the number of IDs bound in one statement.
const DefaultBatchSize = 500

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UnitOfWork implements secondary.UnitOfWork with one SQLite transaction per call.
type UnitOfWork struct {
	db        *sql.DB
	batchSize int
}

// NewUnitOfWork creates a unit of work over db. A batchSize <= 0 uses DefaultBatchSize.
func NewUnitOfWork(db *sql.DB, batchSize int) *UnitOfWork {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &UnitOfWork{db: db, batchSize: batchSize}
}

// Do runs fn in a transaction and commits when fn returns nil.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, NewRepositories(tx, u.batchSize)); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// NewRepositories binds every repository to q.
func NewRepositories(q DBTX, batchSize int) secondary.Repositories {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return secondary.Repositories{
		Problems:    NewProblemRepository(q),
		Patterns:    NewPatternRepository(q),
		Errors:      NewErrorRepository(q, batchSize),
		Occurrences: NewOccurrenceRepository(q, batchSize),
		Executions:  NewExecutionRepository(q),
	}
}

var _ secondary.UnitOfWork = (*UnitOfWork)(nil)

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// chunks splits ids into slices of at most size elements.
func chunks(ids []int64, size int) [][]int64 {
	var out [][]int64
	for size < len(ids) {
		ids, out = ids[size:], append(out, ids[:size])
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
