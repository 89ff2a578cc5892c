package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete modern schema for fresh ARA installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(): if repository code references a column that
// doesn't exist here, tests fail immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration to migrations.go
//  2. Update SchemaSQL here
//  3. Bump the expected version in schema_test.go
//
// Date times are INTEGER unix milliseconds (UTC).
const SchemaSQL = `
-- Executions (one CI job result; identity is job_url or job_link within a project)
CREATE TABLE IF NOT EXISTS executions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL,
	job_url TEXT,
	job_link TEXT,
	name TEXT NOT NULL DEFAULT '',
	branch TEXT NOT NULL DEFAULT '',
	release TEXT NOT NULL DEFAULT '',
	version TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'UNAVAILABLE',
	test_date_time INTEGER NOT NULL,
	UNIQUE (project_id, job_url),
	UNIQUE (project_id, job_link)
);

CREATE INDEX IF NOT EXISTS idx_executions_project ON executions(project_id);

-- Runs (one country/type/platform of an execution)
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id INTEGER NOT NULL,
	country TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT '',
	type_is_browser INTEGER NOT NULL DEFAULT 0,
	type_is_mobile INTEGER NOT NULL DEFAULT 0,
	platform TEXT NOT NULL DEFAULT '',
	UNIQUE (execution_id, country, type, platform),
	FOREIGN KEY (execution_id) REFERENCES executions(id) ON DELETE CASCADE
);

-- Executed scenarios
CREATE TABLE IF NOT EXISTS executed_scenarios (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL,
	feature_file TEXT NOT NULL DEFAULT '',
	feature_name TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	line INTEGER NOT NULL DEFAULT 0,
	UNIQUE (run_id, feature_file, name, line),
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

-- Errors (failed or undefined steps; immutable once indexed)
CREATE TABLE IF NOT EXISTS errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	executed_scenario_id INTEGER NOT NULL,
	step TEXT NOT NULL DEFAULT '',
	step_definition TEXT NOT NULL DEFAULT '',
	step_line INTEGER NOT NULL,
	exception TEXT NOT NULL DEFAULT '',
	UNIQUE (executed_scenario_id, step_line),
	FOREIGN KEY (executed_scenario_id) REFERENCES executed_scenarios(id) ON DELETE CASCADE
);

-- Problems (human-managed root causes)
CREATE TABLE IF NOT EXISTS problems (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'CLOSED')),
	closing_date_time INTEGER,
	defect_id TEXT,
	defect_existence TEXT NOT NULL DEFAULT 'UNKNOWN',
	creation_date_time INTEGER NOT NULL,
	first_seen_date_time INTEGER,
	last_seen_date_time INTEGER,
	UNIQUE (project_id, name)
);

CREATE INDEX IF NOT EXISTS idx_problems_project ON problems(project_id);

-- Problem patterns (all criteria optional; NULL matches anything)
CREATE TABLE IF NOT EXISTS problem_patterns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	problem_id INTEGER NOT NULL,
	feature_file TEXT,
	feature_name TEXT,
	scenario_name TEXT,
	scenario_name_starts_with INTEGER NOT NULL DEFAULT 0,
	step TEXT,
	step_starts_with INTEGER NOT NULL DEFAULT 0,
	step_definition TEXT,
	step_definition_starts_with INTEGER NOT NULL DEFAULT 0,
	exception TEXT,
	release TEXT,
	country TEXT,
	type TEXT,
	type_is_browser INTEGER,
	type_is_mobile INTEGER,
	platform TEXT,
	creation_date_time INTEGER NOT NULL,
	FOREIGN KEY (problem_id) REFERENCES problems(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_problem_patterns_problem ON problem_patterns(problem_id);

-- Problem occurrences (insert-only; one row per matching error/pattern pair)
CREATE TABLE IF NOT EXISTS problem_occurrences (
	error_id INTEGER NOT NULL,
	problem_pattern_id INTEGER NOT NULL,
	PRIMARY KEY (error_id, problem_pattern_id),
	FOREIGN KEY (error_id) REFERENCES errors(id) ON DELETE CASCADE,
	FOREIGN KEY (problem_pattern_id) REFERENCES problem_patterns(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_problem_occurrences_pattern ON problem_occurrences(problem_pattern_id);
`

// InitSchema creates the schema on a fresh database, or migrates an existing one.
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(db)
	}

	var oldTableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('executions', 'problems')").Scan(&oldTableCount)
	if err != nil {
		return err
	}
	if oldTableCount > 0 {
		// Tables predating version tracking
		return RunMigrations(db)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.Exec(schemaVersionSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	for _, m := range migrations {
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
