package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_execution_and_problem_tables",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_problem_seen_dates",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_occurrence_pattern_index",
		Up:      migrationV3,
	},
}

const schemaVersionSQL = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

// LatestVersion returns the version a fully migrated database reports.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// CurrentVersion returns the highest applied migration version, 0 if none.
func CurrentVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(schemaVersionSQL); err != nil {
		return 0, fmt.Errorf("failed to create schema_version table: %w", err)
	}
	var v int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return v, nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(db *sql.DB) error {
	currentVersion, err := CurrentVersion(db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("running migration", "version", migration.Version, "name", migration.Name)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the tables of the first release, before seen dates
// were denormalized onto problems.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
			UNIQUE (project_id, name)
		);
		CREATE INDEX IF NOT EXISTS idx_problems_project ON problems(project_id);

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

		CREATE TABLE IF NOT EXISTS problem_occurrences (
			error_id INTEGER NOT NULL,
			problem_pattern_id INTEGER NOT NULL,
			PRIMARY KEY (error_id, problem_pattern_id),
			FOREIGN KEY (error_id) REFERENCES errors(id) ON DELETE CASCADE,
			FOREIGN KEY (problem_pattern_id) REFERENCES problem_patterns(id) ON DELETE CASCADE
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// migrationV2 denormalizes first/last seen dates onto problems and backfills
// them from existing occurrences.
func migrationV2(tx *sql.Tx) error {
	for _, stmt := range []string{
		"ALTER TABLE problems ADD COLUMN first_seen_date_time INTEGER",
		"ALTER TABLE problems ADD COLUMN last_seen_date_time INTEGER",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to add column: %w", err)
		}
	}

	_, err := tx.Exec(`
		UPDATE problems SET
			first_seen_date_time = (
				SELECT MIN(e.test_date_time)
				FROM problem_patterns pp
				JOIN problem_occurrences po ON po.problem_pattern_id = pp.id
				JOIN errors er ON er.id = po.error_id
				JOIN executed_scenarios s ON s.id = er.executed_scenario_id
				JOIN runs r ON r.id = s.run_id
				JOIN executions e ON e.id = r.execution_id
				WHERE pp.problem_id = problems.id
			),
			last_seen_date_time = (
				SELECT MAX(e.test_date_time)
				FROM problem_patterns pp
				JOIN problem_occurrences po ON po.problem_pattern_id = pp.id
				JOIN errors er ON er.id = po.error_id
				JOIN executed_scenarios s ON s.id = er.executed_scenario_id
				JOIN runs r ON r.id = s.run_id
				JOIN executions e ON e.id = r.execution_id
				WHERE pp.problem_id = problems.id
			)
	`)
	if err != nil {
		return fmt.Errorf("failed to backfill seen dates: %w", err)
	}
	return nil
}

// migrationV3 indexes occurrences by pattern for pattern edits and deletes.
func migrationV3(tx *sql.Tx) error {
	_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_problem_occurrences_pattern ON problem_occurrences(problem_pattern_id)")
	return err
}
