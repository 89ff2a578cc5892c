// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/ara/internal/db"
)

// baseTime is the test date time of seeded executions unless stated otherwise.
var baseTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// One connection: each :memory: connection is a separate database
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

func insertID(t *testing.T, database *sql.DB, what, query string, args ...any) int64 {
	t.Helper()
	res, err := database.Exec(query, args...)
	if err != nil {
		t.Fatalf("failed to seed %s: %v", what, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to get %s id: %v", what, err)
	}
	return id
}

// seedExecution inserts an execution and returns its ID.
func seedExecution(t *testing.T, database *sql.DB, projectID int64, jobURL, branch string, testDate time.Time) int64 {
	t.Helper()
	return insertID(t, database, "execution",
		"INSERT INTO executions (project_id, job_url, branch, release, version, status, test_date_time) VALUES (?, ?, ?, '2.0', '2.0.0', 'DONE', ?)",
		projectID, jobURL, branch, testDate.UnixMilli())
}

// seedRun inserts a run and returns its ID.
func seedRun(t *testing.T, database *sql.DB, executionID int64, country, typ string) int64 {
	t.Helper()
	return insertID(t, database, "run",
		"INSERT INTO runs (execution_id, country, type, type_is_browser, platform) VALUES (?, ?, ?, ?, 'integ')",
		executionID, country, typ, typ == "desktop")
}

// seedScenario inserts an executed scenario and returns its ID.
func seedScenario(t *testing.T, database *sql.DB, runID int64, featureFile, name string, line int) int64 {
	t.Helper()
	return insertID(t, database, "scenario",
		"INSERT INTO executed_scenarios (run_id, feature_file, feature_name, name, line) VALUES (?, ?, ?, ?, ?)",
		runID, featureFile, featureFile, name, line)
}

// seedError inserts an error and returns its ID.
func seedError(t *testing.T, database *sql.DB, scenarioID int64, step string, stepLine int, exception string) int64 {
	t.Helper()
	return insertID(t, database, "error",
		"INSERT INTO errors (executed_scenario_id, step, step_definition, step_line, exception) VALUES (?, ?, ?, ?, ?)",
		scenarioID, step, "^"+step+"$", stepLine, exception)
}

// seedProblem inserts an open problem and returns its ID.
func seedProblem(t *testing.T, database *sql.DB, projectID int64, name string) int64 {
	t.Helper()
	return insertID(t, database, "problem",
		"INSERT INTO problems (project_id, name, creation_date_time) VALUES (?, ?, ?)",
		projectID, name, baseTime.UnixMilli())
}

// seedPattern inserts a pattern matching an exception prefix and returns its ID.
// An empty exception seeds a catch-all pattern.
func seedPattern(t *testing.T, database *sql.DB, problemID int64, exception string) int64 {
	t.Helper()
	var exc any
	if exception != "" {
		exc = exception
	}
	return insertID(t, database, "pattern",
		"INSERT INTO problem_patterns (problem_id, exception, creation_date_time) VALUES (?, ?, ?)",
		problemID, exc, baseTime.UnixMilli())
}

// seedOccurrence links an error to a pattern.
func seedOccurrence(t *testing.T, database *sql.DB, errorID, patternID int64) {
	t.Helper()
	if _, err := database.Exec("INSERT INTO problem_occurrences (error_id, problem_pattern_id) VALUES (?, ?)", errorID, patternID); err != nil {
		t.Fatalf("failed to seed occurrence: %v", err)
	}
}

// fixture is a small indexed project: one execution, two runs, three errors.
type fixture struct {
	executionID int64
	frRun       int64
	beRun       int64
	payFR       int64 // scenario "Pay by card" on fr/api
	payBE       int64 // scenario "Pay by card" on be/desktop
	timeoutFR   int64 // SocketTimeoutException on fr
	timeoutBE   int64 // SocketTimeoutException on be
	assertFR    int64 // AssertionError on fr
}

func seedFixture(t *testing.T, database *sql.DB, projectID int64) fixture {
	t.Helper()
	var f fixture
	f.executionID = seedExecution(t, database, projectID, "https://ci/job/1/", "develop", baseTime)
	f.frRun = seedRun(t, database, f.executionID, "fr", "api")
	f.beRun = seedRun(t, database, f.executionID, "be", "desktop")
	f.payFR = seedScenario(t, database, f.frRun, "payment.feature", "Pay by card", 12)
	f.payBE = seedScenario(t, database, f.beRun, "payment.feature", "Pay by card", 12)
	f.timeoutFR = seedError(t, database, f.payFR, "the payment is accepted", 15, "java.net.SocketTimeoutException: Read timed out")
	f.timeoutBE = seedError(t, database, f.payBE, "the payment is accepted", 15, "java.net.SocketTimeoutException: Read timed out")
	f.assertFR = seedError(t, database, f.payFR, "the receipt is sent", 20, "java.lang.AssertionError: expected 1 mail")
	return f
}
