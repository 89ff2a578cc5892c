package db

import (
	"database/sql"
	"fmt"
	"time"
)

type seedError struct {
	step, exception string
	stepLine        int
}

type seedScenario struct {
	country, typ, feature, name string
	line                        int
	errors                      []seedError
}

// SeedFixtures populates the database with a small demo project: one finished
// execution with two runs, and one problem whose pattern matches the
// payment timeouts. Occurrences are left to the classification engine.
func SeedFixtures(database *sql.DB, projectID int64) error {
	now := time.Now().UTC()
	testDate := now.Add(-2 * time.Hour).UnixMilli()

	tx, err := database.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO executions (project_id, job_url, name, branch, release, version, status, test_date_time)
		 VALUES (?, ?, 'day', 'develop', '2.0', '2.0.0-rc1', 'DONE', ?)`,
		projectID, "https://ci.example.com/job/develop-day/1/", testDate,
	)
	if err != nil {
		return fmt.Errorf("seed executions: %w", err)
	}
	executionID, _ := res.LastInsertId()

	timeout := seedError{
		step:      "the payment is accepted",
		exception: "java.net.SocketTimeoutException: Read timed out",
		stepLine:  15,
	}
	scenarios := []seedScenario{
		{country: "fr", typ: "api", feature: "payment.feature", name: "Pay by card", line: 12, errors: []seedError{timeout}},
		{country: "be", typ: "api", feature: "payment.feature", name: "Pay by card", line: 12, errors: []seedError{timeout}},
		{country: "fr", typ: "desktop", feature: "cart.feature", name: "Add to cart", line: 4},
	}

	runIDs := map[string]int64{}
	for _, s := range scenarios {
		key := s.country + "/" + s.typ
		runID, ok := runIDs[key]
		if !ok {
			res, err := tx.Exec(
				"INSERT INTO runs (execution_id, country, type, type_is_browser, platform) VALUES (?, ?, ?, ?, 'integ')",
				executionID, s.country, s.typ, s.typ == "desktop",
			)
			if err != nil {
				return fmt.Errorf("seed runs: %w", err)
			}
			runID, _ = res.LastInsertId()
			runIDs[key] = runID
		}

		res, err := tx.Exec(
			"INSERT INTO executed_scenarios (run_id, feature_file, feature_name, name, line) VALUES (?, ?, ?, ?, ?)",
			runID, s.feature, s.feature, s.name, s.line,
		)
		if err != nil {
			return fmt.Errorf("seed scenarios: %w", err)
		}
		scenarioID, _ := res.LastInsertId()

		for _, e := range s.errors {
			if _, err := tx.Exec(
				"INSERT INTO errors (executed_scenario_id, step, step_definition, step_line, exception) VALUES (?, ?, ?, ?, ?)",
				scenarioID, e.step, "^the payment is accepted$", e.stepLine, e.exception,
			); err != nil {
				return fmt.Errorf("seed errors: %w", err)
			}
		}
	}

	res, err = tx.Exec(
		"INSERT INTO problems (project_id, name, comment, creation_date_time) VALUES (?, 'Payment gateway timeouts', 'PSP sandbox is flaky', ?)",
		projectID, now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("seed problems: %w", err)
	}
	problemID, _ := res.LastInsertId()

	if _, err := tx.Exec(
		"INSERT INTO problem_patterns (problem_id, exception, creation_date_time) VALUES (?, 'java.net.SocketTimeoutException', ?)",
		problemID, now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("seed problem_patterns: %w", err)
	}

	return tx.Commit()
}
