package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/ara/internal/adapters/sqlite"
	"github.com/example/ara/internal/core/pattern"
)

func TestErrorRepository_FindErrorIDsMatching_AgreesWithMatcher(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewErrorRepository(database, 2)
	ctx := context.Background()
	f := seedFixture(t, database, 1)

	// Another project's errors never match
	other := seedExecution(t, database, 2, "https://ci/job/9/", "develop", baseTime)
	otherScenario := seedScenario(t, database, seedRun(t, database, other, "fr", "api"), "payment.feature", "Pay by card", 12)
	seedError(t, database, otherScenario, "the payment is accepted", 15, "java.net.SocketTimeoutException")

	tests := []struct {
		name     string
		criteria pattern.Criteria
		want     []int64
	}{
		{"catch-all", pattern.Criteria{}, []int64{f.timeoutFR, f.timeoutBE, f.assertFR}},
		{"exception prefix", pattern.Criteria{Exception: "java.net.Socket"}, []int64{f.timeoutFR, f.timeoutBE}},
		{"exception wildcard", pattern.Criteria{Exception: "java.%Error"}, []int64{f.assertFR}},
		{"exception is case-sensitive", pattern.Criteria{Exception: "JAVA.NET"}, nil},
		{"glob metacharacters are literal", pattern.Criteria{Exception: "java.*"}, nil},
		{"country", pattern.Criteria{Country: "be"}, []int64{f.timeoutBE}},
		{"type and country", pattern.Criteria{Country: "fr", Type: "api"}, []int64{f.timeoutFR, f.assertFR}},
		{"browser flag", pattern.Criteria{TypeIsBrowser: pattern.Bool(true)}, []int64{f.timeoutBE}},
		{"mobile flag false", pattern.Criteria{TypeIsMobile: pattern.Bool(false)}, []int64{f.timeoutFR, f.timeoutBE, f.assertFR}},
		{"step exact", pattern.Criteria{Step: "the receipt is sent"}, []int64{f.assertFR}},
		{"step exact needs full text", pattern.Criteria{Step: "the receipt"}, nil},
		{"step prefix", pattern.Criteria{Step: "the receipt", StepStartsWith: true}, []int64{f.assertFR}},
		{"scenario prefix", pattern.Criteria{ScenarioName: "Pay", ScenarioNameStartsWith: true, Country: "fr"}, []int64{f.timeoutFR, f.assertFR}},
		{"feature file", pattern.Criteria{FeatureFile: "cart.feature"}, nil},
		{"release", pattern.Criteria{Release: "2.0"}, []int64{f.timeoutFR, f.timeoutBE, f.assertFR}},
		{"platform", pattern.Criteria{Platform: "prod"}, nil},
	}

	contexts, err := repo.FindContexts(ctx, 1, nil)
	if err != nil {
		t.Fatalf("FindContexts failed: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindErrorIDsMatching(ctx, 1, tt.criteria, nil)
			if err != nil {
				t.Fatalf("FindErrorIDsMatching failed: %v", err)
			}
			assertIDSet(t, got, tt.want)

			var inMemory []int64
			for _, ec := range contexts {
				ok, err := pattern.NewFilter(1, tt.criteria).Evaluate(ec)
				if err != nil {
					t.Fatalf("Evaluate failed: %v", err)
				}
				if ok {
					inMemory = append(inMemory, ec.ErrorID)
				}
			}
			assertIDSet(t, inMemory, tt.want)
		})
	}
}

func TestErrorRepository_FindErrorIDsMatching_Candidates(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewErrorRepository(database, 1)
	ctx := context.Background()
	f := seedFixture(t, database, 1)

	got, err := repo.FindErrorIDsMatching(ctx, 1, pattern.Criteria{}, []int64{f.timeoutBE, f.assertFR})
	if err != nil {
		t.Fatalf("FindErrorIDsMatching failed: %v", err)
	}
	assertIDSet(t, got, []int64{f.timeoutBE, f.assertFR})

	got, err = repo.FindErrorIDsMatching(ctx, 1, pattern.Criteria{}, []int64{})
	if err != nil {
		t.Fatalf("FindErrorIDsMatching failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no match for empty candidates, got %v", got)
	}
}

func TestErrorRepository_FindContexts(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewErrorRepository(database, 0)
	ctx := context.Background()
	f := seedFixture(t, database, 1)

	contexts, err := repo.FindContexts(ctx, 1, []int64{f.timeoutBE})
	if err != nil {
		t.Fatalf("FindContexts failed: %v", err)
	}
	if len(contexts) != 1 {
		t.Fatalf("expected 1 context, got %d", len(contexts))
	}
	ec := contexts[0]
	if err := ec.Validate(); err != nil {
		t.Fatalf("expected complete context: %v", err)
	}
	if ec.Run.Country != "be" || !ec.Run.TypeIsBrowser || ec.Scenario.Name != "Pay by card" || ec.Execution.Release != "2.0" {
		t.Errorf("unexpected context: %+v %+v %+v", ec.Run, ec.Scenario, ec.Execution)
	}
}

func TestErrorRepository_OrphansSurface(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewErrorRepository(database, 0)
	ctx := context.Background()
	f := seedFixture(t, database, 1)

	mustExec(t, database, "PRAGMA foreign_keys = OFF")
	orphan := seedError(t, database, 4242, "a step", 1, "boom")
	mustExec(t, database, "PRAGMA foreign_keys = ON")

	n, err := repo.CountOrphans(ctx, []int64{f.timeoutFR, orphan})
	if err != nil {
		t.Fatalf("CountOrphans failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 orphan, got %d", n)
	}

	// Without ids the orphan is counted whatever the project
	seedFixture(t, database, 2)
	n, err = repo.CountOrphans(ctx, nil)
	if err != nil {
		t.Fatalf("CountOrphans(nil) failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 orphan store-wide, got %d", n)
	}

	contexts, err := repo.FindContexts(ctx, 1, []int64{orphan})
	if err != nil {
		t.Fatalf("FindContexts failed: %v", err)
	}
	if len(contexts) != 1 || contexts[0].Scenario != nil {
		t.Fatalf("expected orphan with nil scenario, got %+v", contexts)
	}
	if _, err := pattern.NewFilter(1, pattern.Criteria{}).Evaluate(contexts[0]); err == nil {
		t.Error("expected malformed context error")
	}
}

func TestErrorRepository_LinksAndDelete(t *testing.T) {
	database := setupTestDB(t)
	repo := sqlite.NewErrorRepository(database, 0)
	ctx := context.Background()
	f := seedFixture(t, database, 1)
	problemID := seedProblem(t, database, 1, "Timeouts")
	patternID := seedPattern(t, database, problemID, "java.net")
	seedOccurrence(t, database, f.timeoutFR, patternID)
	seedOccurrence(t, database, f.timeoutBE, patternID)

	links, err := repo.FindLinks(ctx, []int64{f.timeoutFR, f.assertFR})
	if err != nil {
		t.Fatalf("FindLinks failed: %v", err)
	}
	if len(links) != 1 || len(links[f.timeoutFR]) != 1 || links[f.timeoutFR][0].ProblemID != problemID {
		t.Errorf("unexpected links: %+v", links)
	}

	byPattern, err := repo.ListByPattern(ctx, patternID)
	if err != nil {
		t.Fatalf("ListByPattern failed: %v", err)
	}
	if len(byPattern) != 2 {
		t.Errorf("expected 2 errors for pattern, got %d", len(byPattern))
	}

	byScenario, err := repo.ListIDsByScenarios(ctx, []int64{f.payFR, f.payBE})
	if err != nil {
		t.Fatalf("ListIDsByScenarios failed: %v", err)
	}
	assertIDSet(t, byScenario[f.payFR], []int64{f.timeoutFR, f.assertFR})

	if err := repo.DeleteByIDs(ctx, []int64{f.timeoutFR}); err != nil {
		t.Fatalf("DeleteByIDs failed: %v", err)
	}
	ids, _ := repo.ListIDsByProject(ctx, 1)
	assertIDSet(t, ids, []int64{f.timeoutBE, f.assertFR})

	var occurrences int
	database.QueryRow("SELECT COUNT(*) FROM problem_occurrences").Scan(&occurrences)
	if occurrences != 1 {
		t.Errorf("expected occurrence of deleted error to cascade, got %d left", occurrences)
	}
}

func assertIDSet(t *testing.T, got, want []int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected IDs %v, got %v", want, got)
	}
	set := make(map[int64]bool, len(got))
	for _, id := range got {
		set[id] = true
	}
	for _, id := range want {
		if !set[id] {
			t.Fatalf("expected IDs %v, got %v", want, got)
		}
	}
}
