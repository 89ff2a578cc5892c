package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ara/internal/ports/primary"
)

func TestCreateProblem_Guards(t *testing.T) {
	env := newTestEnv(t, MatchingOptions{Pushdown: true})
	ctx := context.Background()

	env.createProblem(t, "Timeouts", primary.Criteria{Exception: "java.net"})

	_, err := env.problems.CreateProblem(ctx, primary.CreateProblemRequest{ProjectID: 1, Name: "Timeouts"})
	assert.ErrorContains(t, err, "already exists")

	_, err = env.problems.CreateProblem(ctx, primary.CreateProblemRequest{ProjectID: 1, Name: "  "})
	assert.ErrorContains(t, err, "name is required")

	// Same name in another project is fine
	_, err = env.problems.CreateProblem(ctx, primary.CreateProblemRequest{ProjectID: 2, Name: "Timeouts"})
	assert.NoError(t, err)
}

func TestProblemLifecycle_CloseReopen(t *testing.T) {
	env := newTestEnv(t, MatchingOptions{Pushdown: true})
	ctx := context.Background()
	created := env.createProblem(t, "Timeouts", primary.Criteria{Exception: "java.net"})

	require.ErrorContains(t, env.problems.ReopenProblem(ctx, created.ProblemID), "can only reopen closed problems")

	require.NoError(t, env.problems.CloseProblem(ctx, created.ProblemID))
	p, err := env.problems.GetProblem(ctx, created.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", p.Status)
	assert.Equal(t, "CLOSED", p.EffectiveStatus)
	assert.NotNil(t, p.ClosingDateTime)

	require.ErrorContains(t, env.problems.CloseProblem(ctx, created.ProblemID), "can only close open problems")

	require.NoError(t, env.problems.ReopenProblem(ctx, created.ProblemID))
	p, err = env.problems.GetProblem(ctx, created.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, "OPEN", p.EffectiveStatus)
	assert.Nil(t, p.ClosingDateTime)
}

func TestProblemLifecycle_Reappeared(t *testing.T) {
	env := newTestEnv(t, MatchingOptions{Pushdown: true})
	ctx := context.Background()
	env.problems.now = func() time.Time { return testDate.Add(-24 * time.Hour) }

	created := env.createProblem(t, "Timeouts", primary.Criteria{Exception: "java.net"})
	require.NoError(t, env.problems.CloseProblem(ctx, created.ProblemID))

	result := env.index(t, paymentExecution("RUNNING", []primary.ErrorInput{timeoutAt(15)}, nil))

	p, err := env.problems.GetProblem(ctx, created.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", p.Status)
	assert.Equal(t, "REAPPEARED", p.EffectiveStatus)

	for filter, want := range map[string]int{
		"REAPPEARED":           1,
		"CLOSED":               0,
		"OPEN":                 0,
		"OPEN_OR_REAPPEARED":   1,
		"CLOSED_OR_REAPPEARED": 1,
	} {
		list, err := env.problems.ListProblems(ctx, primary.ProblemFilters{ProjectID: 1, Status: filter})
		require.NoError(t, err)
		assert.Len(t, list, want, "filter %s", filter)
	}

	handlings, err := env.scenarios.ListExecutionHandling(ctx, result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, "UNHANDLED", handlingOf(t, handlings, "fr", "payment.feature"))
}

func TestListProblems_RejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t, MatchingOptions{Pushdown: true})
	_, err := env.problems.ListProblems(context.Background(), primary.ProblemFilters{ProjectID: 1, Status: "FIXED"})
	assert.Error(t, err)
}

func TestUpdateProblemAndDefect(t *testing.T) {
	env := newTestEnv(t, MatchingOptions{Pushdown: true})
	ctx := context.Background()
	timeouts := env.createProblem(t, "Timeouts", primary.Criteria{Exception: "java.net"})
	env.createProblem(t, "Assertions", primary.Criteria{Exception: "java.lang"})

	err := env.problems.UpdateProblem(ctx, primary.UpdateProblemRequest{ProblemID: timeouts.ProblemID, Name: "Assertions"})
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, env.problems.UpdateProblem(ctx, primary.UpdateProblemRequest{ProblemID: timeouts.ProblemID, Name: "Gateway timeouts", Comment: "PSP is slow"}))
	require.NoError(t, env.problems.SetDefect(ctx, primary.SetDefectRequest{ProblemID: timeouts.ProblemID, DefectID: "PAY-42", Existence: "exists"}))

	p, err := env.problems.GetProblem(ctx, timeouts.ProblemID)
	require.NoError(t, err)
	assert.Equal(t, "Gateway timeouts", p.Name)
	assert.Equal(t, "PSP is slow", p.Comment)
	assert.Equal(t, "PAY-42", p.DefectID)
	assert.Equal(t, "EXISTS", p.DefectExistence)

	list, err := env.problems.ListProblems(ctx, primary.ProblemFilters{ProjectID: 1, DefectID: "none"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Assertions", list[0].Name)

	require.NoError(t, env.problems.SetDefect(ctx, primary.SetDefectRequest{ProblemID: timeouts.ProblemID}))
	p, err = env.problems.GetProblem(ctx, timeouts.ProblemID)
	require.NoError(t, err)
	assert.Empty(t, p.DefectID)
	assert.Equal(t, "UNKNOWN", p.DefectExistence)
}

func TestDeleteProblem_UnlinksScenarios(t *testing.T) {
	env := newTestEnv(t, MatchingOptions{Pushdown: true})
	ctx := context.Background()
	timeouts := env.createProblem(t, "Timeouts", primary.Criteria{Exception: "java.net"})
	result := env.index(t, paymentExecution("RUNNING", []primary.ErrorInput{timeoutAt(15)}, nil))

	handlings, err := env.scenarios.ListExecutionHandling(ctx, result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, "HANDLED", handlingOf(t, handlings, "fr", "payment.feature"))
	assert.Equal(t, 1, env.cache.Len())

	require.NoError(t, env.problems.DeleteProblem(ctx, timeouts.ProblemID))
	assert.Zero(t, env.cache.Len())

	handlings, err = env.scenarios.ListExecutionHandling(ctx, result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, "UNHANDLED", handlingOf(t, handlings, "fr", "payment.feature"))

	_, err = env.problems.GetProblem(ctx, timeouts.ProblemID)
	assert.Error(t, err)
}

func handlingOf(t *testing.T, handlings []*primary.ScenarioHandling, country, featureFile string) string {
	t.Helper()
	for _, h := range handlings {
		if h.Country == country && h.FeatureFile == featureFile {
			return h.Handling
		}
	}
	t.Fatalf("no scenario %s on %s", featureFile, country)
	return ""
}
