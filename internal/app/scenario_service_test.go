package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ara/internal/ports/primary"
)

func TestScenarioHandling(t *testing.T) {
	env := newTestEnv(t, MatchingOptions{Pushdown: true})
	ctx := context.Background()
	env.createProblem(t, "Timeouts", primary.Criteria{Exception: "java.net"})
	result := env.index(t, paymentExecution("RUNNING", []primary.ErrorInput{timeoutAt(15), assertionAt(20)}, []primary.ErrorInput{assertionAt(20)}))

	handlings, err := env.scenarios.ListExecutionHandling(ctx, result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, handlings, 3)

	// One handled error is enough
	assert.Equal(t, "HANDLED", handlingOf(t, handlings, "fr", "payment.feature"))
	assert.Equal(t, "SUCCESS", handlingOf(t, handlings, "fr", "browse.feature"))
	assert.Equal(t, "UNHANDLED", handlingOf(t, handlings, "be", "payment.feature"))

	for _, h := range handlings {
		single, err := env.scenarios.GetHandling(ctx, h.ScenarioID)
		require.NoError(t, err)
		assert.Equal(t, h.Handling, single.Handling)
		assert.Equal(t, h.ProblemIDs, single.ProblemIDs)
	}
}

func TestScenarioHandling_UnknownIDs(t *testing.T) {
	env := newTestEnv(t, MatchingOptions{Pushdown: true})
	ctx := context.Background()

	_, err := env.scenarios.GetHandling(ctx, 404)
	assert.Error(t, err)

	_, err = env.scenarios.ListExecutionHandling(ctx, 404)
	assert.Error(t, err)
}
