package problem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHandling_NoErrorIsSuccess(t *testing.T) {
	assert.Equal(t, HandlingSuccess, ClassifyHandling(ScenarioLinks{ScenarioID: 1}))
}

func TestClassifyHandling_UnlinkedErrorsAreUnhandled(t *testing.T) {
	s := ScenarioLinks{
		ScenarioID: 1,
		Errors:     []ErrorLinks{{ErrorID: 1}, {ErrorID: 2}, {ErrorID: 3}},
	}
	assert.Equal(t, HandlingUnhandled, ClassifyHandling(s))
}

func TestClassifyHandling_OneErrorLinkedToOpenProblem(t *testing.T) {
	s := ScenarioLinks{
		ScenarioID: 1,
		Errors: []ErrorLinks{
			{ErrorID: 1},
			{ErrorID: 2, Problems: []State{{ID: 5, Status: StatusOpen}}},
			{ErrorID: 3},
		},
	}
	assert.Equal(t, HandlingHandled, ClassifyHandling(s))
}

func TestClassifyHandling_OnlyReappearedProblems(t *testing.T) {
	closed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := closed.Add(24 * time.Hour)
	reappeared := State{ID: 5, Status: StatusClosed, ClosedAt: &closed, LastSeen: &seen}

	s := ScenarioLinks{
		ScenarioID: 1,
		Errors: []ErrorLinks{
			{ErrorID: 1, Problems: []State{reappeared}},
			{ErrorID: 2},
		},
	}
	assert.Equal(t, HandlingUnhandled, ClassifyHandling(s))

	// a closed problem that did not come back still counts as handled
	before := closed.Add(-time.Hour)
	s.Errors[1].Problems = []State{{ID: 6, Status: StatusClosed, ClosedAt: &closed, LastSeen: &before}}
	assert.Equal(t, HandlingHandled, ClassifyHandling(s))
}
