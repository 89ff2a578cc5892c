package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_PreviousPollOfSameJob(t *testing.T) {
	previous := []int64{112, 212}
	fresh := []int64{111, 112, 113, 211, 212, 221, 222}

	assert.ElementsMatch(t, []int64{111, 113, 211, 221, 222}, Diff(previous, fresh))
}

func TestDiff_NoPreviousExecution(t *testing.T) {
	fresh := []int64{3, 1, 2}
	assert.Equal(t, []int64{3, 1, 2}, Diff(nil, fresh))
}

func TestDiff_NothingNew(t *testing.T) {
	assert.Empty(t, Diff([]int64{1, 2, 3}, []int64{3, 2, 1}))
}

func TestDiff_CollapsesDuplicates(t *testing.T) {
	assert.Equal(t, []int64{5, 6}, Diff([]int64{1}, []int64{5, 1, 5, 6}))
}

func TestRemoved(t *testing.T) {
	k1 := ErrorKey{Country: "fr", Type: "api", FeatureFile: "a.feature", Scenario: "A", Line: 3, StepLine: 5}
	k2 := ErrorKey{Country: "fr", Type: "api", FeatureFile: "a.feature", Scenario: "A", Line: 3, StepLine: 8}
	k3 := ErrorKey{Country: "be", Type: "api", FeatureFile: "a.feature", Scenario: "A", Line: 3, StepLine: 5}

	previous := map[ErrorKey]int64{k1: 10, k2: 11, k3: 12}

	assert.ElementsMatch(t, []int64{11}, Removed(previous, []ErrorKey{k1, k3}))
	assert.Empty(t, Removed(previous, []ErrorKey{k1, k2, k3}))
	assert.Empty(t, Removed(nil, []ErrorKey{k1}))
}

func TestParseJobStatus(t *testing.T) {
	tests := map[string]JobStatus{
		"DONE":      JobDone,
		"done":      JobDone,
		" running ": JobRunning,
		"PENDING":   JobPending,
		"":          JobUnavailable,
		"ABORTED":   JobUnavailable,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseJobStatus(raw), "ParseJobStatus(%q)", raw)
	}
}
