package indexing

import (
	"fmt"
	"sort"

	"github.com/example/ara/internal/core/effects"
)

// PostIndexPlanInput contains pre-fetched data about a persisted indexing pass.
type PostIndexPlanInput struct {
	ProjectID         int64
	ExecutionID       int64
	JobURL            string
	JobStatus         JobStatus
	NewErrorIDs       []int64
	RemovedErrorIDs   []int64
	MatchedErrorIDs   []int64
	UpdatedProblemIDs []int64
	InsertedCount     int64
}

// PostIndexPlan represents the deferred effects of an indexing pass.
// None of them may run before the pass has committed.
type PostIndexPlan struct {
	CacheOps  []effects.EvictErrorLinksEffect
	NotifyOps []effects.NotifyExecutionEffect
	LogOps    []effects.LogEffect
}

// Effects returns all effects as a flat slice for execution.
// Cache eviction comes first so a notification reader sees fresh links.
func (p PostIndexPlan) Effects() []effects.Effect {
	result := make([]effects.Effect, 0, len(p.CacheOps)+len(p.NotifyOps)+len(p.LogOps))
	for _, e := range p.CacheOps {
		result = append(result, e)
	}
	for _, e := range p.NotifyOps {
		result = append(result, e)
	}
	for _, e := range p.LogOps {
		result = append(result, e)
	}
	return result
}

// GeneratePostIndexPlan creates the deferred effects of an indexing pass.
// This is a pure function - all input data must be pre-fetched.
func GeneratePostIndexPlan(input PostIndexPlanInput) PostIndexPlan {
	var plan PostIndexPlan

	evict := mergeIDs(input.MatchedErrorIDs, input.RemovedErrorIDs)
	if len(evict) > 0 {
		plan.CacheOps = append(plan.CacheOps, effects.EvictErrorLinksEffect{ErrorIDs: evict})
	}

	if input.JobStatus.IsDone() {
		plan.NotifyOps = append(plan.NotifyOps, effects.NotifyExecutionEffect{
			ProjectID:   input.ProjectID,
			ExecutionID: input.ExecutionID,
			JobURL:      input.JobURL,
			JobStatus:   string(input.JobStatus),
			ProblemIDs:  mergeIDs(input.UpdatedProblemIDs, nil),
		})
	}

	plan.LogOps = append(plan.LogOps, effects.LogEffect{
		Level:   "info",
		Message: fmt.Sprintf("indexed execution %d", input.ExecutionID),
		Fields: map[string]any{
			"project_id":          input.ProjectID,
			"job_status":          string(input.JobStatus),
			"new_errors":          len(input.NewErrorIDs),
			"removed_errors":      len(input.RemovedErrorIDs),
			"problem_occurrences": input.InsertedCount,
			"updated_problems":    len(input.UpdatedProblemIDs),
		},
	})

	return plan
}

// mergeIDs returns the sorted union of a and b without duplicates.
func mergeIDs(a, b []int64) []int64 {
	if len(a)+len(b) == 0 {
		return nil
	}
	set := make(map[int64]struct{}, len(a)+len(b))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		set[id] = struct{}{}
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
