// Package indexing contains the pure logic of an indexing pass: which errors are
// new since the previous poll of the same job, and which deferred effects the
// pass must schedule.
package indexing

// Diff returns the error ids present in fresh but absent from previous, in the
// order they appear in fresh, without duplicates. With no previous execution
// (nil or empty previous) the whole fresh set is returned.
func Diff(previous, fresh []int64) []int64 {
	seen := make(map[int64]struct{}, len(previous)+len(fresh))
	for _, id := range previous {
		seen[id] = struct{}{}
	}

	result := make([]int64, 0, len(fresh))
	for _, id := range fresh {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// ErrorKey is the natural identity of an error across indexing passes:
// the owning scenario's natural key plus the step line.
type ErrorKey struct {
	Country     string
	Type        string
	Platform    string
	FeatureFile string
	Scenario    string
	Line        int
	StepLine    int
}

// Removed returns the keys of previous that no longer appear in fresh.
func Removed(previous map[ErrorKey]int64, fresh []ErrorKey) []int64 {
	present := make(map[ErrorKey]struct{}, len(fresh))
	for _, k := range fresh {
		present[k] = struct{}{}
	}

	var removed []int64
	for k, id := range previous {
		if _, ok := present[k]; !ok {
			removed = append(removed, id)
		}
	}
	return removed
}
