// Package effects defines effect types as data structures describing side effects
// that must only happen once a unit of work has committed.
// Effects are pure data - they describe what should happen, not how.
package effects

// Effect is the base interface for all effects.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// EvictErrorLinksEffect drops the cached pattern links of the given errors.
// It must run after the transaction that changed those links has committed,
// otherwise a concurrent reader could repopulate the cache with stale rows.
type EvictErrorLinksEffect struct {
	ErrorIDs []int64
}

func (e EvictErrorLinksEffect) EffectType() string { return "evict_error_links" }

// NotifyExecutionEffect sends the quality notification of a finished execution.
type NotifyExecutionEffect struct {
	ProjectID   int64
	ExecutionID int64
	JobURL      string
	JobStatus   string
	ProblemIDs  []int64
}

func (e NotifyExecutionEffect) EffectType() string { return "notify_execution" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }

// Evict returns an eviction effect for ids, or NoEffect when ids is empty.
func Evict(ids []int64) Effect {
	if len(ids) == 0 {
		return NoEffect{}
	}
	cp := make([]int64, len(ids))
	copy(cp, ids)
	return EvictErrorLinksEffect{ErrorIDs: cp}
}
