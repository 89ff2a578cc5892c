package secondary

import (
	"context"
	"time"
)

// Notifier sends the quality notification of a finished execution.
// It is invoked only after the indexing pass has committed.
type Notifier interface {
	// Send delivers one notification. Implementations must not retry forever.
	Send(ctx context.Context, n Notification) error
}

// Notification is the outbound message about one finished execution.
type Notification struct {
	ID          string // unique per send, for log correlation
	ProjectID   int64
	ExecutionID int64
	JobURL      string
	JobStatus   string
	Branch      string
	Release     string
	Name        string
	TestDate    time.Time
	Subject     string
	Counts      HandlingCounts
	Problems    []NotifiedProblem
}

// HandlingCounts counts the executed scenarios of an execution per handling.
type HandlingCounts struct {
	Success   int
	Handled   int
	Unhandled int
}

// NotifiedProblem is a problem touched by the execution.
type NotifiedProblem struct {
	ID              int64
	Name            string
	EffectiveStatus string
	DefectID        string
}

// ErrorLinkCache caches the pattern links of errors, keyed by error ID.
// Entries are evicted only by committed writes.
type ErrorLinkCache interface {
	// Get returns the cached links of errorID, calling load on a miss.
	Get(ctx context.Context, errorID int64, load func(ctx context.Context) ([]PatternLink, error)) ([]PatternLink, error)

	// Evict drops the entries of the given error IDs.
	Evict(errorIDs ...int64)
}
