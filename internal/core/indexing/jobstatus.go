package indexing

import "strings"

// JobStatus is the workflow status of the CI job behind an execution.
type JobStatus string

const (
	JobPending     JobStatus = "PENDING"
	JobRunning     JobStatus = "RUNNING"
	JobDone        JobStatus = "DONE"
	JobUnavailable JobStatus = "UNAVAILABLE"
)

// ParseJobStatus maps a raw status to a JobStatus. Unknown and empty values map to
// UNAVAILABLE instead of failing the pass: indexing must keep progressing for
// other jobs.
func ParseJobStatus(raw string) JobStatus {
	switch JobStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case JobPending:
		return JobPending
	case JobRunning:
		return JobRunning
	case JobDone:
		return JobDone
	default:
		return JobUnavailable
	}
}

// IsDone reports whether the job finished.
func (s JobStatus) IsDone() bool {
	return s == JobDone
}
