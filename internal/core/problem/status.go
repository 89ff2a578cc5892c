// Package problem contains the pure lifecycle logic of problems: effective
// status, handling of executed scenarios, status filters and transition guards.
package problem

import (
	"strings"
	"time"
)

// Status is the status stored for a problem and managed by users.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// ParseStatus translates a raw stored value. Unknown values fall back to OPEN,
// the least committal state: the problem stays tracked.
func ParseStatus(raw string) Status {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusClosed:
		return StatusClosed
	default:
		return StatusOpen
	}
}

// EffectiveStatus is the status displayed to users. It is derived, never stored.
type EffectiveStatus string

const (
	EffectiveOpen       EffectiveStatus = "OPEN"
	EffectiveClosed     EffectiveStatus = "CLOSED"
	EffectiveReappeared EffectiveStatus = "REAPPEARED"
)

// DefectExistence is the last known state of a problem's defect in the tracker.
type DefectExistence string

const (
	DefectExists      DefectExistence = "EXISTS"
	DefectNonexistent DefectExistence = "NONEXISTENT"
	DefectUnknown     DefectExistence = "UNKNOWN"
)

// ParseDefectExistence translates a raw value, defaulting to UNKNOWN.
func ParseDefectExistence(raw string) DefectExistence {
	switch DefectExistence(strings.ToUpper(strings.TrimSpace(raw))) {
	case DefectExists:
		return DefectExists
	case DefectNonexistent:
		return DefectNonexistent
	default:
		return DefectUnknown
	}
}

// State holds the stored facts needed to derive a problem's effective status.
type State struct {
	ID        int64
	Status    Status
	ClosedAt  *time.Time
	LastSeen  *time.Time // test date time of the most recent occurrence
	FirstSeen *time.Time
}

// Effective derives the effective status of a problem.
// A closed problem is REAPPEARED when an occurrence was tested after its closing.
func Effective(s State) EffectiveStatus {
	if s.Status != StatusClosed {
		return EffectiveOpen
	}
	if s.ClosedAt != nil && s.LastSeen != nil && s.LastSeen.After(*s.ClosedAt) {
		return EffectiveReappeared
	}
	return EffectiveClosed
}

// EffectiveAt is Effective with an explicit last occurrence date.
func EffectiveAt(s State, lastOccurrence *time.Time) EffectiveStatus {
	s.LastSeen = lastOccurrence
	return Effective(s)
}

// IsHandled reports whether someone is tracking the problem, or it was resolved
// and has not come back.
func IsHandled(s State) bool {
	return Effective(s) != EffectiveReappeared
}
