package problem

import (
	"fmt"
	"strings"
)

// StatusFilter selects problems by status. Some values combine effective states.
type StatusFilter string

const (
	FilterOpen               StatusFilter = "OPEN"
	FilterClosed             StatusFilter = "CLOSED"
	FilterReappeared         StatusFilter = "REAPPEARED"
	FilterOpenOrReappeared   StatusFilter = "OPEN_OR_REAPPEARED"
	FilterClosedOrReappeared StatusFilter = "CLOSED_OR_REAPPEARED"
)

// ParseStatusFilter parses a user supplied filter. An empty string means no filter.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	f := StatusFilter(strings.ToUpper(strings.TrimSpace(raw)))
	switch f {
	case "", FilterOpen, FilterClosed, FilterReappeared, FilterOpenOrReappeared, FilterClosedOrReappeared:
		return f, nil
	default:
		return "", fmt.Errorf("unknown status filter %q", raw)
	}
}

// StorageOnly reports whether the filter only looks at the stored status and
// needs no occurrence dates.
func (f StatusFilter) StorageOnly() bool {
	return f == FilterOpen || f == FilterClosedOrReappeared
}

// Accepts reports whether a problem in state s passes the filter.
// The empty filter accepts everything.
func (f StatusFilter) Accepts(s State) bool {
	switch f {
	case "":
		return true
	case FilterOpen:
		return s.Status == StatusOpen
	case FilterClosed:
		return Effective(s) == EffectiveClosed
	case FilterReappeared:
		return Effective(s) == EffectiveReappeared
	case FilterOpenOrReappeared:
		e := Effective(s)
		return e == EffectiveOpen || e == EffectiveReappeared
	case FilterClosedOrReappeared:
		return s.Status == StatusClosed
	default:
		return false
	}
}
