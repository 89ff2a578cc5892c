package pattern

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// Sibling is another pattern of the same problem.
type Sibling struct {
	ID       int64
	Criteria Criteria
}

// SavePatternContext provides context for pattern create/update guards.
type SavePatternContext struct {
	PatternID int64 // 0 when creating
	ProblemID int64
	Criteria  Criteria
	Siblings  []Sibling
}

// CanSavePattern evaluates whether a pattern can be saved under its problem.
// Rules:
// - No other pattern of the same problem may carry identical criteria
// - Saving a pattern unchanged is allowed
func CanSavePattern(ctx SavePatternContext) GuardResult {
	for _, s := range ctx.Siblings {
		if s.ID == ctx.PatternID {
			continue
		}
		if s.Criteria.Equal(ctx.Criteria) {
			return GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("problem %d already has pattern %d with the same criteria", ctx.ProblemID, s.ID),
			}
		}
	}

	return GuardResult{Allowed: true}
}
