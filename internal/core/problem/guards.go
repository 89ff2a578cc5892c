package problem

import (
	"fmt"
	"strings"
)

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

// StatusTransitionContext provides context for close/reopen guards.
type StatusTransitionContext struct {
	ProblemID int64
	Status    Status
}

// CanClose evaluates whether a problem can be closed.
// Rules:
// - Stored status must be OPEN
func CanClose(ctx StatusTransitionContext) GuardResult {
	if ctx.Status != StatusOpen {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only close open problems (problem %d is %s)", ctx.ProblemID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}

// CanReopen evaluates whether a problem can be reopened.
// Rules:
// - Stored status must be CLOSED (a REAPPEARED problem is stored CLOSED)
func CanReopen(ctx StatusTransitionContext) GuardResult {
	if ctx.Status != StatusClosed {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only reopen closed problems (problem %d is %s)", ctx.ProblemID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}

// CreateProblemContext provides context for problem creation guards.
type CreateProblemContext struct {
	ProjectID  int64
	Name       string
	NameExists bool
}

// CanCreate evaluates whether a problem can be created.
// Rules:
// - Name must not be blank
// - Name must be unique within the project
func CanCreate(ctx CreateProblemContext) GuardResult {
	if strings.TrimSpace(ctx.Name) == "" {
		return GuardResult{Allowed: false, Reason: "problem name is required"}
	}
	if ctx.NameExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("a problem named %q already exists in project %d", ctx.Name, ctx.ProjectID),
		}
	}
	return GuardResult{Allowed: true}
}
