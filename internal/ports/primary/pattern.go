package primary

import (
	"context"
	"time"
)

// PatternService defines the primary port for problem pattern operations.
// Every change re-runs classification inside the same unit of work.
type PatternService interface {
	// AddPattern adds a pattern to a problem and classifies existing errors.
	AddPattern(ctx context.Context, req AddPatternRequest) (*PatternResponse, error)

	// UpdatePattern replaces the criteria of a pattern and reclassifies.
	UpdatePattern(ctx context.Context, req UpdatePatternRequest) (*PatternResponse, error)

	// DeletePattern deletes a pattern, and its problem when no pattern is left.
	DeletePattern(ctx context.Context, patternID int64) (*DeletePatternResponse, error)

	// MovePattern moves a pattern with its occurrences to another problem.
	MovePattern(ctx context.Context, req MovePatternRequest) error

	// ListPatterns lists the patterns of a problem.
	ListPatterns(ctx context.Context, problemID int64) ([]*Pattern, error)

	// ListPatternErrors lists the errors a pattern is linked to.
	ListPatternErrors(ctx context.Context, patternID int64) ([]*PatternError, error)
}

// AddPatternRequest contains parameters for adding a pattern.
type AddPatternRequest struct {
	ProblemID int64
	Criteria  Criteria
}

// UpdatePatternRequest contains parameters for updating a pattern.
type UpdatePatternRequest struct {
	PatternID int64
	Criteria  Criteria
}

// MovePatternRequest contains parameters for moving a pattern.
type MovePatternRequest struct {
	PatternID   int64
	ToProblemID int64
}

// PatternResponse contains the result of saving a pattern.
type PatternResponse struct {
	PatternID  int64
	ProblemID  int64
	CatchAll   bool
	Assignment *AssignmentResult
}

// DeletePatternResponse contains the result of deleting a pattern.
type DeletePatternResponse struct {
	ProblemID      int64
	ProblemDeleted bool
}

// Pattern represents a problem pattern at the port boundary.
type Pattern struct {
	ID               int64
	ProblemID        int64
	Criteria         Criteria
	CatchAll         bool
	CreationDateTime time.Time
}

// PatternError is an error linked to a pattern, with its context.
type PatternError struct {
	ErrorID        int64
	ExecutionID    int64
	Release        string
	Country        string
	Type           string
	Platform       string
	FeatureFile    string
	ScenarioName   string
	Step           string
	StepDefinition string
	StepLine       int
	Exception      string
}
