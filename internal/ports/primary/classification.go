package primary

import "context"

// ClassificationService defines the primary port for matching errors to problems.
// Each call is its own unit of work.
type ClassificationService interface {
	// AssignNewErrors matches the given errors against every pattern of the project.
	AssignNewErrors(ctx context.Context, req AssignNewErrorsRequest) (*AssignmentResult, error)

	// AssignExistingErrors matches one pattern against every error of its project.
	AssignExistingErrors(ctx context.Context, patternID int64) (*AssignmentResult, error)
}

// AssignNewErrorsRequest contains parameters for classifying new errors.
type AssignNewErrorsRequest struct {
	ProjectID int64
	ErrorIDs  []int64
}

// AssignmentResult contains the outcome of a classification.
type AssignmentResult struct {
	ProblemIDs      []int64 // problems with at least one matching pattern
	MatchedErrorIDs []int64
	InsertedCount   int64
	CatchAllIDs     []int64 // catch-all patterns that took part
}

// Criteria is the set of optional constraints of a pattern.
// Empty strings and nil pointers are wildcards.
type Criteria struct {
	FeatureFile              string
	FeatureName              string
	ScenarioName             string
	ScenarioNameStartsWith   bool
	Step                     string
	StepStartsWith           bool
	StepDefinition           string
	StepDefinitionStartsWith bool
	Exception                string
	Release                  string
	Country                  string
	Type                     string
	Platform                 string
	TypeIsBrowser            *bool
	TypeIsMobile             *bool
}
