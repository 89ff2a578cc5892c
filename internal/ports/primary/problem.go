package primary

import (
	"context"
	"time"
)

// ProblemService defines the primary port for problem operations.
type ProblemService interface {
	// CreateProblem creates a problem with its first pattern and classifies
	// the existing errors of the project against it.
	CreateProblem(ctx context.Context, req CreateProblemRequest) (*CreateProblemResponse, error)

	// GetProblem retrieves a problem with its effective status and aggregate.
	GetProblem(ctx context.Context, problemID int64) (*Problem, error)

	// ListProblems lists problems with optional filters.
	ListProblems(ctx context.Context, filters ProblemFilters) ([]*Problem, error)

	// UpdateProblem updates the name and comment of a problem.
	UpdateProblem(ctx context.Context, req UpdateProblemRequest) error

	// CloseProblem closes an open problem.
	CloseProblem(ctx context.Context, problemID int64) error

	// ReopenProblem reopens a closed problem.
	ReopenProblem(ctx context.Context, problemID int64) error

	// SetDefect records the external defect of a problem.
	SetDefect(ctx context.Context, req SetDefectRequest) error

	// DeleteProblem deletes a problem with its patterns and occurrences.
	DeleteProblem(ctx context.Context, problemID int64) error
}

// CreateProblemRequest contains parameters for creating a problem.
type CreateProblemRequest struct {
	ProjectID int64
	Name      string
	Comment   string
	DefectID  string
	Criteria  Criteria
}

// CreateProblemResponse contains the result of creating a problem.
type CreateProblemResponse struct {
	ProblemID  int64
	PatternID  int64
	CatchAll   bool
	Assignment *AssignmentResult
}

// UpdateProblemRequest contains parameters for updating a problem.
type UpdateProblemRequest struct {
	ProblemID int64
	Name      string
	Comment   string
}

// SetDefectRequest contains parameters for recording a defect.
// An empty DefectID removes the defect.
type SetDefectRequest struct {
	ProblemID int64
	DefectID  string
	Existence string
}

// ProblemFilters contains filter options for listing problems.
type ProblemFilters struct {
	ProjectID       int64
	Name            string
	Status          string // OPEN, CLOSED, REAPPEARED, OPEN_OR_REAPPEARED, CLOSED_OR_REAPPEARED
	DefectID        string // "none" for problems without defect
	DefectExistence string
	Limit           int
}

// Problem represents a problem at the port boundary.
type Problem struct {
	ID               int64
	ProjectID        int64
	Name             string
	Comment          string
	Status           string // stored: OPEN or CLOSED
	EffectiveStatus  string // OPEN, CLOSED or REAPPEARED
	ClosingDateTime  *time.Time
	DefectID         string
	DefectExistence  string
	CreationDateTime time.Time
	FirstSeen        *time.Time
	LastSeen         *time.Time
	Aggregate        *ProblemAggregate // only set by GetProblem
	Patterns         []*Pattern        // only set by GetProblem
}

// ProblemAggregate contains occurrence statistics of a problem.
type ProblemAggregate struct {
	PatternCount  int
	ErrorCount    int
	ScenarioCount int
	FirstScenario string
	BranchCount   int
	FirstBranch   string
	ReleaseCount  int
	FirstRelease  string
	VersionCount  int
	FirstVersion  string
	CountryCount  int
	FirstCountry  string
	TypeCount     int
	FirstType     string
	PlatformCount int
	FirstPlatform string
}
