// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"

	"github.com/example/ara/internal/core/aggregate"
	"github.com/example/ara/internal/core/indexing"
	"github.com/example/ara/internal/core/pattern"
)

// ErrNotFound is returned (wrapped) by repositories when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrJobIdentityConflict is returned when a job's URL and link point to two
// different stored executions.
var ErrJobIdentityConflict = errors.New("job identity conflict")

// UnitOfWork runs a function inside one store transaction.
// The transaction commits only when fn returns nil; any error or panic rolls it back.
// A nil return from Do means the commit succeeded.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Repositories groups the repositories bound to one transaction.
type Repositories struct {
	Problems    ProblemRepository
	Patterns    PatternRepository
	Errors      ErrorRepository
	Occurrences OccurrenceRepository
	Executions  ExecutionRepository
}

// ProblemRepository defines the secondary port for problem persistence.
type ProblemRepository interface {
	// Create persists a new problem and sets its ID.
	Create(ctx context.Context, problem *ProblemRecord) error

	// GetByID retrieves a problem by its ID.
	GetByID(ctx context.Context, id int64) (*ProblemRecord, error)

	// GetByIDs retrieves the problems with the given IDs, ordered by ID.
	// Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []int64) ([]*ProblemRecord, error)

	// NameExists reports whether a problem of the project already uses name.
	NameExists(ctx context.Context, projectID int64, name string) (bool, error)

	// Update updates the name and comment of a problem.
	Update(ctx context.Context, problem *ProblemRecord) error

	// UpdateStatus sets the stored status and closing date time.
	UpdateStatus(ctx context.Context, id int64, status string, closedAt *time.Time) error

	// UpdateDefect sets the external defect id and its existence state.
	UpdateDefect(ctx context.Context, id int64, defectID, existence string) error

	// UpdateSeenDates overwrites first/last seen dates. Problems in ids but
	// absent from dates get both dates cleared.
	UpdateSeenDates(ctx context.Context, ids []int64, dates map[int64]SeenDates) error

	// Delete removes a problem, its patterns and their occurrences.
	Delete(ctx context.Context, id int64) error

	// List retrieves problems matching the given filters.
	List(ctx context.Context, filters ProblemFilters) ([]*ProblemRecord, error)
}

// ProblemRecord represents a problem as stored in persistence.
type ProblemRecord struct {
	ID               int64
	ProjectID        int64
	Name             string
	Comment          string
	Status           string // OPEN or CLOSED
	ClosingDateTime  *time.Time
	DefectID         string
	DefectExistence  string
	CreationDateTime time.Time
	FirstSeen        *time.Time
	LastSeen         *time.Time
}

// ProblemFilters contains filter options for querying problems.
type ProblemFilters struct {
	ProjectID       int64
	Name            string // case-insensitive contains
	Status          string // status combinator, see problem.StatusFilter
	DefectID        string // "none" selects problems without defect
	DefectExistence string
	Limit           int
}

// SeenDates holds the first and last occurrence test date times of a problem.
type SeenDates struct {
	First time.Time
	Last  time.Time
}

// PatternRepository defines the secondary port for problem pattern persistence.
type PatternRepository interface {
	// Create persists a new pattern and sets its ID.
	Create(ctx context.Context, p *PatternRecord) error

	// GetByID retrieves a pattern with its project.
	GetByID(ctx context.Context, id int64) (*PatternRecord, error)

	// Update replaces the criteria of a pattern.
	Update(ctx context.Context, p *PatternRecord) error

	// Delete removes a pattern and its occurrences.
	Delete(ctx context.Context, id int64) error

	// Move reassigns a pattern to another problem.
	Move(ctx context.Context, id, problemID int64) error

	// ListByProject retrieves every pattern of a project, ordered by ID.
	ListByProject(ctx context.Context, projectID int64) ([]*PatternRecord, error)

	// ListByProblem retrieves the patterns of one problem, ordered by ID.
	ListByProblem(ctx context.Context, problemID int64) ([]*PatternRecord, error)

	// CountByProblem returns how many patterns a problem owns.
	CountByProblem(ctx context.Context, problemID int64) (int, error)
}

// PatternRecord represents a problem pattern as stored in persistence.
type PatternRecord struct {
	ID               int64
	ProblemID        int64
	ProjectID        int64 // read-only, from the owning problem
	Criteria         pattern.Criteria
	CreationDateTime time.Time
}

// ErrorRepository defines the secondary port for reading indexed errors.
type ErrorRepository interface {
	// FindErrorIDsMatching returns the IDs of errors of the project satisfying
	// criteria. A nil candidateIDs searches every error of the project.
	FindErrorIDsMatching(ctx context.Context, projectID int64, criteria pattern.Criteria, candidateIDs []int64) ([]int64, error)

	// FindContexts loads the denormalized matching context of errors.
	// A nil ids loads every error of the project. Errors with a missing owner
	// are returned with a nil Scenario, Run or Execution.
	FindContexts(ctx context.Context, projectID int64, ids []int64) ([]pattern.ErrorContext, error)

	// FindLinks returns the pattern links of each error ID.
	// Errors without any link are absent from the map.
	FindLinks(ctx context.Context, errorIDs []int64) (map[int64][]PatternLink, error)

	// ListByPattern returns the contexts of the errors linked to a pattern.
	ListByPattern(ctx context.Context, patternID int64) ([]pattern.ErrorContext, error)

	// ListIDsByProject returns every error ID of a project.
	ListIDsByProject(ctx context.Context, projectID int64) ([]int64, error)

	// ListIDsByScenarios returns error IDs grouped by scenario ID.
	ListIDsByScenarios(ctx context.Context, scenarioIDs []int64) (map[int64][]int64, error)

	// CountOrphans counts errors of the given IDs whose ownership chain is
	// broken. A nil ids checks the whole store: an orphan has lost the link
	// to its execution, so it cannot be attributed to a project.
	CountOrphans(ctx context.Context, ids []int64) (int, error)

	// DeleteByIDs removes errors and their occurrences.
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// PatternLink is one pattern an error is linked to, with the pattern's problem.
type PatternLink struct {
	PatternID int64
	ProblemID int64
}

// OccurrenceRepository defines the secondary port for problem occurrences.
type OccurrenceRepository interface {
	// BatchInsert inserts occurrences, ignoring pairs that already exist.
	// Returns the number of rows actually inserted.
	BatchInsert(ctx context.Context, occurrences []OccurrenceRecord) (int64, error)

	// DeleteByPattern removes every occurrence of a pattern.
	DeleteByPattern(ctx context.Context, patternID int64) error

	// ListErrorIDsByPattern returns the IDs of errors linked to a pattern.
	ListErrorIDsByPattern(ctx context.Context, patternID int64) ([]int64, error)

	// FindFirstAndLastOccurrenceDates returns min/max test date time of the
	// occurrences of each problem. Problems without occurrence are absent.
	FindFirstAndLastOccurrenceDates(ctx context.Context, problemIDs []int64) (map[int64]SeenDates, error)

	// FindFacts returns one flat fact per occurrence of the given problems.
	FindFacts(ctx context.Context, problemIDs []int64) ([]aggregate.Fact, error)

	// FindProblemIDsByErrors returns the distinct problems linked to errors.
	FindProblemIDsByErrors(ctx context.Context, errorIDs []int64) ([]int64, error)
}

// OccurrenceRecord is the fact that one error matched one pattern.
type OccurrenceRecord struct {
	ErrorID   int64
	PatternID int64
}

// ExecutionRepository defines the secondary port for indexed executions.
type ExecutionRepository interface {
	// FindPreviousByJobIdentity returns the execution of the project recorded
	// under jobURL or, failing that, jobLink. Returns nil, nil when none exists.
	FindPreviousByJobIdentity(ctx context.Context, projectID int64, jobURL, jobLink string) (*ExecutionRecord, error)

	// GetByID retrieves an execution by its ID.
	GetByID(ctx context.Context, id int64) (*ExecutionRecord, error)

	// ErrorIDsOfExecution returns every error ID of an execution.
	ErrorIDsOfExecution(ctx context.Context, executionID int64) ([]int64, error)

	// ErrorKeysOfExecution returns the error IDs of an execution keyed by natural key.
	ErrorKeysOfExecution(ctx context.Context, executionID int64) (map[indexing.ErrorKey]int64, error)

	// Save upserts an execution graph by natural key, keeping the IDs of rows
	// that already exist, and prunes runs and scenarios absent from the graph.
	Save(ctx context.Context, graph *ExecutionGraph) (*SavedExecution, error)

	// GetScenario retrieves one executed scenario with its run.
	GetScenario(ctx context.Context, id int64) (*ScenarioView, error)

	// ListScenarios retrieves every executed scenario of an execution.
	ListScenarios(ctx context.Context, executionID int64) ([]*ScenarioView, error)
}

// ExecutionRecord represents an execution as stored in persistence.
type ExecutionRecord struct {
	ID           int64
	ProjectID    int64
	JobURL       string
	JobLink      string
	Name         string
	Branch       string
	Release      string
	Version      string
	Status       string
	TestDateTime time.Time
}

// ExecutionGraph is an execution with its runs, scenarios and errors.
type ExecutionGraph struct {
	Execution ExecutionRecord
	Runs      []RunGraph
}

// RunGraph is one run with its scenarios.
type RunGraph struct {
	Country       string
	Type          string
	TypeIsBrowser bool
	TypeIsMobile  bool
	Platform      string
	Scenarios     []ScenarioGraph
}

// ScenarioGraph is one executed scenario with its errors.
type ScenarioGraph struct {
	FeatureFile string
	FeatureName string
	Name        string
	Line        int
	Errors      []ErrorGraph
}

// ErrorGraph is one failed step.
type ErrorGraph struct {
	Step           string
	StepDefinition string
	StepLine       int
	Exception      string
}

// SavedExecution is the outcome of persisting an execution graph.
type SavedExecution struct {
	ExecutionID int64
	ErrorIDs    []int64 // every error of the saved graph, in graph order
}

// ScenarioView is an executed scenario with the context of its run.
type ScenarioView struct {
	ID          int64
	ExecutionID int64
	RunID       int64
	Country     string
	Type        string
	Platform    string
	FeatureFile string
	FeatureName string
	Name        string
	Line        int
}
