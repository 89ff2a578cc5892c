package primary

import "context"

// ScenarioService defines the primary port for scenario triage views.
type ScenarioService interface {
	// GetHandling classifies one executed scenario.
	GetHandling(ctx context.Context, scenarioID int64) (*ScenarioHandling, error)

	// ListExecutionHandling classifies every scenario of an execution.
	ListExecutionHandling(ctx context.Context, executionID int64) ([]*ScenarioHandling, error)
}

// ScenarioHandling is the triage classification of one executed scenario.
type ScenarioHandling struct {
	ScenarioID  int64
	FeatureFile string
	Name        string
	Country     string
	Type        string
	Platform    string
	Handling    string // SUCCESS, HANDLED or UNHANDLED
	ErrorCount  int
	ProblemIDs  []int64
}
