package primary

import (
	"context"
	"time"

	"github.com/example/ara/internal/core/indexing"
)

// IndexingService defines the primary port for indexing execution reports.
type IndexingService interface {
	// IndexExecution persists an already-parsed execution graph, classifies its
	// new errors and, once committed, runs the deferred actions of the pass.
	IndexExecution(ctx context.Context, req IndexExecutionRequest) (*IndexResult, error)
}

// IndexExecutionRequest contains the parsed execution to index.
type IndexExecutionRequest struct {
	ProjectID int64
	Execution ExecutionInput
}

// ExecutionInput is one CI job result. JobURL or JobLink identifies the job
// within a project; re-indexing the same job updates it in place.
type ExecutionInput struct {
	JobURL       string     `yaml:"jobUrl" json:"jobUrl"`
	JobLink      string     `yaml:"jobLink" json:"jobLink"`
	Name         string     `yaml:"name" json:"name"`
	Branch       string     `yaml:"branch" json:"branch"`
	Release      string     `yaml:"release" json:"release"`
	Version      string     `yaml:"version" json:"version"`
	Status       string     `yaml:"status" json:"status"`
	TestDateTime time.Time  `yaml:"testDateTime" json:"testDateTime"`
	Runs         []RunInput `yaml:"runs" json:"runs"`
}

// NaturalKeys returns the key skeleton of the graph, for duplicate checks.
func (in ExecutionInput) NaturalKeys() []indexing.RunKeys {
	runs := make([]indexing.RunKeys, 0, len(in.Runs))
	for _, run := range in.Runs {
		rk := indexing.RunKeys{Country: run.Country, Type: run.Type, Platform: run.Platform}
		for _, sc := range run.Scenarios {
			sk := indexing.ScenarioKeys{FeatureFile: sc.FeatureFile, Name: sc.Name, Line: sc.Line}
			for _, e := range sc.Errors {
				sk.StepLines = append(sk.StepLines, e.StepLine)
			}
			rk.Scenarios = append(rk.Scenarios, sk)
		}
		runs = append(runs, rk)
	}
	return runs
}

// RunInput is one run of an execution, for one country/type/platform.
type RunInput struct {
	Country       string          `yaml:"country" json:"country"`
	Type          string          `yaml:"type" json:"type"`
	TypeIsBrowser bool            `yaml:"typeIsBrowser" json:"typeIsBrowser"`
	TypeIsMobile  bool            `yaml:"typeIsMobile" json:"typeIsMobile"`
	Platform      string          `yaml:"platform" json:"platform"`
	Scenarios     []ScenarioInput `yaml:"scenarios" json:"scenarios"`
}

// ScenarioInput is one executed scenario and its failed steps.
type ScenarioInput struct {
	FeatureFile string       `yaml:"featureFile" json:"featureFile"`
	FeatureName string       `yaml:"featureName" json:"featureName"`
	Name        string       `yaml:"name" json:"name"`
	Line        int          `yaml:"line" json:"line"`
	Errors      []ErrorInput `yaml:"errors" json:"errors"`
}

// ErrorInput is one failed or undefined step.
type ErrorInput struct {
	Step           string `yaml:"step" json:"step"`
	StepDefinition string `yaml:"stepDefinition" json:"stepDefinition"`
	StepLine       int    `yaml:"stepLine" json:"stepLine"`
	Exception      string `yaml:"exception" json:"exception"`
}

// IndexResult contains the outcome of an indexing pass.
type IndexResult struct {
	PassID            string
	ExecutionID       int64
	JobStatus         string
	NewErrorIDs       []int64
	RemovedErrorIDs   []int64
	UpdatedProblemIDs []int64
	InsertedCount     int64
	Notified          bool
}
