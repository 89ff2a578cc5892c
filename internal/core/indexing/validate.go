package indexing

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is returned for execution graphs whose natural keys are
// missing or collide.
var ErrInvalidGraph = errors.New("invalid execution graph")

// RunKeys is the natural-key skeleton of one run.
type RunKeys struct {
	Country   string
	Type      string
	Platform  string
	Scenarios []ScenarioKeys
}

// ScenarioKeys is the natural-key skeleton of one scenario and its errors.
type ScenarioKeys struct {
	FeatureFile string
	Name        string
	Line        int
	StepLines   []int
}

// ValidateGraph rejects graphs where two runs share (country, type, platform),
// two scenarios of a run share (feature file, name, line), or two errors of a
// scenario share a step line. Storing such a graph would fold the duplicates
// into one row.
func ValidateGraph(runs []RunKeys) error {
	seenRuns := make(map[string]bool, len(runs))
	for _, run := range runs {
		if run.Country == "" || run.Type == "" {
			return fmt.Errorf("%w: run needs a country and a type", ErrInvalidGraph)
		}
		runKey := run.Country + "/" + run.Type + "/" + run.Platform
		if seenRuns[runKey] {
			return fmt.Errorf("%w: duplicate run %s", ErrInvalidGraph, runKey)
		}
		seenRuns[runKey] = true

		seenScenarios := make(map[string]bool, len(run.Scenarios))
		for _, sc := range run.Scenarios {
			scKey := fmt.Sprintf("%s:%d %s", sc.FeatureFile, sc.Line, sc.Name)
			if seenScenarios[scKey] {
				return fmt.Errorf("%w: duplicate scenario %s in run %s", ErrInvalidGraph, scKey, runKey)
			}
			seenScenarios[scKey] = true

			lines := make(map[int]bool, len(sc.StepLines))
			for _, line := range sc.StepLines {
				if lines[line] {
					return fmt.Errorf("%w: duplicate error at step line %d in scenario %s", ErrInvalidGraph, line, scKey)
				}
				lines[line] = true
			}
		}
	}
	return nil
}
