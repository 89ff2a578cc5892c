package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedContext is returned when an error's context lacks its owning
// scenario, run or execution. Such an error is a data-integrity fault: it must
// neither match (not even catch-all patterns) nor be skipped silently.
var ErrMalformedContext = errors.New("malformed error context")

// ScenarioContext is the owning executed scenario of an error.
type ScenarioContext struct {
	ID          int64
	FeatureFile string
	FeatureName string
	Name        string
}

// RunContext is the run owning the scenario.
type RunContext struct {
	ID            int64
	Country       string
	Type          string
	TypeIsBrowser bool
	TypeIsMobile  bool
	Platform      string
}

// ExecutionContext is the execution owning the run.
type ExecutionContext struct {
	ID        int64
	ProjectID int64
	Release   string
}

// ErrorContext is the denormalized view of one error used for matching.
type ErrorContext struct {
	ErrorID        int64
	Step           string
	StepDefinition string
	StepLine       int
	Exception      string

	Scenario  *ScenarioContext
	Run       *RunContext
	Execution *ExecutionContext
}

// Validate checks that every owning reference is present.
func (e ErrorContext) Validate() error {
	switch {
	case e.Scenario == nil:
		return fmt.Errorf("%w: error %d has no owning scenario", ErrMalformedContext, e.ErrorID)
	case e.Run == nil:
		return fmt.Errorf("%w: error %d has no owning run", ErrMalformedContext, e.ErrorID)
	case e.Execution == nil:
		return fmt.Errorf("%w: error %d has no owning execution", ErrMalformedContext, e.ErrorID)
	}
	return nil
}

// Filter is a pattern bound to its project, evaluated against error contexts.
type Filter struct {
	ProjectID int64
	Criteria  Criteria
}

// NewFilter creates a filter for the patterns of projectID.
func NewFilter(projectID int64, c Criteria) Filter {
	return Filter{ProjectID: projectID, Criteria: c}
}

// Evaluate reports whether the error described by ec satisfies every set
// criterion. Errors of other projects never match.
func (f Filter) Evaluate(ec ErrorContext) (bool, error) {
	if err := ec.Validate(); err != nil {
		return false, err
	}
	if ec.Execution.ProjectID != f.ProjectID {
		return false, nil
	}
	return Matches(ec, f.Criteria), nil
}

// Matches evaluates c against an already validated context.
// This is a pure function with no side effects.
func Matches(ec ErrorContext, c Criteria) bool {
	s, r, x := ec.Scenario, ec.Run, ec.Execution

	if c.FeatureFile != "" && s.FeatureFile != c.FeatureFile {
		return false
	}
	if c.FeatureName != "" && s.FeatureName != c.FeatureName {
		return false
	}
	if c.ScenarioName != "" && !textMatches(s.Name, c.ScenarioName, c.ScenarioNameStartsWith) {
		return false
	}
	if c.Step != "" && !textMatches(ec.Step, c.Step, c.StepStartsWith) {
		return false
	}
	if c.StepDefinition != "" && !textMatches(ec.StepDefinition, c.StepDefinition, c.StepDefinitionStartsWith) {
		return false
	}
	if c.Exception != "" && !Like(ec.Exception, c.Exception+"%") {
		return false
	}
	if c.Release != "" && x.Release != c.Release {
		return false
	}
	if c.Country != "" && r.Country != c.Country {
		return false
	}
	if c.Platform != "" && r.Platform != c.Platform {
		return false
	}
	if c.Type != "" && r.Type != c.Type {
		return false
	}
	if c.TypeIsBrowser != nil && r.TypeIsBrowser != *c.TypeIsBrowser {
		return false
	}
	if c.TypeIsMobile != nil && r.TypeIsMobile != *c.TypeIsMobile {
		return false
	}
	return true
}

func textMatches(value, criterion string, startsWith bool) bool {
	if startsWith {
		return Like(value, criterion+"%")
	}
	return value == criterion
}

// Like reports whether value matches a LIKE expression where '%' stands for any
// run of characters. Matching is case-sensitive; '_' is a literal.
func Like(value, expr string) bool {
	parts := strings.Split(expr, "%")
	if len(parts) == 1 {
		return value == expr
	}

	first, last := parts[0], parts[len(parts)-1]
	if !strings.HasPrefix(value, first) {
		return false
	}
	value = value[len(first):]

	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(value, part)
		if i < 0 {
			return false
		}
		value = value[i+len(part):]
	}

	return strings.HasSuffix(value, last)
}
