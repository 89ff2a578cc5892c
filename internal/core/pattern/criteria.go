// Package pattern contains the pure matching logic deciding whether an error
// belongs to a problem pattern.
//
// A pattern is a set of optional criteria. Every criterion that is set must hold
// against the error's denormalized context; unset criteria match anything. There
// is no OR and no negation. Filter definition lives here; translating a Criteria
// into a storage query is the job of the persistence adapters.
package pattern

// Criteria holds the optional constraints of a problem pattern.
// Empty strings and nil pointers are unset.
type Criteria struct {
	FeatureFile string
	FeatureName string

	ScenarioName           string
	ScenarioNameStartsWith bool

	Step           string
	StepStartsWith bool

	StepDefinition           string
	StepDefinitionStartsWith bool

	// Exception is always matched as a prefix.
	Exception string

	Release  string
	Country  string
	Type     string
	Platform string

	TypeIsBrowser *bool
	TypeIsMobile  *bool
}

// IsCatchAll reports whether no criterion is set. Such a pattern matches every
// error of its project. It is legal but operators should be warned about it.
func (c Criteria) IsCatchAll() bool {
	return c.FeatureFile == "" &&
		c.FeatureName == "" &&
		c.ScenarioName == "" &&
		c.Step == "" &&
		c.StepDefinition == "" &&
		c.Exception == "" &&
		c.Release == "" &&
		c.Country == "" &&
		c.Type == "" &&
		c.Platform == "" &&
		c.TypeIsBrowser == nil &&
		c.TypeIsMobile == nil
}

// Equal reports whether two criteria sets describe the same rule.
// StartsWith flags only count when their text criterion is set.
func (c Criteria) Equal(o Criteria) bool {
	return c.FeatureFile == o.FeatureFile &&
		c.FeatureName == o.FeatureName &&
		c.ScenarioName == o.ScenarioName &&
		(c.ScenarioName == "" || c.ScenarioNameStartsWith == o.ScenarioNameStartsWith) &&
		c.Step == o.Step &&
		(c.Step == "" || c.StepStartsWith == o.StepStartsWith) &&
		c.StepDefinition == o.StepDefinition &&
		(c.StepDefinition == "" || c.StepDefinitionStartsWith == o.StepDefinitionStartsWith) &&
		c.Exception == o.Exception &&
		c.Release == o.Release &&
		c.Country == o.Country &&
		c.Type == o.Type &&
		c.Platform == o.Platform &&
		boolPtrEqual(c.TypeIsBrowser, o.TypeIsBrowser) &&
		boolPtrEqual(c.TypeIsMobile, o.TypeIsMobile)
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Bool returns a pointer to v, for the tri-state criteria.
func Bool(v bool) *bool {
	return &v
}
