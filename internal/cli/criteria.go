package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/ara/internal/ports/primary"
)

// criteriaFlags binds the pattern criteria to command flags.
type criteriaFlags struct {
	c       primary.Criteria
	browser string
	mobile  string
}

func addCriteriaFlags(cmd *cobra.Command, f *criteriaFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.c.FeatureFile, "feature-file", "", "Feature file (exact)")
	flags.StringVar(&f.c.FeatureName, "feature", "", "Feature name (exact)")
	flags.StringVar(&f.c.ScenarioName, "scenario", "", "Scenario name")
	flags.BoolVar(&f.c.ScenarioNameStartsWith, "scenario-starts-with", false, "Match --scenario as a prefix")
	flags.StringVar(&f.c.Step, "step", "", "Step text")
	flags.BoolVar(&f.c.StepStartsWith, "step-starts-with", false, "Match --step as a prefix")
	flags.StringVar(&f.c.StepDefinition, "step-definition", "", "Step definition")
	flags.BoolVar(&f.c.StepDefinitionStartsWith, "step-definition-starts-with", false, "Match --step-definition as a prefix")
	flags.StringVar(&f.c.Exception, "exception", "", "Exception prefix (% and _ are wildcards)")
	flags.StringVar(&f.c.Release, "release", "", "Release of the execution")
	flags.StringVar(&f.c.Country, "country", "", "Country code of the run")
	flags.StringVar(&f.c.Type, "type", "", "Type code of the run")
	flags.StringVar(&f.c.Platform, "platform", "", "Platform of the run")
	flags.StringVar(&f.browser, "browser", "", "Only runs whose type is (true) or is not (false) a browser")
	flags.StringVar(&f.mobile, "mobile", "", "Only runs whose type is (true) or is not (false) mobile")
}

// criteria returns the parsed criteria. Unset tri-state flags stay wildcards.
func (f *criteriaFlags) criteria() (primary.Criteria, error) {
	c := f.c
	var err error
	if c.TypeIsBrowser, err = optionalBool("browser", f.browser); err != nil {
		return c, err
	}
	if c.TypeIsMobile, err = optionalBool("mobile", f.mobile); err != nil {
		return c, err
	}
	return c, nil
}

func optionalBool(name, raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s must be true or false, got %q", name, raw)
	}
	return &v, nil
}
