package sqlite

import (
	"strings"

	"github.com/example/ara/internal/core/pattern"
)

// errorContextFrom joins an error to its owners. Aliases: er (errors),
// s (executed_scenarios), r (runs), e (executions).
const errorContextFrom = `
	FROM errors er
	JOIN executed_scenarios s ON s.id = er.executed_scenario_id
	JOIN runs r ON r.id = s.run_id
	JOIN executions e ON e.id = r.execution_id`

// criteriaClause translates criteria into a WHERE fragment over errorContextFrom.
// Text criteria use GLOB, which is case-sensitive like the in-memory matcher;
// '%' in a criterion becomes '*' and GLOB metacharacters are escaped.
func criteriaClause(c pattern.Criteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	exact := func(col, v string) {
		if v != "" {
			conds = append(conds, col+" = ?")
			args = append(args, v)
		}
	}
	text := func(col, v string, startsWith bool) {
		if v == "" {
			return
		}
		if startsWith {
			conds = append(conds, col+" GLOB ?")
			args = append(args, globPrefix(v))
			return
		}
		exact(col, v)
	}
	flag := func(col string, v *bool) {
		if v != nil {
			conds = append(conds, col+" = ?")
			args = append(args, boolToInt(*v))
		}
	}

	exact("s.feature_file", c.FeatureFile)
	exact("s.feature_name", c.FeatureName)
	text("s.name", c.ScenarioName, c.ScenarioNameStartsWith)
	text("er.step", c.Step, c.StepStartsWith)
	text("er.step_definition", c.StepDefinition, c.StepDefinitionStartsWith)
	text("er.exception", c.Exception, true)
	exact("e.release", c.Release)
	exact("r.country", c.Country)
	exact("r.type", c.Type)
	exact("r.platform", c.Platform)
	flag("r.type_is_browser", c.TypeIsBrowser)
	flag("r.type_is_mobile", c.TypeIsMobile)

	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conds, " AND "), args
}

// globPrefix converts a '%'-wildcard prefix criterion into a GLOB pattern.
func globPrefix(v string) string {
	var b strings.Builder
	for _, ch := range v {
		switch ch {
		case '%':
			b.WriteByte('*')
		case '*':
			b.WriteString("[*]")
		case '?':
			b.WriteString("[?]")
		case '[':
			b.WriteString("[[]")
		default:
			b.WriteRune(ch)
		}
	}
	b.WriteByte('*')
	return b.String()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
