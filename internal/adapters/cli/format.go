package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/ara/internal/ports/primary"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

// statusLabel colours an effective problem status.
func statusLabel(status string) string {
	switch status {
	case "OPEN":
		return color.New(color.FgYellow).Sprint(status)
	case "CLOSED":
		return color.New(color.FgGreen).Sprint(status)
	case "REAPPEARED":
		return color.New(color.FgRed, color.Bold).Sprint(status)
	default:
		return status
	}
}

// handlingLabel colours the handling of a scenario.
func handlingLabel(handling string) string {
	switch handling {
	case "SUCCESS":
		return color.New(color.FgGreen).Sprint(handling)
	case "HANDLED":
		return color.New(color.FgYellow).Sprint(handling)
	case "UNHANDLED":
		return color.New(color.FgRed).Sprint(handling)
	default:
		return handling
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// describeCriteria renders the set constraints of a pattern, "catch-all" when none.
func describeCriteria(c primary.Criteria) string {
	var parts []string
	add := func(name, value string, startsWith bool) {
		if value == "" {
			return
		}
		op := "="
		if startsWith {
			op = "^="
		}
		parts = append(parts, fmt.Sprintf("%s%s%q", name, op, value))
	}
	add("feature-file", c.FeatureFile, false)
	add("feature", c.FeatureName, false)
	add("scenario", c.ScenarioName, c.ScenarioNameStartsWith)
	add("step", c.Step, c.StepStartsWith)
	add("step-definition", c.StepDefinition, c.StepDefinitionStartsWith)
	add("exception", c.Exception, true)
	add("release", c.Release, false)
	add("country", c.Country, false)
	add("type", c.Type, false)
	add("platform", c.Platform, false)
	if c.TypeIsBrowser != nil {
		parts = append(parts, fmt.Sprintf("browser=%t", *c.TypeIsBrowser))
	}
	if c.TypeIsMobile != nil {
		parts = append(parts, fmt.Sprintf("mobile=%t", *c.TypeIsMobile))
	}
	if len(parts) == 0 {
		return color.New(color.FgMagenta).Sprint("catch-all")
	}
	return strings.Join(parts, " ")
}

func printAssignment(out io.Writer, a *primary.AssignmentResult) {
	if a == nil {
		return
	}
	fmt.Fprintf(out, "  matched %d errors, %d new occurrences\n", len(a.MatchedErrorIDs), a.InsertedCount)
	if len(a.CatchAllIDs) > 0 {
		fmt.Fprintf(out, "  %s catch-all patterns %s match every error of the project\n",
			color.New(color.FgYellow).Sprint("!"), formatIDs(a.CatchAllIDs))
	}
}
