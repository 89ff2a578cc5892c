package indexing

import (
	"fmt"
	"strings"
	"time"
)

// SubjectInput holds what the notification subject of an execution shows.
type SubjectInput struct {
	ProjectID          int64
	Branch             string
	Name               string
	Release            string
	TestDate           time.Time
	UnhandledScenarios int // scenarios failing without a handled problem
	ProblemCount       int
}

// FormatDate renders a test date the way notifications show it.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006 - 15:04")
}

// Subject builds the upper-cased notification subject of an execution.
func Subject(in SubjectInput) string {
	eligibility := "RAN"
	if in.UnhandledScenarios > 0 {
		eligibility = "RAN WITH UNHANDLED FAILURES"
	}
	s := fmt.Sprintf("Project %d %s/%s NRT for %s: %s (%d problems) tested on %s",
		in.ProjectID, in.Branch, in.Name, in.Release, eligibility, in.ProblemCount, FormatDate(in.TestDate))
	return strings.ToUpper(s)
}
