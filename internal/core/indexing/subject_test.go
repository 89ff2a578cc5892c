package indexing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	in := SubjectInput{
		ProjectID:          1,
		Branch:             "develop",
		Name:               "day",
		Release:            "2.0",
		TestDate:           time.Date(2026, 4, 1, 10, 5, 0, 0, time.UTC),
		UnhandledScenarios: 1,
		ProblemCount:       1,
	}
	assert.Equal(t,
		"PROJECT 1 DEVELOP/DAY NRT FOR 2.0: RAN WITH UNHANDLED FAILURES (1 PROBLEMS) TESTED ON APR 1, 2026 - 10:05",
		Subject(in))

	in.UnhandledScenarios = 0
	assert.Contains(t, Subject(in), ": RAN (1 PROBLEMS)")
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(time.Time{}))
	paris := time.FixedZone("CEST", 2*60*60)
	assert.Equal(t, "Apr 1, 2026 - 10:00", FormatDate(time.Date(2026, 4, 1, 12, 0, 0, 0, paris)))
}
