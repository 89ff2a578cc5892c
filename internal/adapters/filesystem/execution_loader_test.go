package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ara/internal/core/indexing"
)

func TestLoadExecution_YAML(t *testing.T) {
	in, err := LoadExecution(filepath.Join("testdata", "execution.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://ci.example.com/job/nrt/day/42/", in.JobURL)
	assert.Equal(t, "2.0", in.Release)
	assert.True(t, in.TestDateTime.Equal(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)))
	require.Len(t, in.Runs, 2)
	assert.True(t, in.Runs[1].TypeIsBrowser)
	require.Len(t, in.Runs[0].Scenarios, 2)
	require.Len(t, in.Runs[0].Scenarios[0].Errors, 1)
	assert.Equal(t, 15, in.Runs[0].Scenarios[0].Errors[0].StepLine)
	assert.Empty(t, in.Runs[0].Scenarios[1].Errors)
}

func TestLoadExecution_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execution.json")
	doc := `{"jobLink": "/day/2026.04.01/", "testDateTime": "2026-04-01T10:00:00Z",
		"runs": [{"country": "fr", "type": "api", "scenarios": [{"name": "Pay", "line": 3,
		"errors": [{"step": "s", "stepLine": 4, "exception": "boom"}]}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	in, err := LoadExecution(path)
	require.NoError(t, err)
	assert.Equal(t, "/day/2026.04.01/", in.JobLink)
	assert.Equal(t, "boom", in.Runs[0].Scenarios[0].Errors[0].Exception)
}

func TestDecodeExecution_RejectsUnknownFields(t *testing.T) {
	_, err := DecodeExecution(strings.NewReader("jobUrl: x\ntestDateTime: 2026-04-01T10:00:00Z\nseverity: high\n"), FormatYAML)
	assert.Error(t, err)

	_, err = DecodeExecution(strings.NewReader(`{"jobUrl": "x", "severity": "high"}`), FormatJSON)
	assert.Error(t, err)
}

func TestDecodeExecution_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		keyClash bool
	}{
		{"no job identity", "testDateTime: 2026-04-01T10:00:00Z\n", false},
		{"no test date", "jobUrl: x\n", false},
		{"run without type", "jobUrl: x\ntestDateTime: 2026-04-01T10:00:00Z\nruns: [{country: fr}]\n", true},
		{"duplicate run", "jobUrl: x\ntestDateTime: 2026-04-01T10:00:00Z\nruns: [{country: fr, type: api}, {country: fr, type: api}]\n", true},
		{"duplicate scenario", "jobUrl: x\ntestDateTime: 2026-04-01T10:00:00Z\nruns: [{country: fr, type: api, scenarios: [{name: a, line: 1}, {name: a, line: 1}]}]\n", true},
		{"duplicate step line", "jobUrl: x\ntestDateTime: 2026-04-01T10:00:00Z\nruns: [{country: fr, type: api, scenarios: [{name: a, line: 1, errors: [{stepLine: 2}, {stepLine: 2}]}]}]\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeExecution(strings.NewReader(tt.doc), FormatYAML)
			assert.ErrorIs(t, err, ErrInvalidDocument)
			if tt.keyClash {
				assert.ErrorIs(t, err, indexing.ErrInvalidGraph)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("run.JSON"))
	assert.Equal(t, FormatYAML, FormatFromPath("run.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("run"))
}
