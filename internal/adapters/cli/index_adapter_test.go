package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/ara/internal/ports/primary"
)

type mockIndexingService struct {
	lastReq primary.IndexExecutionRequest
	err     error
}

func (m *mockIndexingService) IndexExecution(ctx context.Context, req primary.IndexExecutionRequest) (*primary.IndexResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &primary.IndexResult{
		ExecutionID:       3,
		JobStatus:         "DONE",
		NewErrorIDs:       []int64{111, 113},
		RemovedErrorIDs:   []int64{9},
		UpdatedProblemIDs: []int64{4, 5},
		InsertedCount:     2,
		Notified:          true,
	}, nil
}

type mockClassificationService struct {
	lastNew primary.AssignNewErrorsRequest
}

func (m *mockClassificationService) AssignNewErrors(ctx context.Context, req primary.AssignNewErrorsRequest) (*primary.AssignmentResult, error) {
	m.lastNew = req
	return &primary.AssignmentResult{ProblemIDs: []int64{4}, MatchedErrorIDs: req.ErrorIDs, InsertedCount: int64(len(req.ErrorIDs))}, nil
}

func (m *mockClassificationService) AssignExistingErrors(ctx context.Context, patternID int64) (*primary.AssignmentResult, error) {
	return &primary.AssignmentResult{}, nil
}

type mockScenarioService struct {
	handlings []*primary.ScenarioHandling
}

func (m *mockScenarioService) GetHandling(ctx context.Context, scenarioID int64) (*primary.ScenarioHandling, error) {
	for _, h := range m.handlings {
		if h.ScenarioID == scenarioID {
			return h, nil
		}
	}
	return nil, errors.New("scenario not found")
}

func (m *mockScenarioService) ListExecutionHandling(ctx context.Context, executionID int64) ([]*primary.ScenarioHandling, error) {
	return m.handlings, nil
}

func newTestIndexAdapter() (*IndexAdapter, *mockIndexingService, *mockClassificationService, *bytes.Buffer) {
	indexing := &mockIndexingService{}
	classification := &mockClassificationService{}
	scenarios := &mockScenarioService{handlings: []*primary.ScenarioHandling{
		{ScenarioID: 1, Country: "fr", Type: "api", FeatureFile: "payment.feature", Name: "Pay by card", Handling: "HANDLED", ErrorCount: 2, ProblemIDs: []int64{4}},
		{ScenarioID: 2, Country: "fr", Type: "api", FeatureFile: "browse.feature", Name: "Browse", Handling: "SUCCESS"},
		{ScenarioID: 3, Country: "be", Type: "desktop", FeatureFile: "payment.feature", Name: "Pay by card", Handling: "UNHANDLED", ErrorCount: 1},
	}}
	out := &bytes.Buffer{}
	return NewIndexAdapter(indexing, classification, scenarios, out), indexing, classification, out
}

func TestIndexAdapter_Index(t *testing.T) {
	adapter, indexing, _, out := newTestIndexAdapter()

	result, err := adapter.Index(context.Background(), 2, primary.ExecutionInput{JobURL: "https://ci/job/1/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if indexing.lastReq.ProjectID != 2 || indexing.lastReq.Execution.JobURL != "https://ci/job/1/" {
		t.Errorf("unexpected request: %+v", indexing.lastReq)
	}
	if result.ExecutionID != 3 {
		t.Errorf("expected execution 3, got %d", result.ExecutionID)
	}

	output := out.String()
	for _, want := range []string{"✓ Indexed execution 3 (DONE)", "2 new errors, 1 removed, 2 new occurrences", "updated problems: 4,5", "quality notification sent"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
}

func TestIndexAdapter_IndexError(t *testing.T) {
	adapter, indexing, _, out := newTestIndexAdapter()
	indexing.err = errors.New("database is locked")

	if _, err := adapter.Index(context.Background(), 1, primary.ExecutionInput{}); err == nil {
		t.Error("expected error")
	}
	if out.Len() != 0 {
		t.Errorf("expected no output on error, got: %s", out.String())
	}
}

func TestIndexAdapter_ClassifyNew(t *testing.T) {
	adapter, _, classification, out := newTestIndexAdapter()

	if err := adapter.ClassifyNew(context.Background(), 1, []int64{111, 113}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(classification.lastNew.ErrorIDs) != 2 {
		t.Errorf("expected error IDs to be passed, got %v", classification.lastNew.ErrorIDs)
	}
	if !strings.Contains(out.String(), "✓ Classified 2 errors into problems 4") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestIndexAdapter_ExecutionHandling(t *testing.T) {
	adapter, _, _, out := newTestIndexAdapter()

	if err := adapter.ExecutionHandling(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := out.String()
	for _, want := range []string{"HANDLING", "UNHANDLED", "payment.feature:Pay by card", "1 success, 1 handled, 1 unhandled"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
}

func TestIndexAdapter_Handling(t *testing.T) {
	adapter, _, _, out := newTestIndexAdapter()

	if err := adapter.Handling(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Handling: UNHANDLED") || !strings.Contains(out.String(), "Run:      be/desktop/-") {
		t.Errorf("unexpected output: %s", out.String())
	}

	if err := adapter.Handling(context.Background(), 42); err == nil {
		t.Error("expected error for unknown scenario")
	}
}
