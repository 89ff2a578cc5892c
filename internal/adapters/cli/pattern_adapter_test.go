package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/example/ara/internal/ports/primary"
)

type mockPatternService struct {
	deleteResp *primary.DeletePatternResponse
	lastAdd    primary.AddPatternRequest
	lastMove   primary.MovePatternRequest
}

func (m *mockPatternService) AddPattern(ctx context.Context, req primary.AddPatternRequest) (*primary.PatternResponse, error) {
	m.lastAdd = req
	return &primary.PatternResponse{PatternID: 12, ProblemID: req.ProblemID, Assignment: &primary.AssignmentResult{}}, nil
}

func (m *mockPatternService) UpdatePattern(ctx context.Context, req primary.UpdatePatternRequest) (*primary.PatternResponse, error) {
	return &primary.PatternResponse{PatternID: req.PatternID, ProblemID: 7}, nil
}

func (m *mockPatternService) DeletePattern(ctx context.Context, patternID int64) (*primary.DeletePatternResponse, error) {
	return m.deleteResp, nil
}

func (m *mockPatternService) MovePattern(ctx context.Context, req primary.MovePatternRequest) error {
	m.lastMove = req
	return nil
}

func (m *mockPatternService) ListPatterns(ctx context.Context, problemID int64) ([]*primary.Pattern, error) {
	return []*primary.Pattern{{ID: 11, ProblemID: problemID, Criteria: primary.Criteria{Country: "fr", TypeIsBrowser: boolPtr(true)}}}, nil
}

func (m *mockPatternService) ListPatternErrors(ctx context.Context, patternID int64) ([]*primary.PatternError, error) {
	return []*primary.PatternError{{
		ErrorID: 111, ExecutionID: 3, Country: "fr", Type: "api", FeatureFile: "payment.feature", ScenarioName: "Pay by card",
		Step: "the payment is accepted", StepLine: 15, Exception: "java.net.SocketTimeoutException\n\tat Socket.read",
	}}, nil
}

func boolPtr(v bool) *bool {
	return &v
}

func TestPatternAdapter_Add(t *testing.T) {
	service := &mockPatternService{}
	out := &bytes.Buffer{}
	adapter := NewPatternAdapter(service, out)

	criteria := primary.Criteria{Step: "the payment", StepStartsWith: true}
	if err := adapter.Add(context.Background(), 7, criteria); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service.lastAdd.ProblemID != 7 || service.lastAdd.Criteria.Step != "the payment" {
		t.Errorf("unexpected request: %+v", service.lastAdd)
	}
	if !strings.Contains(out.String(), `✓ Added pattern 12 to problem 7: step^="the payment"`) {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestPatternAdapter_DeleteReportsProblemDeletion(t *testing.T) {
	service := &mockPatternService{deleteResp: &primary.DeletePatternResponse{ProblemID: 7, ProblemDeleted: true}}
	out := &bytes.Buffer{}
	adapter := NewPatternAdapter(service, out)

	if err := adapter.Delete(context.Background(), 11); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Deleted problem 7 (no pattern left)") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestPatternAdapter_ListAndErrors(t *testing.T) {
	service := &mockPatternService{}
	out := &bytes.Buffer{}
	adapter := NewPatternAdapter(service, out)

	if err := adapter.List(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), `country="fr" browser=true`) {
		t.Errorf("unexpected output: %s", out.String())
	}

	out.Reset()
	if err := adapter.Errors(context.Background(), 11); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "java.net.SocketTimeoutException") || strings.Contains(output, "Socket.read") {
		t.Errorf("expected first exception line only, got: %s", output)
	}
}

func TestPatternAdapter_Move(t *testing.T) {
	service := &mockPatternService{}
	out := &bytes.Buffer{}
	adapter := NewPatternAdapter(service, out)

	if err := adapter.Move(context.Background(), 11, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service.lastMove.ToProblemID != 8 {
		t.Errorf("expected target problem 8, got %d", service.lastMove.ToProblemID)
	}
	if !strings.Contains(out.String(), "✓ Pattern 11 moved to problem 8") {
		t.Errorf("unexpected output: %s", out.String())
	}
}
