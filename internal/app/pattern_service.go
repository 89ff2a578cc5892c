package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/ara/internal/core/effects"
	"github.com/example/ara/internal/core/pattern"
	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/ports/secondary"
)

// ErrDuplicatePattern is returned when a problem already owns identical criteria.
var ErrDuplicatePattern = errors.New("duplicate pattern")

// PatternServiceImpl implements the PatternService interface.
type PatternServiceImpl struct {
	uow      secondary.UnitOfWork
	engine   *AssignmentEngine
	executor EffectExecutor
	now      func() time.Time
}

// NewPatternService creates a new PatternService with injected dependencies.
func NewPatternService(uow secondary.UnitOfWork, engine *AssignmentEngine, executor EffectExecutor) *PatternServiceImpl {
	return &PatternServiceImpl{uow: uow, engine: engine, executor: executor, now: time.Now}
}

// AddPattern adds a pattern to a problem and classifies existing errors.
func (s *PatternServiceImpl) AddPattern(ctx context.Context, req primary.AddPatternRequest) (*primary.PatternResponse, error) {
	criteria := criteriaFromPort(req.Criteria)
	resp := &primary.PatternResponse{ProblemID: req.ProblemID, CatchAll: criteria.IsCatchAll()}
	var deferred []effects.Effect

	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		owner, err := repos.Problems.GetByID(ctx, req.ProblemID)
		if err != nil {
			return err
		}
		if err := checkDuplicate(ctx, repos, 0, req.ProblemID, criteria); err != nil {
			return err
		}

		p := &secondary.PatternRecord{
			ProblemID:        req.ProblemID,
			ProjectID:        owner.ProjectID,
			Criteria:         criteria,
			CreationDateTime: s.now().UTC(),
		}
		if err := repos.Patterns.Create(ctx, p); err != nil {
			return err
		}

		assignment, err := s.engine.AssignExistingErrors(ctx, repos, owner.ProjectID, p)
		if err != nil {
			return err
		}
		if err := s.engine.RefreshSeenDates(ctx, repos, []int64{req.ProblemID}); err != nil {
			return err
		}

		resp.PatternID = p.ID
		resp.Assignment = assignmentToPort(assignment)
		deferred = assignment.Effects
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add pattern: %w", err)
	}

	s.executor.Execute(ctx, deferred)
	return resp, nil
}

// UpdatePattern replaces the criteria of a pattern. Its occurrences are
// dropped and recomputed from every error of the project.
func (s *PatternServiceImpl) UpdatePattern(ctx context.Context, req primary.UpdatePatternRequest) (*primary.PatternResponse, error) {
	criteria := criteriaFromPort(req.Criteria)
	resp := &primary.PatternResponse{PatternID: req.PatternID, CatchAll: criteria.IsCatchAll()}
	var deferred []effects.Effect

	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		p, err := repos.Patterns.GetByID(ctx, req.PatternID)
		if err != nil {
			return err
		}
		if err := checkDuplicate(ctx, repos, p.ID, p.ProblemID, criteria); err != nil {
			return err
		}

		previous, err := repos.Occurrences.ListErrorIDsByPattern(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := repos.Occurrences.DeleteByPattern(ctx, p.ID); err != nil {
			return err
		}

		p.Criteria = criteria
		if err := repos.Patterns.Update(ctx, p); err != nil {
			return err
		}

		assignment, err := s.engine.AssignExistingErrors(ctx, repos, p.ProjectID, p)
		if err != nil {
			return err
		}
		if err := s.engine.RefreshSeenDates(ctx, repos, []int64{p.ProblemID}); err != nil {
			return err
		}

		resp.ProblemID = p.ProblemID
		resp.Assignment = assignmentToPort(assignment)
		deferred = []effects.Effect{effects.Evict(unionIDs(previous, assignment.MatchedErrorIDs))}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update pattern %d: %w", req.PatternID, err)
	}

	s.executor.Execute(ctx, deferred)
	return resp, nil
}

// DeletePattern deletes a pattern. A problem left without pattern is deleted too.
func (s *PatternServiceImpl) DeletePattern(ctx context.Context, patternID int64) (*primary.DeletePatternResponse, error) {
	resp := &primary.DeletePatternResponse{}
	var linked []int64

	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		p, err := repos.Patterns.GetByID(ctx, patternID)
		if err != nil {
			return err
		}
		resp.ProblemID = p.ProblemID

		linked, err = repos.Occurrences.ListErrorIDsByPattern(ctx, patternID)
		if err != nil {
			return err
		}
		if err := repos.Patterns.Delete(ctx, patternID); err != nil {
			return err
		}

		left, err := repos.Patterns.CountByProblem(ctx, p.ProblemID)
		if err != nil {
			return err
		}
		if left == 0 {
			resp.ProblemDeleted = true
			return repos.Problems.Delete(ctx, p.ProblemID)
		}
		return s.engine.RefreshSeenDates(ctx, repos, []int64{p.ProblemID})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete pattern %d: %w", patternID, err)
	}

	s.executor.Execute(ctx, []effects.Effect{effects.Evict(linked)})
	return resp, nil
}

// MovePattern moves a pattern with its occurrences to another problem of the
// same project.
func (s *PatternServiceImpl) MovePattern(ctx context.Context, req primary.MovePatternRequest) error {
	var linked []int64
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		p, err := repos.Patterns.GetByID(ctx, req.PatternID)
		if err != nil {
			return err
		}
		if p.ProblemID == req.ToProblemID {
			return nil
		}
		target, err := repos.Problems.GetByID(ctx, req.ToProblemID)
		if err != nil {
			return err
		}
		if target.ProjectID != p.ProjectID {
			return fmt.Errorf("problem %d belongs to another project", req.ToProblemID)
		}
		if err := checkDuplicate(ctx, repos, p.ID, req.ToProblemID, p.Criteria); err != nil {
			return err
		}

		linked, err = repos.Occurrences.ListErrorIDsByPattern(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := repos.Patterns.Move(ctx, p.ID, req.ToProblemID); err != nil {
			return err
		}
		return s.engine.RefreshSeenDates(ctx, repos, []int64{p.ProblemID, req.ToProblemID})
	})
	if err != nil {
		return fmt.Errorf("failed to move pattern %d: %w", req.PatternID, err)
	}

	s.executor.Execute(ctx, []effects.Effect{effects.Evict(linked)})
	return nil
}

// ListPatterns lists the patterns of a problem.
func (s *PatternServiceImpl) ListPatterns(ctx context.Context, problemID int64) ([]*primary.Pattern, error) {
	var out []*primary.Pattern
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		if _, err := repos.Problems.GetByID(ctx, problemID); err != nil {
			return err
		}
		patterns, err := repos.Patterns.ListByProblem(ctx, problemID)
		if err != nil {
			return err
		}
		for _, p := range patterns {
			out = append(out, patternToPort(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPatternErrors lists the errors a pattern is linked to.
func (s *PatternServiceImpl) ListPatternErrors(ctx context.Context, patternID int64) ([]*primary.PatternError, error) {
	var out []*primary.PatternError
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		if _, err := repos.Patterns.GetByID(ctx, patternID); err != nil {
			return err
		}
		contexts, err := repos.Errors.ListByPattern(ctx, patternID)
		if err != nil {
			return err
		}
		for _, ec := range contexts {
			if err := ec.Validate(); err != nil {
				return err
			}
			out = append(out, &primary.PatternError{
				ErrorID:        ec.ErrorID,
				ExecutionID:    ec.Execution.ID,
				Release:        ec.Execution.Release,
				Country:        ec.Run.Country,
				Type:           ec.Run.Type,
				Platform:       ec.Run.Platform,
				FeatureFile:    ec.Scenario.FeatureFile,
				ScenarioName:   ec.Scenario.Name,
				Step:           ec.Step,
				StepDefinition: ec.StepDefinition,
				StepLine:       ec.StepLine,
				Exception:      ec.Exception,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func checkDuplicate(ctx context.Context, repos secondary.Repositories, patternID, problemID int64, criteria pattern.Criteria) error {
	siblings, err := repos.Patterns.ListByProblem(ctx, problemID)
	if err != nil {
		return err
	}
	guardCtx := pattern.SavePatternContext{
		PatternID: patternID,
		ProblemID: problemID,
		Criteria:  criteria,
		Siblings:  siblingsOf(siblings),
	}
	if err := pattern.CanSavePattern(guardCtx).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrDuplicatePattern, err)
	}
	return nil
}

// siblingsOf lists the other patterns of a problem for the duplicate guard.
func siblingsOf(patterns []*secondary.PatternRecord) []pattern.Sibling {
	out := make([]pattern.Sibling, len(patterns))
	for i, p := range patterns {
		out[i] = pattern.Sibling{ID: p.ID, Criteria: p.Criteria}
	}
	return out
}
