package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/ara/internal/core/aggregate"
	"github.com/example/ara/internal/core/effects"
	"github.com/example/ara/internal/core/problem"
	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/ports/secondary"
)

// ProblemServiceImpl implements the ProblemService interface.
type ProblemServiceImpl struct {
	uow      secondary.UnitOfWork
	engine   *AssignmentEngine
	executor EffectExecutor
	now      func() time.Time
}

// NewProblemService creates a new ProblemService with injected dependencies.
func NewProblemService(uow secondary.UnitOfWork, engine *AssignmentEngine, executor EffectExecutor) *ProblemServiceImpl {
	return &ProblemServiceImpl{uow: uow, engine: engine, executor: executor, now: time.Now}
}

// CreateProblem creates a problem with its first pattern.
func (s *ProblemServiceImpl) CreateProblem(ctx context.Context, req primary.CreateProblemRequest) (*primary.CreateProblemResponse, error) {
	name := strings.TrimSpace(req.Name)
	criteria := criteriaFromPort(req.Criteria)
	resp := &primary.CreateProblemResponse{CatchAll: criteria.IsCatchAll()}
	var deferred []effects.Effect

	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		exists, err := repos.Problems.NameExists(ctx, req.ProjectID, name)
		if err != nil {
			return err
		}
		guardCtx := problem.CreateProblemContext{ProjectID: req.ProjectID, Name: name, NameExists: exists}
		if err := problem.CanCreate(guardCtx).Error(); err != nil {
			return err
		}

		record := &secondary.ProblemRecord{
			ProjectID:        req.ProjectID,
			Name:             name,
			Comment:          req.Comment,
			Status:           string(problem.StatusOpen),
			DefectID:         req.DefectID,
			CreationDateTime: s.now().UTC(),
		}
		if err := repos.Problems.Create(ctx, record); err != nil {
			return err
		}

		p := &secondary.PatternRecord{
			ProblemID:        record.ID,
			ProjectID:        req.ProjectID,
			Criteria:         criteria,
			CreationDateTime: s.now().UTC(),
		}
		if err := repos.Patterns.Create(ctx, p); err != nil {
			return err
		}

		assignment, err := s.engine.AssignExistingErrors(ctx, repos, req.ProjectID, p)
		if err != nil {
			return err
		}
		if err := s.engine.RefreshSeenDates(ctx, repos, []int64{record.ID}); err != nil {
			return err
		}

		resp.ProblemID = record.ID
		resp.PatternID = p.ID
		resp.Assignment = assignmentToPort(assignment)
		deferred = assignment.Effects
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create problem: %w", err)
	}

	s.executor.Execute(ctx, deferred)
	return resp, nil
}

// GetProblem retrieves a problem with its patterns and occurrence statistics.
func (s *ProblemServiceImpl) GetProblem(ctx context.Context, problemID int64) (*primary.Problem, error) {
	var out *primary.Problem
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		record, err := repos.Problems.GetByID(ctx, problemID)
		if err != nil {
			return err
		}
		out = problemToPort(record)

		patterns, err := repos.Patterns.ListByProblem(ctx, problemID)
		if err != nil {
			return err
		}
		for _, p := range patterns {
			out.Patterns = append(out.Patterns, patternToPort(p))
		}

		facts, err := repos.Occurrences.FindFacts(ctx, []int64{problemID})
		if err != nil {
			return err
		}
		agg := aggregate.Build(facts)[problemID]
		// Patterns without occurrence still count
		agg.PatternCount = len(patterns)
		out.Aggregate = aggregateToPort(agg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListProblems lists problems with optional filters.
func (s *ProblemServiceImpl) ListProblems(ctx context.Context, filters primary.ProblemFilters) ([]*primary.Problem, error) {
	if _, err := problem.ParseStatusFilter(filters.Status); err != nil {
		return nil, err
	}

	var out []*primary.Problem
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		records, err := repos.Problems.List(ctx, secondary.ProblemFilters{
			ProjectID:       filters.ProjectID,
			Name:            filters.Name,
			Status:          filters.Status,
			DefectID:        filters.DefectID,
			DefectExistence: filters.DefectExistence,
			Limit:           filters.Limit,
		})
		if err != nil {
			return err
		}
		for _, r := range records {
			out = append(out, problemToPort(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProblem updates the name and comment of a problem.
func (s *ProblemServiceImpl) UpdateProblem(ctx context.Context, req primary.UpdateProblemRequest) error {
	return s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		record, err := repos.Problems.GetByID(ctx, req.ProblemID)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(req.Name)
		if name != "" && name != record.Name {
			exists, err := repos.Problems.NameExists(ctx, record.ProjectID, name)
			if err != nil {
				return err
			}
			guardCtx := problem.CreateProblemContext{ProjectID: record.ProjectID, Name: name, NameExists: exists}
			if err := problem.CanCreate(guardCtx).Error(); err != nil {
				return err
			}
			record.Name = name
		}
		if req.Comment != "" {
			record.Comment = req.Comment
		}
		return repos.Problems.Update(ctx, record)
	})
}

// CloseProblem closes an open problem.
func (s *ProblemServiceImpl) CloseProblem(ctx context.Context, problemID int64) error {
	return s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		record, err := repos.Problems.GetByID(ctx, problemID)
		if err != nil {
			return err
		}
		guardCtx := problem.StatusTransitionContext{ProblemID: problemID, Status: problem.ParseStatus(record.Status)}
		if err := problem.CanClose(guardCtx).Error(); err != nil {
			return err
		}
		closedAt := s.now().UTC()
		return repos.Problems.UpdateStatus(ctx, problemID, string(problem.StatusClosed), &closedAt)
	})
}

// ReopenProblem reopens a closed or reappeared problem.
func (s *ProblemServiceImpl) ReopenProblem(ctx context.Context, problemID int64) error {
	return s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		record, err := repos.Problems.GetByID(ctx, problemID)
		if err != nil {
			return err
		}
		guardCtx := problem.StatusTransitionContext{ProblemID: problemID, Status: problem.ParseStatus(record.Status)}
		if err := problem.CanReopen(guardCtx).Error(); err != nil {
			return err
		}
		return repos.Problems.UpdateStatus(ctx, problemID, string(problem.StatusOpen), nil)
	})
}

// SetDefect records the external defect of a problem.
func (s *ProblemServiceImpl) SetDefect(ctx context.Context, req primary.SetDefectRequest) error {
	existence := problem.ParseDefectExistence(req.Existence)
	if req.DefectID == "" {
		existence = problem.DefectUnknown
	}
	return s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		if _, err := repos.Problems.GetByID(ctx, req.ProblemID); err != nil {
			return err
		}
		return repos.Problems.UpdateDefect(ctx, req.ProblemID, strings.TrimSpace(req.DefectID), string(existence))
	})
}

// DeleteProblem deletes a problem with its patterns and occurrences.
func (s *ProblemServiceImpl) DeleteProblem(ctx context.Context, problemID int64) error {
	var linked []int64
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		if _, err := repos.Problems.GetByID(ctx, problemID); err != nil {
			return err
		}
		patterns, err := repos.Patterns.ListByProblem(ctx, problemID)
		if err != nil {
			return err
		}
		for _, p := range patterns {
			ids, err := repos.Occurrences.ListErrorIDsByPattern(ctx, p.ID)
			if err != nil {
				return err
			}
			linked = unionIDs(linked, ids)
		}
		return repos.Problems.Delete(ctx, problemID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete problem %d: %w", problemID, err)
	}

	s.executor.Execute(ctx, []effects.Effect{effects.Evict(linked)})
	return nil
}
