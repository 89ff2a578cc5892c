package app

import (
	"context"
	"fmt"

	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/ports/secondary"
)

// ClassificationServiceImpl implements the ClassificationService interface.
type ClassificationServiceImpl struct {
	uow      secondary.UnitOfWork
	engine   *AssignmentEngine
	executor EffectExecutor
}

// NewClassificationService creates a new ClassificationService with injected dependencies.
func NewClassificationService(uow secondary.UnitOfWork, engine *AssignmentEngine, executor EffectExecutor) *ClassificationServiceImpl {
	return &ClassificationServiceImpl{uow: uow, engine: engine, executor: executor}
}

// AssignNewErrors matches the given errors against every pattern of the project.
func (s *ClassificationServiceImpl) AssignNewErrors(ctx context.Context, req primary.AssignNewErrorsRequest) (*primary.AssignmentResult, error) {
	var assignment *Assignment
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		assignment, err = s.engine.AssignNewErrors(ctx, repos, req.ProjectID, req.ErrorIDs)
		if err != nil {
			return err
		}
		return s.engine.RefreshSeenDates(ctx, repos, assignment.ProblemIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign errors: %w", err)
	}

	s.executor.Execute(ctx, assignment.Effects)
	return assignmentToPort(assignment), nil
}

// AssignExistingErrors matches one pattern against every error of its project.
func (s *ClassificationServiceImpl) AssignExistingErrors(ctx context.Context, patternID int64) (*primary.AssignmentResult, error) {
	var assignment *Assignment
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		p, err := repos.Patterns.GetByID(ctx, patternID)
		if err != nil {
			return err
		}
		assignment, err = s.engine.AssignExistingErrors(ctx, repos, p.ProjectID, p)
		if err != nil {
			return err
		}
		return s.engine.RefreshSeenDates(ctx, repos, assignment.ProblemIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign pattern %d: %w", patternID, err)
	}

	s.executor.Execute(ctx, assignment.Effects)
	return assignmentToPort(assignment), nil
}
