package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/example/ara/internal/core/effects"
	"github.com/example/ara/internal/core/indexing"
	"github.com/example/ara/internal/ctxutil"
	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/ports/secondary"
)

// IndexingServiceImpl implements the IndexingService interface.
type IndexingServiceImpl struct {
	uow      secondary.UnitOfWork
	engine   *AssignmentEngine
	executor EffectExecutor
	logger   *slog.Logger
}

// NewIndexingService creates a new IndexingService with injected dependencies.
func NewIndexingService(uow secondary.UnitOfWork, engine *AssignmentEngine, executor EffectExecutor, logger *slog.Logger) *IndexingServiceImpl {
	return &IndexingServiceImpl{uow: uow, engine: engine, executor: executor, logger: logger}
}

// IndexExecution runs one indexing pass:
//  1. find the previous execution of the same job and capture its errors
//  2. delete errors whose natural key left the graph, then upsert the graph
//  3. diff previous and fresh error IDs and classify only the new ones
//  4. refresh seen dates of touched problems and plan the deferred actions
//
// Deferred actions run only once all of the above has committed.
func (s *IndexingServiceImpl) IndexExecution(ctx context.Context, req primary.IndexExecutionRequest) (*primary.IndexResult, error) {
	if req.Execution.JobURL == "" && req.Execution.JobLink == "" {
		return nil, errors.New("execution needs a job URL or a job link")
	}
	if err := indexing.ValidateGraph(req.Execution.NaturalKeys()); err != nil {
		return nil, err
	}

	passID := uuid.NewString()
	ctx = ctxutil.WithPassID(ctx, passID)
	logger := ctxutil.Logger(ctx, s.logger)

	status := indexing.ParseJobStatus(req.Execution.Status)
	graph := graphFromInput(req.ProjectID, req.Execution, status)
	result := &primary.IndexResult{PassID: passID, JobStatus: string(status)}
	var deferred []effects.Effect

	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		previous, err := repos.Executions.FindPreviousByJobIdentity(ctx, req.ProjectID, req.Execution.JobURL, req.Execution.JobLink)
		if err != nil {
			return err
		}

		var previousIDs, affected []int64
		if previous != nil {
			previousIDs, err = repos.Executions.ErrorIDsOfExecution(ctx, previous.ID)
			if err != nil {
				return err
			}
			keys, err := repos.Executions.ErrorKeysOfExecution(ctx, previous.ID)
			if err != nil {
				return err
			}
			result.RemovedErrorIDs = indexing.Removed(keys, errorKeys(graph))
			if len(result.RemovedErrorIDs) > 0 {
				affected, err = repos.Occurrences.FindProblemIDsByErrors(ctx, result.RemovedErrorIDs)
				if err != nil {
					return err
				}
				if err := repos.Errors.DeleteByIDs(ctx, result.RemovedErrorIDs); err != nil {
					return err
				}
			}
		}

		saved, err := repos.Executions.Save(ctx, graph)
		if err != nil {
			return err
		}
		result.ExecutionID = saved.ExecutionID
		result.NewErrorIDs = indexing.Diff(previousIDs, saved.ErrorIDs)

		assignment, err := s.engine.AssignNewErrors(ctx, repos, req.ProjectID, result.NewErrorIDs)
		if err != nil {
			return fmt.Errorf("failed to classify new errors: %w", err)
		}
		result.InsertedCount = assignment.InsertedCount
		result.UpdatedProblemIDs = unionIDs(assignment.ProblemIDs, affected)

		if err := s.engine.RefreshSeenDates(ctx, repos, result.UpdatedProblemIDs); err != nil {
			return err
		}

		plan := indexing.GeneratePostIndexPlan(indexing.PostIndexPlanInput{
			ProjectID:         req.ProjectID,
			ExecutionID:       saved.ExecutionID,
			JobURL:            req.Execution.JobURL,
			JobStatus:         status,
			NewErrorIDs:       result.NewErrorIDs,
			RemovedErrorIDs:   result.RemovedErrorIDs,
			MatchedErrorIDs:   assignment.MatchedErrorIDs,
			UpdatedProblemIDs: result.UpdatedProblemIDs,
			InsertedCount:     assignment.InsertedCount,
		})
		deferred = plan.Effects()
		return nil
	})
	if err != nil {
		logger.Error("indexing pass rolled back", "error", err)
		return nil, fmt.Errorf("failed to index execution: %w", err)
	}

	execErr := s.executor.Execute(ctx, deferred)
	result.Notified = status.IsDone() && execErr == nil
	return result, nil
}
