package app

import (
	"context"
	"fmt"

	"github.com/example/ara/internal/core/problem"
	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/ports/secondary"
)

// ScenarioServiceImpl implements the ScenarioService interface.
type ScenarioServiceImpl struct {
	uow   secondary.UnitOfWork
	cache secondary.ErrorLinkCache
}

// NewScenarioService creates a new ScenarioService with injected dependencies.
func NewScenarioService(uow secondary.UnitOfWork, cache secondary.ErrorLinkCache) *ScenarioServiceImpl {
	return &ScenarioServiceImpl{uow: uow, cache: cache}
}

// GetHandling classifies one executed scenario.
func (s *ScenarioServiceImpl) GetHandling(ctx context.Context, scenarioID int64) (*primary.ScenarioHandling, error) {
	var out *primary.ScenarioHandling
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		view, err := repos.Executions.GetScenario(ctx, scenarioID)
		if err != nil {
			return err
		}
		handlings, err := classifyScenarios(ctx, repos, s.cache, []*secondary.ScenarioView{view})
		if err != nil {
			return err
		}
		out = handlings[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListExecutionHandling classifies every scenario of an execution.
func (s *ScenarioServiceImpl) ListExecutionHandling(ctx context.Context, executionID int64) ([]*primary.ScenarioHandling, error) {
	var out []*primary.ScenarioHandling
	err := s.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		if _, err := repos.Executions.GetByID(ctx, executionID); err != nil {
			return err
		}
		views, err := repos.Executions.ListScenarios(ctx, executionID)
		if err != nil {
			return err
		}
		out, err = classifyScenarios(ctx, repos, s.cache, views)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// classifyScenarios derives the handling of each scenario from the links of
// its errors. Links go through the cache; problem states are always read fresh.
func classifyScenarios(ctx context.Context, repos secondary.Repositories, cache secondary.ErrorLinkCache, views []*secondary.ScenarioView) ([]*primary.ScenarioHandling, error) {
	scenarioIDs := make([]int64, len(views))
	for i, v := range views {
		scenarioIDs[i] = v.ID
	}
	errorsByScenario, err := repos.Errors.ListIDsByScenarios(ctx, scenarioIDs)
	if err != nil {
		return nil, err
	}

	links := make(map[int64][]secondary.PatternLink)
	problemSet := make(map[int64]struct{})
	for _, errorIDs := range errorsByScenario {
		for _, errorID := range errorIDs {
			l, err := cache.Get(ctx, errorID, func(ctx context.Context) ([]secondary.PatternLink, error) {
				found, err := repos.Errors.FindLinks(ctx, []int64{errorID})
				if err != nil {
					return nil, err
				}
				return found[errorID], nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to load links of error %d: %w", errorID, err)
			}
			links[errorID] = l
			for _, link := range l {
				problemSet[link.ProblemID] = struct{}{}
			}
		}
	}

	records, err := repos.Problems.GetByIDs(ctx, sortedKeys(problemSet))
	if err != nil {
		return nil, err
	}
	states := make(map[int64]problem.State, len(records))
	for _, r := range records {
		states[r.ID] = stateOf(r)
	}

	out := make([]*primary.ScenarioHandling, len(views))
	for i, v := range views {
		errorIDs := errorsByScenario[v.ID]
		in := problem.ScenarioLinks{ScenarioID: v.ID}
		scenarioProblems := make(map[int64]struct{})
		for _, errorID := range errorIDs {
			el := problem.ErrorLinks{ErrorID: errorID}
			for _, link := range links[errorID] {
				// A link to a problem deleted since it was cached is ignored
				if st, ok := states[link.ProblemID]; ok {
					el.Problems = append(el.Problems, st)
					scenarioProblems[link.ProblemID] = struct{}{}
				}
			}
			in.Errors = append(in.Errors, el)
		}

		out[i] = &primary.ScenarioHandling{
			ScenarioID:  v.ID,
			FeatureFile: v.FeatureFile,
			Name:        v.Name,
			Country:     v.Country,
			Type:        v.Type,
			Platform:    v.Platform,
			Handling:    string(problem.ClassifyHandling(in)),
			ErrorCount:  len(errorIDs),
			ProblemIDs:  sortedKeys(scenarioProblems),
		}
	}
	return out, nil
}

func stateOf(r *secondary.ProblemRecord) problem.State {
	return problem.State{
		ID:        r.ID,
		Status:    problem.ParseStatus(r.Status),
		ClosedAt:  r.ClosingDateTime,
		LastSeen:  r.LastSeen,
		FirstSeen: r.FirstSeen,
	}
}
