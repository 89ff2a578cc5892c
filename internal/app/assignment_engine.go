package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/example/ara/internal/core/effects"
	"github.com/example/ara/internal/core/pattern"
	"github.com/example/ara/internal/ctxutil"
	"github.com/example/ara/internal/ports/secondary"
)

// ErrUnpersistedPattern is returned when a pattern without ID is assigned.
var ErrUnpersistedPattern = errors.New("pattern is not persisted")

// MatchingOptions selects how patterns are evaluated.
type MatchingOptions struct {
	// Pushdown translates criteria into store queries. Otherwise contexts are
	// loaded once and patterns are evaluated in memory by Workers goroutines.
	Pushdown bool
	Workers  int
}

// Assignment is the outcome of matching errors against patterns.
type Assignment struct {
	ProblemIDs      []int64 // sorted, problems with at least one matching pattern
	MatchedErrorIDs []int64 // sorted
	InsertedCount   int64
	CatchAllIDs     []int64 // catch-all patterns that took part
	Effects         []effects.Effect
}

// AssignmentEngine links errors to the patterns they satisfy.
// It always runs inside the caller's unit of work.
type AssignmentEngine struct {
	opts   MatchingOptions
	logger *slog.Logger
}

// NewAssignmentEngine creates an engine. Workers < 1 means one worker.
func NewAssignmentEngine(opts MatchingOptions, logger *slog.Logger) *AssignmentEngine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &AssignmentEngine{opts: opts, logger: logger}
}

// AssignNewErrors matches newErrorIDs against every pattern of the project.
func (e *AssignmentEngine) AssignNewErrors(ctx context.Context, repos secondary.Repositories, projectID int64, newErrorIDs []int64) (*Assignment, error) {
	if len(newErrorIDs) == 0 {
		return &Assignment{}, nil
	}

	patterns, err := repos.Patterns.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	return e.assign(ctx, repos, projectID, patterns, newErrorIDs)
}

// AssignExistingErrors matches one persisted pattern against every error of
// the project.
func (e *AssignmentEngine) AssignExistingErrors(ctx context.Context, repos secondary.Repositories, projectID int64, p *secondary.PatternRecord) (*Assignment, error) {
	if p == nil || p.ID == 0 {
		return nil, ErrUnpersistedPattern
	}
	return e.assign(ctx, repos, projectID, []*secondary.PatternRecord{p}, nil)
}

// RefreshSeenDates recomputes first/last seen of problemIDs from their occurrences.
func (e *AssignmentEngine) RefreshSeenDates(ctx context.Context, repos secondary.Repositories, problemIDs []int64) error {
	if len(problemIDs) == 0 {
		return nil
	}
	dates, err := repos.Occurrences.FindFirstAndLastOccurrenceDates(ctx, problemIDs)
	if err != nil {
		return err
	}
	if err := repos.Problems.UpdateSeenDates(ctx, problemIDs, dates); err != nil {
		return fmt.Errorf("failed to refresh seen dates: %w", err)
	}
	return nil
}

// assign evaluates patterns against candidates (nil: every error of the
// project) and records the occurrences.
func (e *AssignmentEngine) assign(ctx context.Context, repos secondary.Repositories, projectID int64, patterns []*secondary.PatternRecord, candidates []int64) (*Assignment, error) {
	logger := ctxutil.Logger(ctx, e.logger)
	result := &Assignment{}
	if len(patterns) == 0 {
		return result, nil
	}

	orphans, err := repos.Errors.CountOrphans(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if orphans > 0 {
		return nil, fmt.Errorf("%w: %d errors have no owning scenario, run or execution", pattern.ErrMalformedContext, orphans)
	}

	var matches [][]int64
	if e.opts.Pushdown {
		matches, err = e.matchInStore(ctx, repos, projectID, patterns, candidates)
	} else {
		matches, err = e.matchInMemory(ctx, repos, projectID, patterns, candidates)
	}
	if err != nil {
		return nil, err
	}

	var occurrences []secondary.OccurrenceRecord
	problems := make(map[int64]struct{})
	matched := make(map[int64]struct{})
	for i, p := range patterns {
		if p.Criteria.IsCatchAll() {
			result.CatchAllIDs = append(result.CatchAllIDs, p.ID)
			logger.Warn("catch-all pattern matches every error of the project",
				"pattern_id", p.ID, "problem_id", p.ProblemID, "matched", len(matches[i]))
		}
		if len(matches[i]) == 0 {
			continue
		}
		problems[p.ProblemID] = struct{}{}
		for _, errorID := range matches[i] {
			matched[errorID] = struct{}{}
			occurrences = append(occurrences, secondary.OccurrenceRecord{ErrorID: errorID, PatternID: p.ID})
		}
	}

	if len(occurrences) > 0 {
		result.InsertedCount, err = repos.Occurrences.BatchInsert(ctx, occurrences)
		if err != nil {
			return nil, err
		}
	}
	logger.Info("Inserted problem occurrences",
		"project_id", projectID, "count", result.InsertedCount, "patterns", len(patterns))

	result.ProblemIDs = sortedKeys(problems)
	result.MatchedErrorIDs = sortedKeys(matched)
	result.Effects = []effects.Effect{effects.Evict(result.MatchedErrorIDs)}
	return result, nil
}

func (e *AssignmentEngine) matchInStore(ctx context.Context, repos secondary.Repositories, projectID int64, patterns []*secondary.PatternRecord, candidates []int64) ([][]int64, error) {
	matches := make([][]int64, len(patterns))
	for i, p := range patterns {
		ids, err := repos.Errors.FindErrorIDsMatching(ctx, projectID, p.Criteria, candidates)
		if err != nil {
			return nil, fmt.Errorf("failed to match pattern %d: %w", p.ID, err)
		}
		matches[i] = ids
	}
	return matches, nil
}

func (e *AssignmentEngine) matchInMemory(ctx context.Context, repos secondary.Repositories, projectID int64, patterns []*secondary.PatternRecord, candidates []int64) ([][]int64, error) {
	contexts, err := repos.Errors.FindContexts(ctx, projectID, candidates)
	if err != nil {
		return nil, err
	}

	matches := make([][]int64, len(patterns))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, p := range patterns {
		g.Go(func() error {
			filter := pattern.NewFilter(projectID, p.Criteria)
			var ids []int64
			for _, ec := range contexts {
				if err := gCtx.Err(); err != nil {
					return err
				}
				ok, err := filter.Evaluate(ec)
				if err != nil {
					return fmt.Errorf("failed to evaluate pattern %d: %w", p.ID, err)
				}
				if ok {
					ids = append(ids, ec.ErrorID)
				}
			}
			matches[i] = ids
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

func sortedKeys(set map[int64]struct{}) []int64 {
	if len(set) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// unionIDs returns the sorted union of the given ID lists.
func unionIDs(lists ...[]int64) []int64 {
	set := make(map[int64]struct{})
	for _, l := range lists {
		for _, id := range l {
			set[id] = struct{}{}
		}
	}
	return sortedKeys(set)
}
