// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/example/ara/internal/core/effects"
	"github.com/example/ara/internal/core/indexing"
	"github.com/example/ara/internal/core/problem"
	"github.com/example/ara/internal/ctxutil"
	"github.com/example/ara/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell": effects run only after their unit of work committed.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor with real I/O.
// A failing effect is logged and does not stop the following ones.
type DefaultEffectExecutor struct {
	uow      secondary.UnitOfWork
	cache    secondary.ErrorLinkCache
	notifier secondary.Notifier
	logger   *slog.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(uow secondary.UnitOfWork, cache secondary.ErrorLinkCache, notifier secondary.Notifier, logger *slog.Logger) *DefaultEffectExecutor {
	return &DefaultEffectExecutor{uow: uow, cache: cache, notifier: notifier, logger: logger}
}

// Execute processes a slice of effects in sequence and returns the joined failures.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	var errs []error
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			ctxutil.Logger(ctx, e.logger).Error("deferred action failed",
				"effect", eff.EffectType(), "error", err)
			errs = append(errs, fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err))
		}
	}
	return errors.Join(errs...)
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.EvictErrorLinksEffect:
		e.cache.Evict(typed.ErrorIDs...)
		return nil
	case effects.NotifyExecutionEffect:
		return e.executeNotify(ctx, typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		e.executeLog(ctx, typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeLog(ctx context.Context, eff effects.LogEffect) {
	args := make([]any, 0, 2*len(eff.Fields))
	for k, v := range eff.Fields {
		args = append(args, k, v)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(eff.Level)); err != nil {
		level = slog.LevelInfo
	}
	ctxutil.Logger(ctx, e.logger).Log(ctx, level, eff.Message, args...)
}

// executeNotify reads the committed execution in its own unit of work and
// sends the quality notification.
func (e *DefaultEffectExecutor) executeNotify(ctx context.Context, eff effects.NotifyExecutionEffect) error {
	msg := secondary.Notification{
		ID:          uuid.NewString(),
		ProjectID:   eff.ProjectID,
		ExecutionID: eff.ExecutionID,
		JobURL:      eff.JobURL,
		JobStatus:   eff.JobStatus,
	}

	err := e.uow.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		execution, err := repos.Executions.GetByID(ctx, eff.ExecutionID)
		if err != nil {
			return err
		}
		msg.Branch = execution.Branch
		msg.Release = execution.Release
		msg.Name = execution.Name
		msg.TestDate = execution.TestDateTime

		views, err := repos.Executions.ListScenarios(ctx, eff.ExecutionID)
		if err != nil {
			return err
		}
		handlings, err := classifyScenarios(ctx, repos, e.cache, views)
		if err != nil {
			return err
		}
		for _, h := range handlings {
			switch problem.Handling(h.Handling) {
			case problem.HandlingSuccess:
				msg.Counts.Success++
			case problem.HandlingHandled:
				msg.Counts.Handled++
			default:
				msg.Counts.Unhandled++
			}
		}

		records, err := repos.Problems.GetByIDs(ctx, eff.ProblemIDs)
		if err != nil {
			return err
		}
		for _, r := range records {
			msg.Problems = append(msg.Problems, secondary.NotifiedProblem{
				ID:              r.ID,
				Name:            r.Name,
				EffectiveStatus: string(problem.Effective(stateOf(r))),
				DefectID:        r.DefectID,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load execution %d: %w", eff.ExecutionID, err)
	}

	msg.Subject = indexing.Subject(indexing.SubjectInput{
		ProjectID:          msg.ProjectID,
		Branch:             msg.Branch,
		Name:               msg.Name,
		Release:            msg.Release,
		TestDate:           msg.TestDate,
		UnhandledScenarios: msg.Counts.Unhandled,
		ProblemCount:       len(msg.Problems),
	})
	return e.notifier.Send(ctx, msg)
}
