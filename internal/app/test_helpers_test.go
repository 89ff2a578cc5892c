package app

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/ara/internal/adapters/cache"
	"github.com/example/ara/internal/adapters/sqlite"
	"github.com/example/ara/internal/core/effects"
	"github.com/example/ara/internal/db"
	"github.com/example/ara/internal/logging"
	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/ports/secondary"
)

var testDate = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

// recordingNotifier keeps every notification it is asked to send.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []secondary.Notification
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, msg secondary.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

// recordingExecutor records effects instead of running them.
type recordingExecutor struct {
	calls [][]effects.Effect
}

func (e *recordingExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	e.calls = append(e.calls, effs)
	return nil
}

// failingUnitOfWork runs fn against real repositories and then fails, as a
// commit failure would.
type failingUnitOfWork struct {
	inner secondary.UnitOfWork
	err   error
}

func (u *failingUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	return u.inner.Do(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		if err := fn(ctx, repos); err != nil {
			return err
		}
		return u.err
	})
}

// testEnv is a fully wired application on an in-memory store.
type testEnv struct {
	db             *sql.DB
	uow            *sqlite.UnitOfWork
	cache          *cache.LinkCache
	notifier       *recordingNotifier
	engine         *AssignmentEngine
	executor       *DefaultEffectExecutor
	indexing       *IndexingServiceImpl
	classification *ClassificationServiceImpl
	problems       *ProblemServiceImpl
	patterns       *PatternServiceImpl
	scenarios      *ScenarioServiceImpl
}

func newTestEnv(t *testing.T, opts MatchingOptions) *testEnv {
	t.Helper()

	database, err := db.Open(db.Options{Driver: db.DriverMattn, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger := logging.NewDiscardLogger()
	env := &testEnv{
		db:       database,
		uow:      sqlite.NewUnitOfWork(database, 4),
		cache:    cache.NewLinkCache(),
		notifier: &recordingNotifier{},
	}
	env.engine = NewAssignmentEngine(opts, logger)
	env.executor = NewEffectExecutor(env.uow, env.cache, env.notifier, logger)
	env.indexing = NewIndexingService(env.uow, env.engine, env.executor, logger)
	env.classification = NewClassificationService(env.uow, env.engine, env.executor)
	env.problems = NewProblemService(env.uow, env.engine, env.executor)
	env.patterns = NewPatternService(env.uow, env.engine, env.executor)
	env.scenarios = NewScenarioService(env.uow, env.cache)
	return env
}

// bothModes runs a subtest with store pushdown and with in-memory matching.
func bothModes(t *testing.T, test func(t *testing.T, env *testEnv)) {
	t.Run("pushdown", func(t *testing.T) {
		test(t, newTestEnv(t, MatchingOptions{Pushdown: true}))
	})
	t.Run("in-memory", func(t *testing.T) {
		test(t, newTestEnv(t, MatchingOptions{Workers: 3}))
	})
}

const (
	timeoutException = "java.net.SocketTimeoutException: Read timed out"
	assertException  = "java.lang.AssertionError: expected 1 mail"
)

// paymentExecution is one job with a "Pay by card" scenario on fr and be,
// a passing "Browse" scenario on fr, and the errors given per country.
func paymentExecution(status string, frErrors, beErrors []primary.ErrorInput) primary.ExecutionInput {
	return primary.ExecutionInput{
		JobURL:       "https://ci/job/1/",
		Name:         "day",
		Branch:       "develop",
		Release:      "2.0",
		Version:      "2.0.0",
		Status:       status,
		TestDateTime: testDate,
		Runs: []primary.RunInput{
			{Country: "fr", Type: "api", Platform: "integ", Scenarios: []primary.ScenarioInput{
				{FeatureFile: "payment.feature", Name: "Pay by card", Line: 12, Errors: frErrors},
				{FeatureFile: "browse.feature", Name: "Browse", Line: 3},
			}},
			{Country: "be", Type: "desktop", TypeIsBrowser: true, Platform: "integ", Scenarios: []primary.ScenarioInput{
				{FeatureFile: "payment.feature", Name: "Pay by card", Line: 12, Errors: beErrors},
			}},
		},
	}
}

func timeoutAt(stepLine int) primary.ErrorInput {
	return primary.ErrorInput{Step: "the payment is accepted", StepLine: stepLine, Exception: timeoutException}
}

func assertionAt(stepLine int) primary.ErrorInput {
	return primary.ErrorInput{Step: "the receipt is sent", StepLine: stepLine, Exception: assertException}
}

func (env *testEnv) index(t *testing.T, in primary.ExecutionInput) *primary.IndexResult {
	t.Helper()
	result, err := env.indexing.IndexExecution(context.Background(), primary.IndexExecutionRequest{ProjectID: 1, Execution: in})
	require.NoError(t, err)
	return result
}

func (env *testEnv) createProblem(t *testing.T, name string, c primary.Criteria) *primary.CreateProblemResponse {
	t.Helper()
	resp, err := env.problems.CreateProblem(context.Background(), primary.CreateProblemRequest{ProjectID: 1, Name: name, Criteria: c})
	require.NoError(t, err)
	return resp
}

var errCommitFailed = errors.New("commit failed")

// countOccurrences counts every stored error-to-pattern link.
func (env *testEnv) countOccurrences(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, env.db.QueryRow("SELECT COUNT(*) FROM problem_occurrences").Scan(&n))
	return n
}
