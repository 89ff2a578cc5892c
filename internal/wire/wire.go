// Package wire provides dependency injection for the ARA application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/example/ara/internal/adapters/cache"
	cliadapter "github.com/example/ara/internal/adapters/cli"
	"github.com/example/ara/internal/adapters/notify"
	"github.com/example/ara/internal/adapters/sqlite"
	"github.com/example/ara/internal/app"
	"github.com/example/ara/internal/config"
	"github.com/example/ara/internal/db"
	"github.com/example/ara/internal/logging"
	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/ports/secondary"
)

// Options are the command line settings that take precedence over config.
type Options struct {
	Dir       string // directory holding .ara/config.json
	Verbosity int
	Quiet     bool
}

var (
	opts Options

	cfg                   *config.Config
	logger                *slog.Logger
	database              *sql.DB
	indexingService       primary.IndexingService
	classificationService primary.ClassificationService
	problemService        primary.ProblemService
	patternService        primary.PatternService
	scenarioService       primary.ScenarioService
	initErr               error
	once                  sync.Once
)

// Configure sets the command line options. It must be called before the
// first service is requested.
func Configure(o Options) {
	opts = o
}

// Config returns the loaded configuration.
func Config() (*config.Config, error) {
	once.Do(initServices)
	return cfg, initErr
}

// Logger returns the application logger.
func Logger() *slog.Logger {
	once.Do(initServices)
	if logger == nil {
		return logging.NewDiscardLogger()
	}
	return logger
}

// DB returns the opened database.
func DB() (*sql.DB, error) {
	once.Do(initServices)
	return database, initErr
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cfg, initErr = config.LoadConfig(opts.Dir)
	if initErr != nil {
		return
	}

	level := logging.LevelFromVerbosity(logging.LevelFromString(cfg.Log.Level), opts.Verbosity, opts.Quiet)
	logger = logging.NewLogger(os.Stderr, level, cfg.Log.Format)

	database, initErr = db.Open(db.Options{Driver: cfg.Database.Driver, Path: cfg.Database.Path})
	if initErr != nil {
		initErr = fmt.Errorf("failed to initialize database: %w", initErr)
		return
	}

	// Secondary adapters
	uow := sqlite.NewUnitOfWork(database, cfg.Matching.BatchSize)
	linkCache := cache.NewLinkCache()
	notifier := newNotifier(cfg, logger)

	// Effect executor and assignment engine shared by every service
	executor := app.NewEffectExecutor(uow, linkCache, notifier, logger)
	engine := app.NewAssignmentEngine(app.MatchingOptions{
		Pushdown: cfg.Matching.Pushdown,
		Workers:  cfg.Matching.Workers,
	}, logger)

	// Services (primary ports implementation)
	indexingService = app.NewIndexingService(uow, engine, executor, logger)
	classificationService = app.NewClassificationService(uow, engine, executor)
	problemService = app.NewProblemService(uow, engine, executor)
	patternService = app.NewPatternService(uow, engine, executor)
	scenarioService = app.NewScenarioService(uow, linkCache)
}

// newNotifier sends mail when an SMTP host is configured and logs otherwise.
func newNotifier(c *config.Config, logger *slog.Logger) secondary.Notifier {
	smtpCfg := c.Notification.SMTP
	if smtpCfg.Host == "" {
		return notify.NewLogNotifier(logger)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:       smtpCfg.Host,
		Port:       smtpCfg.Port,
		Username:   smtpCfg.Username,
		Password:   smtpCfg.Password,
		From:       smtpCfg.From,
		Recipients: c.Notification.Recipients,
	})
}

// ProblemAdapter returns a new ProblemAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ProblemAdapter() (*cliadapter.ProblemAdapter, error) {
	return ProblemAdapterWithOutput(os.Stdout)
}

// ProblemAdapterWithOutput returns a new ProblemAdapter writing to the given output.
func ProblemAdapterWithOutput(out io.Writer) (*cliadapter.ProblemAdapter, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return cliadapter.NewProblemAdapter(problemService, out), nil
}

// PatternAdapter returns a new PatternAdapter writing to stdout.
func PatternAdapter() (*cliadapter.PatternAdapter, error) {
	return PatternAdapterWithOutput(os.Stdout)
}

// PatternAdapterWithOutput returns a new PatternAdapter writing to the given output.
func PatternAdapterWithOutput(out io.Writer) (*cliadapter.PatternAdapter, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return cliadapter.NewPatternAdapter(patternService, out), nil
}

// IndexAdapter returns a new IndexAdapter writing to stdout.
func IndexAdapter() (*cliadapter.IndexAdapter, error) {
	return IndexAdapterWithOutput(os.Stdout)
}

// IndexAdapterWithOutput returns a new IndexAdapter writing to the given output.
func IndexAdapterWithOutput(out io.Writer) (*cliadapter.IndexAdapter, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return cliadapter.NewIndexAdapter(indexingService, classificationService, scenarioService, out), nil
}
