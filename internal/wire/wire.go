// Package wire provides dependency injection for the lms application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"io"
	"log"
	"os"
	"sync"

	cliadapter "github.com/example/lms/internal/adapters/cli"
	"github.com/example/lms/internal/adapters/memory"
	"github.com/example/lms/internal/adapters/persistence"
	"github.com/example/lms/internal/adapters/redis"
	"github.com/example/lms/internal/adapters/sqlite"
	"github.com/example/lms/internal/app"
	"github.com/example/lms/internal/config"
	"github.com/example/lms/internal/core/legacy"
	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/db"
	"github.com/example/lms/internal/logger"
	"github.com/example/lms/internal/ports/primary"
	"github.com/example/lms/internal/ports/secondary"
)

var (
	cfg    *config.Config
	lg     *logger.Logger
	store  secondary.TreeStore
	closer func() error

	userService        primary.UserService
	courseService      primary.CourseService
	moduleService      primary.ModuleService
	evaluationService  primary.EvaluationService
	enrollmentService  primary.EnrollmentService
	progressService    primary.ProgressService
	feedbackService    primary.FeedbackService
	maintenanceService primary.MaintenanceService

	once sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the application logger.
func Logger() *logger.Logger {
	once.Do(initServices)
	return lg
}

// Store returns the configured tree store.
func Store() secondary.TreeStore {
	once.Do(initServices)
	return store
}

// UserService returns the singleton UserService instance.
func UserService() primary.UserService {
	once.Do(initServices)
	return userService
}

// CourseService returns the singleton CourseService instance.
func CourseService() primary.CourseService {
	once.Do(initServices)
	return courseService
}

// EnrollmentService returns the singleton EnrollmentService instance.
func EnrollmentService() primary.EnrollmentService {
	once.Do(initServices)
	return enrollmentService
}

// ProgressService returns the singleton ProgressService instance.
func ProgressService() primary.ProgressService {
	once.Do(initServices)
	return progressService
}

// MaintenanceService returns the singleton MaintenanceService instance.
func MaintenanceService() primary.MaintenanceService {
	once.Do(initServices)
	return maintenanceService
}

// Close releases the store connection. It is safe to call when nothing was opened.
func Close() error {
	if lg != nil {
		lg.Sync()
	}
	if closer == nil {
		return nil
	}
	return closer()
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to resolve working directory: %v", err)
	}
	cfg, err = config.LoadConfig(cwd)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg, err = logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	store, closer, err = openStore(context.Background(), cfg.Store)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Store.Driver, err)
	}
	table, err := legacy.Load(cfg.LegacyPaths)
	if err != nil {
		log.Fatalf("failed to load legacy paths: %v", err)
	}
	lg.Debug("store ready", "driver", cfg.Store.Driver, "root", cfg.Root)

	// Secondary adapters
	ids := persistence.NewUUIDGenerator()
	identity := persistence.NewIdentityProvider(cfg.Actor.UserID, cfg.Actor.Email)
	history := persistence.NewRunHistory(store, cfg.Root)

	repo := app.NewRepository(store, ids, cfg.Root, schema.Standardizer{})

	// Services (primary ports implementation)
	userService = app.NewUserService(repo)
	courseService = app.NewCourseService(repo, lg)
	moduleService = app.NewModuleService(repo)
	evaluationService = app.NewEvaluationService(repo)
	enrollmentService = app.NewEnrollmentService(repo, identity)
	progressService = app.NewProgressService(repo)
	feedbackService = app.NewFeedbackService(repo, identity)
	maintenanceService = app.NewMaintenanceService(repo, table, history, identity, scratchStore, lg)
}

// openStore connects the backing store selected by the configuration.
func openStore(ctx context.Context, sc config.StoreConfig) (secondary.TreeStore, func() error, error) {
	switch sc.Driver {
	case config.DriverRedis:
		rdb, err := redis.Connect(ctx, sc.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewTreeStore(rdb, sc.RedisPrefix), rdb.Close, nil
	case config.DriverMemory:
		return memory.New(), nil, nil
	default:
		database, err := db.GetDB(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewTreeStore(database), db.Close, nil
	}
}

// scratchStore backs dry runs with an in-memory copy of the tree.
func scratchStore(tree map[string]any) (secondary.TreeStore, error) {
	return memory.NewFromValue(tree)
}

// MaintenanceAdapter returns a new MaintenanceAdapter writing to stdout.
func MaintenanceAdapter() *cliadapter.MaintenanceAdapter {
	return MaintenanceAdapterWithOutput(os.Stdout)
}

// MaintenanceAdapterWithOutput returns a new MaintenanceAdapter writing to the given output.
func MaintenanceAdapterWithOutput(out io.Writer) *cliadapter.MaintenanceAdapter {
	once.Do(initServices)
	return cliadapter.NewMaintenanceAdapter(maintenanceService, out)
}

// UserAdapter returns a new UserAdapter writing to stdout.
func UserAdapter() *cliadapter.UserAdapter {
	once.Do(initServices)
	return cliadapter.NewUserAdapter(userService, os.Stdout)
}

// CatalogAdapter returns a new CatalogAdapter writing to stdout.
func CatalogAdapter() *cliadapter.CatalogAdapter {
	once.Do(initServices)
	return cliadapter.NewCatalogAdapter(courseService, moduleService, evaluationService, os.Stdout)
}

// LearningAdapter returns a new LearningAdapter writing to stdout.
func LearningAdapter() *cliadapter.LearningAdapter {
	once.Do(initServices)
	return cliadapter.NewLearningAdapter(enrollmentService, progressService, feedbackService, os.Stdout)
}
