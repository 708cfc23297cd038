package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/lms/internal/core/legacy"
	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/logger"
	"github.com/example/lms/internal/ports/primary"
	"github.com/example/lms/internal/ports/secondary"
)

const (
	engineMigration = "migration"
	engineCleanup   = "cleanup"
)

// MaintenanceServiceImpl implements the MaintenanceService interface.
type MaintenanceServiceImpl struct {
	repo     *Repository
	table    *legacy.Table
	history  secondary.RunHistory
	identity secondary.IdentityProvider
	scratch  secondary.ScratchStoreFactory
	log      *logger.Logger

	// mu refuses a second run while one is in progress.
	mu sync.Mutex
}

// NewMaintenanceService creates a new MaintenanceService with injected dependencies.
func NewMaintenanceService(
	repo *Repository,
	table *legacy.Table,
	history secondary.RunHistory,
	identity secondary.IdentityProvider,
	scratch secondary.ScratchStoreFactory,
	log *logger.Logger,
) *MaintenanceServiceImpl {
	return &MaintenanceServiceImpl{
		repo:     repo,
		table:    table,
		history:  history,
		identity: identity,
		scratch:  scratch,
		log:      log.With("service", "maintenance"),
	}
}

// RunMigration rewrites every legacy location into the canonical layout.
func (s *MaintenanceServiceImpl) RunMigration(ctx context.Context, opts primary.MigrationOptions) *primary.RunResult {
	return s.execute(ctx, engineMigration, opts.DryRun, opts.Sink, func(ctx context.Context, repo *Repository, run *runLog) error {
		if opts.Reset {
			if err := resetCanonical(ctx, repo, run); err != nil {
				return err
			}
		}
		m := &migrator{repo: repo, table: s.table, run: run}
		return m.migrate(ctx)
	})
}

// RunCleanup lifts embedded legacy shapes and removes obsolete locations.
func (s *MaintenanceServiceImpl) RunCleanup(ctx context.Context, opts primary.CleanupOptions) *primary.RunResult {
	return s.execute(ctx, engineCleanup, opts.DryRun, opts.Sink, func(ctx context.Context, repo *Repository, run *runLog) error {
		c := &cleaner{repo: repo, table: s.table, run: run, dryRun: opts.DryRun, force: opts.Force}
		return c.clean(ctx)
	})
}

func resetCanonical(ctx context.Context, repo *Repository, run *runLog) error {
	for _, collection := range canonicalCollections {
		if err := repo.store.Delete(ctx, repo.Path(collection)); err != nil {
			return fmt.Errorf("failed to reset %s: %w", collection, err)
		}
	}
	run.infof("canonical collections cleared under %q", repo.Root())
	return nil
}

type engineFunc func(ctx context.Context, repo *Repository, run *runLog) error

// execute runs an engine with the shared guard, dry-run isolation, panic
// recovery and run history.
func (s *MaintenanceServiceImpl) execute(ctx context.Context, engine string, dryRun bool, sink func(string), fn engineFunc) *primary.RunResult {
	if !s.mu.TryLock() {
		return &primary.RunResult{
			Success: false,
			DryRun:  dryRun,
			Message: "another maintenance run is already in progress",
		}
	}
	defer s.mu.Unlock()

	report := &primary.RunReport{
		RunID:     s.repo.ids.NewID(),
		Engine:    engine,
		DryRun:    dryRun,
		StartedAt: s.repo.Now(),
	}
	if who, err := s.identity.CurrentIdentity(ctx); err == nil && who != nil {
		report.Actor = who.UserID
		if report.Actor == "" {
			report.Actor = who.Email
		}
	}
	run := newRunLog(report, sink, s.log)
	if dryRun {
		run.infof("%s (dry run) started", engine)
	} else {
		run.infof("%s started", engine)
	}

	err := s.guarded(ctx, dryRun, run, fn)

	report.FinishedAt = s.repo.Now()
	report.Success = err == nil
	if err != nil {
		report.Message = fmt.Sprintf("%s failed: %v", engine, err)
		run.warnf("%s", report.Message)
	} else {
		report.Message = fmt.Sprintf("%s completed: %d skipped, %d placeholders", engine, report.Skipped(), report.Placeholders())
		run.infof("%s", report.Message)
	}

	if !dryRun {
		if err := s.history.Append(ctx, toRunRecord(report)); err != nil {
			s.log.Error("failed to record run", "run", report.RunID, "error", err)
		}
	}
	return &primary.RunResult{
		Success: report.Success,
		Message: report.Message,
		DryRun:  dryRun,
		Report:  report,
	}
}

// guarded runs fn against the live repository, or a scratch copy of the whole
// tree for dry runs, and turns panics into errors.
func (s *MaintenanceServiceImpl) guarded(ctx context.Context, dryRun bool, run *runLog, fn engineFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	repo := s.repo
	if dryRun {
		if repo, err = s.scratchRepository(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, repo, run)
}

func (s *MaintenanceServiceImpl) scratchRepository(ctx context.Context) (*Repository, error) {
	value, ok, err := s.repo.store.Read(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot tree: %w", err)
	}
	snapshot := map[string]any{}
	if ok {
		if m, isMap := tree.AsMap(value); isMap {
			snapshot = m
		}
	}
	store, err := s.scratch(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch store: %w", err)
	}
	return NewRepository(store, s.repo.ids, s.repo.root, s.repo.standardizer), nil
}

// ListRuns returns past runs, newest first.
func (s *MaintenanceServiceImpl) ListRuns(ctx context.Context, limit int) ([]*primary.RunReport, error) {
	records, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	reports := make([]*primary.RunReport, len(records))
	for i, r := range records {
		reports[i] = toRunReport(r)
	}
	return reports, nil
}

// ExportTree returns the raw value stored at path.
func (s *MaintenanceServiceImpl) ExportTree(ctx context.Context, path string) (any, bool, error) {
	value, ok, err := s.repo.store.Read(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to export %q: %w", path, err)
	}
	return value, ok, nil
}

// ImportTree writes a raw value at path.
func (s *MaintenanceServiceImpl) ImportTree(ctx context.Context, path string, value any, merge bool) error {
	if merge {
		partial, ok := tree.AsMap(value)
		if !ok {
			return fmt.Errorf("failed to import %q: merge needs an object, got %T", path, value)
		}
		if err := s.repo.store.Merge(ctx, path, partial); err != nil {
			return fmt.Errorf("failed to import %q: %w", path, err)
		}
		return nil
	}
	if err := s.repo.store.Write(ctx, path, value); err != nil {
		return fmt.Errorf("failed to import %q: %w", path, err)
	}
	return nil
}

func toRunRecord(r *primary.RunReport) *secondary.RunRecord {
	rec := &secondary.RunRecord{
		ID:         r.RunID,
		Engine:     r.Engine,
		Actor:      r.Actor,
		DryRun:     r.DryRun,
		Success:    r.Success,
		Message:    r.Message,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	for _, st := range r.Stages {
		rec.Stages = append(rec.Stages, secondary.StageRecord(*st))
	}
	return rec
}

func toRunReport(r *secondary.RunRecord) *primary.RunReport {
	report := &primary.RunReport{
		RunID:      r.ID,
		Engine:     r.Engine,
		Actor:      r.Actor,
		DryRun:     r.DryRun,
		Success:    r.Success,
		Message:    r.Message,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	for _, st := range r.Stages {
		stage := primary.StageReport(st)
		report.Stages = append(report.Stages, &stage)
	}
	if r.Engine == engineCleanup {
		for _, st := range report.Stages {
			if st.Name == "obsolete" && st.Written > 0 {
				report.ObsoleteDeleted = true
			}
		}
	}
	return report
}

// Ensure MaintenanceServiceImpl implements the interface
var _ primary.MaintenanceService = (*MaintenanceServiceImpl)(nil)
