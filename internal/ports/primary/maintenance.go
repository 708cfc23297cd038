package primary

import "context"

// MaintenanceService is the administrative trigger surface for the migration
// and cleanup engines. Runs never return an error: failures are reported
// through RunResult.
type MaintenanceService interface {
	// RunMigration rewrites every legacy location into the canonical layout.
	RunMigration(ctx context.Context, opts MigrationOptions) *RunResult

	// RunCleanup lifts embedded legacy shapes and removes obsolete locations.
	RunCleanup(ctx context.Context, opts CleanupOptions) *RunResult

	// ListRuns returns past runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*RunReport, error)

	// ExportTree returns the raw value stored at path.
	ExportTree(ctx context.Context, path string) (any, bool, error)

	// ImportTree writes a raw value at path, replacing or merging into what is there.
	ImportTree(ctx context.Context, path string, value any, merge bool) error
}

// MigrationOptions controls a migration run.
type MigrationOptions struct {
	// DryRun runs against an in-memory snapshot. Nothing is written.
	DryRun bool
	// Reset deletes every canonical collection before reprocessing.
	Reset bool
	// Sink receives the live log stream, one line per call.
	Sink func(line string)
}

// CleanupOptions controls a cleanup run.
type CleanupOptions struct {
	DryRun bool
	// Force deletes obsolete locations even if this run skipped records or
	// substituted placeholders.
	Force bool
	Sink  func(line string)
}

// RunResult is the outcome of an engine run.
type RunResult struct {
	Success bool
	Message string
	DryRun  bool
	Report  *RunReport
}

// RunReport summarizes an engine run.
type RunReport struct {
	RunID      string
	Engine     string
	Actor      string
	DryRun     bool
	Success    bool
	Message    string
	StartedAt  string
	FinishedAt string
	Stages     []*StageReport
	// ObsoleteDeleted is true when the cleanup run removed obsolete legacy locations.
	ObsoleteDeleted bool
}

// StageReport holds the counters of one stage.
type StageReport struct {
	Name         string
	Processed    int
	Written      int
	Skipped      int
	Placeholders int
	Invalid      int
}

// Skipped sums skipped records across stages.
func (r *RunReport) Skipped() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Skipped
	}
	return n
}

// Placeholders sums placeholder substitutions across stages.
func (r *RunReport) Placeholders() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Placeholders
	}
	return n
}
