package secondary

import "context"

// RunRecord is one migration or cleanup run as kept in run history.
type RunRecord struct {
	ID         string
	Engine     string
	Actor      string
	DryRun     bool
	Success    bool
	Message    string
	StartedAt  string
	FinishedAt string
	Stages     []StageRecord
}

// StageRecord holds the counters of one engine stage.
type StageRecord struct {
	Name         string
	Processed    int
	Written      int
	Skipped      int
	Placeholders int
	Invalid      int
}

// RunHistory persists engine runs.
type RunHistory interface {
	// Append stores a finished run.
	Append(ctx context.Context, run *RunRecord) error

	// List returns the most recent runs, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*RunRecord, error)
}
