package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/ports/secondary"
)

// RunHistoryAdapter keeps engine runs in the tree under {root}/meta/runs.
type RunHistoryAdapter struct {
	store secondary.TreeStore
	path  string
}

// NewRunHistory creates a new RunHistoryAdapter for the canonical root.
func NewRunHistory(store secondary.TreeStore, root string) *RunHistoryAdapter {
	return &RunHistoryAdapter{store: store, path: tree.Join(root, "meta", "runs")}
}

type storedStage struct {
	Name         string `json:"name"`
	Processed    int    `json:"processed"`
	Written      int    `json:"written"`
	Skipped      int    `json:"skipped"`
	Placeholders int    `json:"placeholders"`
	Invalid      int    `json:"invalid"`
}

type storedRun struct {
	ID         string        `json:"id"`
	Engine     string        `json:"engine"`
	Actor      string        `json:"actor"`
	DryRun     bool          `json:"dryRun"`
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	StartedAt  string        `json:"startedAt"`
	FinishedAt string        `json:"finishedAt"`
	Stages     []storedStage `json:"stages"`
}

// Append stores a finished run.
func (h *RunHistoryAdapter) Append(ctx context.Context, run *secondary.RunRecord) error {
	stored := storedRun{
		ID:         run.ID,
		Engine:     run.Engine,
		Actor:      run.Actor,
		DryRun:     run.DryRun,
		Success:    run.Success,
		Message:    run.Message,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Stages:     []storedStage{},
	}
	for _, s := range run.Stages {
		stored.Stages = append(stored.Stages, storedStage(s))
	}
	if err := h.store.Write(ctx, tree.Join(h.path, run.ID), stored); err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (h *RunHistoryAdapter) List(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	value, ok, err := h.store.Read(ctx, h.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run history: %w", err)
	}
	if !ok {
		return nil, nil
	}
	runs, isMap := tree.AsMap(value)
	if !isMap {
		return nil, fmt.Errorf("failed to read run history: expected an object at %s", h.path)
	}

	records := make([]*secondary.RunRecord, 0, len(runs))
	for _, id := range tree.SortedKeys(runs) {
		raw, err := json.Marshal(runs[id])
		if err != nil {
			return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
		}
		var stored storedRun
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
		}
		rec := &secondary.RunRecord{
			ID:         id,
			Engine:     stored.Engine,
			Actor:      stored.Actor,
			DryRun:     stored.DryRun,
			Success:    stored.Success,
			Message:    stored.Message,
			StartedAt:  stored.StartedAt,
			FinishedAt: stored.FinishedAt,
		}
		for _, s := range stored.Stages {
			rec.Stages = append(rec.Stages, secondary.StageRecord(s))
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt > records[j].StartedAt
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

var _ secondary.RunHistory = (*RunHistoryAdapter)(nil)
