package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/example/lms/internal/adapters/memory"
	"github.com/example/lms/internal/ctxutil"
	"github.com/example/lms/internal/ports/secondary"
)

func TestIdentityProvider(t *testing.T) {
	p := NewIdentityProvider("admin-1", "ops@example.com")

	got, err := p.CurrentIdentity(context.Background())
	if err != nil {
		t.Fatalf("CurrentIdentity() error: %v", err)
	}
	if got.UserID != "admin-1" || got.Email != "ops@example.com" {
		t.Errorf("fallback identity = %+v", got)
	}

	ctx := ctxutil.WithActor(context.Background(), ctxutil.Actor{UserID: "u1", Email: "u1@example.com"})
	got, _ = p.CurrentIdentity(ctx)
	if got.UserID != "u1" {
		t.Errorf("context actor should win, got %+v", got)
	}
}

func TestUUIDGenerator(t *testing.T) {
	g := NewUUIDGenerator()
	a, b := g.NewID(), g.NewID()
	if a == b {
		t.Error("ids should be unique")
	}
	parsed, err := uuid.Parse(a)
	if err != nil || parsed.Version() != 4 {
		t.Errorf("NewID() = %q, want a v4 uuid", a)
	}
}

func TestRunHistory_AppendAndList(t *testing.T) {
	store := memory.New()
	h := NewRunHistory(store, "lms")
	ctx := context.Background()

	runs := []*secondary.RunRecord{
		{ID: "r1", Engine: "migration", Success: true, StartedAt: "2024-01-01T00:00:00.000Z",
			Stages: []secondary.StageRecord{{Name: "users", Processed: 3, Written: 3}}},
		{ID: "r2", Engine: "cleanup", Message: "boom", StartedAt: "2024-01-02T00:00:00.000Z"},
		{ID: "r3", Engine: "migration", DryRun: true, StartedAt: "2024-01-03T00:00:00.000Z"},
	}
	for _, r := range runs {
		if err := h.Append(ctx, r); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	got, err := h.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r3" || got[1].ID != "r2" {
		t.Fatalf("List(2) = %+v", got)
	}

	all, _ := h.List(ctx, 0)
	last := all[len(all)-1]
	if last.ID != "r1" || len(last.Stages) != 1 || last.Stages[0].Written != 3 || !last.Success {
		t.Errorf("stored run = %+v", last)
	}
}

func TestRunHistory_Empty(t *testing.T) {
	got, err := NewRunHistory(memory.New(), "lms").List(context.Background(), 10)
	if err != nil || len(got) != 0 {
		t.Errorf("List() = %v, %v", got, err)
	}
}
