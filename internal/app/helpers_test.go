package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/lms/internal/adapters/memory"
	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var testTimestamp = schema.Timestamp(testNow)

// mockIDGenerator hands out sequential ids.
type mockIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func newMockIDGenerator(prefix string) *mockIDGenerator {
	return &mockIDGenerator{prefix: prefix}
}

func (m *mockIDGenerator) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("%s%d", m.prefix, m.next)
}

// mockIdentityProvider implements secondary.IdentityProvider for testing.
type mockIdentityProvider struct {
	identity secondary.Identity
	err      error
}

func (m *mockIdentityProvider) CurrentIdentity(ctx context.Context) (*secondary.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	identity := m.identity
	return &identity, nil
}

// mockRunHistory implements secondary.RunHistory for testing.
type mockRunHistory struct {
	runs      []*secondary.RunRecord
	appendErr error
}

func (m *mockRunHistory) Append(ctx context.Context, run *secondary.RunRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockRunHistory) List(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	out := make([]*secondary.RunRecord, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		out = append(out, m.runs[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// failingStore wraps a store and fails writes below failPrefix.
type failingStore struct {
	secondary.TreeStore
	failPrefix string
	writeErr   error
	panicMsg   string
}

func (f *failingStore) Write(ctx context.Context, path string, value any) error {
	if strings.HasPrefix(path, f.failPrefix) {
		if f.panicMsg != "" {
			panic(f.panicMsg)
		}
		return f.writeErr
	}
	return f.TreeStore.Write(ctx, path, value)
}

// ============================================================================
// Test Helpers
// ============================================================================

func newTestRepository(t *testing.T, store secondary.TreeStore) *Repository {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	return NewRepository(store, newMockIDGenerator("id-"), "lms", schema.Standardizer{Now: func() time.Time { return testNow }})
}

func seedStore(t *testing.T, tree map[string]any) *memory.Store {
	t.Helper()
	store, err := memory.NewFromValue(tree)
	if err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return store
}

func readPath(t *testing.T, store secondary.TreeStore, path string) any {
	t.Helper()
	v, _, err := store.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read(%q) error: %v", path, err)
	}
	return v
}

func mustCreateUser(t *testing.T, svc *UserServiceImpl, data schema.Record) *schema.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), data)
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	return user
}

func mustCreateCourse(t *testing.T, svc *CourseServiceImpl, data schema.Record) *schema.Course {
	t.Helper()
	course, err := svc.CreateCourse(context.Background(), data)
	if err != nil {
		t.Fatalf("CreateCourse() error: %v", err)
	}
	return course
}
