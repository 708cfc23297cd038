// Package storetest is the conformance suite every tree store adapter runs.
package storetest

import (
	"context"
	"reflect"
	"testing"

	"github.com/example/lms/internal/ports/secondary"
)

// Run exercises store semantics against stores returned by newStore. Each
// subtest gets a fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) secondary.TreeStore) {
	t.Helper()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t, context.Background(), newStore(t))
		})
	}
}

type testCase struct {
	name string
	run  func(t *testing.T, ctx context.Context, s secondary.TreeStore)
}

var cases = []testCase{
	{"read absent", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		assertAbsent(t, ctx, s, "lms/courses/c1")
		assertAbsent(t, ctx, s, "")
	}},
	{"write and read", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		course := map[string]any{
			"title":   "Go",
			"price":   float64(49.9),
			"free":    false,
			"tags":    []any{"a", "b"},
			"modules": map[string]any{"m1": true},
			"empty":   map[string]any{},
			"nothing": nil,
		}
		mustWrite(t, ctx, s, "lms/courses/c1", course)

		delete(course, "nothing")
		assertValue(t, ctx, s, "lms/courses/c1", course)
		assertValue(t, ctx, s, "lms/courses/c1/modules/m1", true)
		assertValue(t, ctx, s, "lms/courses/c1/empty", map[string]any{})
		assertValue(t, ctx, s, "lms/courses", map[string]any{"c1": course})
	}},
	{"integers read back as numbers", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		mustWrite(t, ctx, s, "n", map[string]any{"order": 3})
		assertValue(t, ctx, s, "n/order", float64(3))
	}},
	{"write replaces subtree", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		mustWrite(t, ctx, s, "lms/users/u1", map[string]any{"email": "a@x.io", "role": "student"})
		mustWrite(t, ctx, s, "lms/users/u1", map[string]any{"email": "b@x.io"})
		assertValue(t, ctx, s, "lms/users/u1", map[string]any{"email": "b@x.io"})
	}},
	{"write below a scalar replaces it", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		mustWrite(t, ctx, s, "a/b", "scalar")
		mustWrite(t, ctx, s, "a/b/c", float64(1))
		assertValue(t, ctx, s, "a", map[string]any{"b": map[string]any{"c": float64(1)}})
	}},
	{"write nil deletes", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		mustWrite(t, ctx, s, "a/b", "x")
		mustWrite(t, ctx, s, "a/c", "y")
		mustWrite(t, ctx, s, "a/b", nil)
		assertValue(t, ctx, s, "a", map[string]any{"c": "y"})
	}},
	{"merge keeps siblings", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		mustWrite(t, ctx, s, "p", map[string]any{"a": "1", "b": map[string]any{"x": "2"}, "c": "3"})
		if err := s.Merge(ctx, "p", map[string]any{"b": map[string]any{"y": "4"}, "c": nil, "d": "5"}); err != nil {
			t.Fatalf("Merge() error: %v", err)
		}
		assertValue(t, ctx, s, "p", map[string]any{"a": "1", "b": map[string]any{"y": "4"}, "d": "5"})
	}},
	{"merge into absent and scalar nodes", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		if err := s.Merge(ctx, "fresh", map[string]any{"k": "v"}); err != nil {
			t.Fatalf("Merge() error: %v", err)
		}
		assertValue(t, ctx, s, "fresh", map[string]any{"k": "v"})

		mustWrite(t, ctx, s, "scalar", "x")
		if err := s.Merge(ctx, "scalar", map[string]any{"k": "v"}); err != nil {
			t.Fatalf("Merge() error: %v", err)
		}
		assertValue(t, ctx, s, "scalar", map[string]any{"k": "v"})
	}},
	{"delete prunes empty parents", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		mustWrite(t, ctx, s, "lms/enrollments/byCourse/c1/u1", map[string]any{"status": "active"})
		mustWrite(t, ctx, s, "lms/enrollments/byUser/u1/c1", map[string]any{"status": "active"})
		if err := s.Delete(ctx, "lms/enrollments/byCourse/c1/u1"); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		assertAbsent(t, ctx, s, "lms/enrollments/byCourse/c1")
		assertAbsent(t, ctx, s, "lms/enrollments/byCourse")
		assertValue(t, ctx, s, "lms/enrollments/byUser/u1/c1/status", "active")

		if err := s.Delete(ctx, "does/not/exist"); err != nil {
			t.Errorf("Delete(absent) error: %v", err)
		}
	}},
	{"sibling prefixes stay isolated", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		mustWrite(t, ctx, s, "lms/courses", map[string]any{"k": "1"})
		mustWrite(t, ctx, s, "lms/courses-old", map[string]any{"k": "2"})
		mustWrite(t, ctx, s, "lms/coursesX", map[string]any{"k": "3"})
		assertValue(t, ctx, s, "lms/courses", map[string]any{"k": "1"})

		if err := s.Delete(ctx, "lms/courses"); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		assertValue(t, ctx, s, "lms", map[string]any{
			"courses-old": map[string]any{"k": "2"},
			"coursesX":    map[string]any{"k": "3"},
		})
	}},
	{"read root", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		mustWrite(t, ctx, s, "Formateurs/u1/nom", "Diaz")
		mustWrite(t, ctx, s, "lms/users/u1/email", "a@x.io")
		assertValue(t, ctx, s, "", map[string]any{
			"Formateurs": map[string]any{"u1": map[string]any{"nom": "Diaz"}},
			"lms":        map[string]any{"users": map[string]any{"u1": map[string]any{"email": "a@x.io"}}},
		})
	}},
	{"invalid keys are rejected", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		if err := s.Write(ctx, "p", map[string]any{"a.b": "x"}); err == nil {
			t.Error("expected error for key with '.'")
		}
		if err := s.Merge(ctx, "p", map[string]any{"a#": "x"}); err == nil {
			t.Error("expected error for key with '#'")
		}
		assertAbsent(t, ctx, s, "p")
	}},
	{"read returns a copy", func(t *testing.T, ctx context.Context, s secondary.TreeStore) {
		mustWrite(t, ctx, s, "p", map[string]any{"a": map[string]any{"b": "1"}})
		v, _, err := s.Read(ctx, "p")
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		v.(map[string]any)["a"].(map[string]any)["b"] = "changed"
		assertValue(t, ctx, s, "p/a/b", "1")
	}},
}

func mustWrite(t *testing.T, ctx context.Context, s secondary.TreeStore, path string, value any) {
	t.Helper()
	if err := s.Write(ctx, path, value); err != nil {
		t.Fatalf("Write(%q) error: %v", path, err)
	}
}

func assertValue(t *testing.T, ctx context.Context, s secondary.TreeStore, path string, want any) {
	t.Helper()
	got, ok, err := s.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read(%q) error: %v", path, err)
	}
	if !ok {
		t.Fatalf("Read(%q): expected a value, found nothing", path)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Read(%q) = %#v, want %#v", path, got, want)
	}
}

func assertAbsent(t *testing.T, ctx context.Context, s secondary.TreeStore, path string) {
	t.Helper()
	got, ok, err := s.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read(%q) error: %v", path, err)
	}
	if ok {
		t.Errorf("Read(%q) = %#v, want absent", path, got)
	}
}
