package tree

import (
	"reflect"
	"testing"
)

func TestFlattenAssemble_RoundTrip(t *testing.T) {
	value := map[string]any{
		"title":   "Go 101",
		"price":   float64(20),
		"modules": map[string]any{"m1": true, "m2": true},
		"tags":    []any{"go", "backend"},
		"extra":   map[string]any{},
	}

	leaves, err := Flatten("lms/courses/c1", value)
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	if len(leaves) != 6 {
		t.Fatalf("expected 6 leaves, got %d: %v", len(leaves), leaves)
	}

	got, ok, err := Assemble("lms/courses/c1", leaves)
	if err != nil || !ok {
		t.Fatalf("Assemble() = %v, %v", ok, err)
	}
	if !reflect.DeepEqual(got, value) {
		t.Errorf("Assemble() = %#v, want %#v", got, value)
	}
}

func TestFlatten_Scalar(t *testing.T) {
	leaves, err := Flatten("a/b", "hello")
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	want := []Leaf{{Path: "a/b", Value: `"hello"`}}
	if !reflect.DeepEqual(leaves, want) {
		t.Errorf("Flatten() = %v, want %v", leaves, want)
	}
}

func TestFlatten_RejectsInvalidKey(t *testing.T) {
	if _, err := Flatten("a", map[string]any{"b/c": 1.0}); err == nil {
		t.Error("expected error for key containing a slash")
	}
}

func TestAssemble_Subtree(t *testing.T) {
	leaves := []Leaf{
		{Path: "a/b/c", Value: `1`},
		{Path: "a/b/d", Value: `"x"`},
		{Path: "a/e", Value: `true`},
	}

	got, ok, err := Assemble("a/b", leaves)
	if err != nil || !ok {
		t.Fatalf("Assemble() = %v, %v", ok, err)
	}
	want := map[string]any{"c": float64(1), "d": "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assemble() = %#v, want %#v", got, want)
	}

	if _, ok, _ := Assemble("z", leaves); ok {
		t.Error("Assemble() of a missing path should report false")
	}
}
