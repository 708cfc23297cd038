package tree

import (
	"reflect"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{in: 12.5, want: 12.5, wantOK: true},
		{in: 3, want: 3, wantOK: true},
		{in: " 49.90 ", want: 49.9, wantOK: true},
		{in: "12,5", want: 12.5, wantOK: true},
		{in: "abc", wantOK: false},
		{in: "", wantOK: false},
		{in: nil, wantOK: false},
		{in: true, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := Number(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("Number(%#v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		in     any
		want   bool
		wantOK bool
	}{
		{in: true, want: true, wantOK: true},
		{in: "oui", want: true, wantOK: true},
		{in: "false", want: false, wantOK: true},
		{in: 1.0, want: true, wantOK: true},
		{in: "maybe", wantOK: false},
		{in: nil, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := Bool(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Bool(%#v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalize(t *testing.T) {
	type resource struct {
		Title string `json:"title"`
	}
	in := map[string]any{
		"count":     3,
		"flags":     map[string]bool{"m1": true},
		"ids":       []string{"a", "b"},
		"resources": []resource{{Title: "intro"}},
	}

	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := map[string]any{
		"count":     float64(3),
		"flags":     map[string]any{"m1": true},
		"ids":       []any{"a", "b"},
		"resources": []any{map[string]any{"title": "intro"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %#v, want %#v", got, want)
	}
}

func TestClone_IsDeep(t *testing.T) {
	orig := map[string]any{"a": map[string]any{"b": []any{"x"}}}
	cp := Clone(orig).(map[string]any)
	cp["a"].(map[string]any)["b"].([]any)[0] = "y"

	if orig["a"].(map[string]any)["b"].([]any)[0] != "x" {
		t.Error("Clone() shares nested state with the original")
	}
}
