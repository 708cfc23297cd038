package legacy

import (
	"strings"
	"testing"

	"github.com/example/lms/internal/core/schema"
)

func TestDefault(t *testing.T) {
	table, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	for _, kind := range schema.Kinds {
		if len(table.For(kind)) == 0 {
			t.Errorf("no legacy sources for %s", kind)
		}
	}
	var formateurs *Source
	for _, s := range table.For(schema.KindUser) {
		if s.Path == "Formateurs" {
			s := s
			formateurs = &s
		}
	}
	if formateurs == nil || formateurs.Set["role"] != "instructor" {
		t.Errorf("Formateurs source should imply the instructor role, got %+v", formateurs)
	}
	if formateurs != nil && formateurs.Kind != schema.KindUser {
		t.Errorf("Formateurs kind = %q, want %q", formateurs.Kind, schema.KindUser)
	}
	for _, s := range table.Cleanup.Progress {
		if s.Kind != schema.KindProgress {
			t.Errorf("cleanup progress source %s kind = %q", s.Path, s.Kind)
		}
	}
	if len(table.Cleanup.Obsolete) == 0 {
		t.Error("expected obsolete paths")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "sources: [", "failed to parse"},
		{"unknown kind", "sources:\n  badge:\n    - path: Badges\n", "unknown entity kind"},
		{"empty path", "sources:\n  user:\n    - path: \"\"\n", "empty path"},
		{"empty nesting field", "sources:\n  user:\n    - path: U\n      nesting: [\"\"]\n", "empty nesting field"},
		{"empty obsolete", "cleanup:\n  obsolete: [\"/\"]\n", "empty path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(table.Sources) == 0 {
		t.Error("expected built-in sources")
	}
}
