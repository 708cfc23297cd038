// Package legacy describes where historical platform data lives and how to read it:
// a declarative table of legacy sources per entity kind, record enumeration over
// those sources and conversion of embedded module lists.
package legacy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
)

//go:embed paths.yaml
var defaultTable []byte

// Source is one historical location of records of a kind.
type Source struct {
	Path string `yaml:"path"`
	// Nesting names the field bound by each key level below Path, outermost first.
	Nesting []string `yaml:"nesting,omitempty"`
	// Set holds attributes implied by the location. They never override record values.
	Set map[string]any `yaml:"set,omitempty"`
	// Fields renames legacy field names specific to this location.
	Fields map[string]string `yaml:"fields,omitempty"`
	// Kind is the kind of the records found here, filled in by Parse.
	Kind schema.Kind `yaml:"-"`
}

// Cleanup lists the locations the cleanup engine scans or deletes.
type Cleanup struct {
	Courses     []string `yaml:"courses"`
	Enrollments []Source `yaml:"enrollments"`
	Modules     []string `yaml:"modules"`
	Evaluations []Source `yaml:"evaluations"`
	Progress    []Source `yaml:"progress"`
	Obsolete    []string `yaml:"obsolete"`
}

// Table is the full legacy location table.
type Table struct {
	Sources map[schema.Kind][]Source `yaml:"sources"`
	Cleanup Cleanup                  `yaml:"cleanup"`
}

// Default returns the built-in table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Load reads a table from a YAML file. An empty path yields the built-in table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy table: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse legacy table: %w", err)
	}
	if err := t.check(); err != nil {
		return nil, err
	}
	t.bindKinds()
	return &t, nil
}

func (t *Table) bindKinds() {
	bind := func(kind schema.Kind, sources []Source) {
		for i := range sources {
			sources[i].Kind = kind
		}
	}
	for kind, sources := range t.Sources {
		bind(kind, sources)
	}
	bind(schema.KindEnrollment, t.Cleanup.Enrollments)
	bind(schema.KindEvaluation, t.Cleanup.Evaluations)
	bind(schema.KindProgress, t.Cleanup.Progress)
}

func (t *Table) check() error {
	for kind, sources := range t.Sources {
		if _, err := schema.ParseKind(string(kind)); err != nil {
			return fmt.Errorf("invalid legacy table: %w", err)
		}
		for _, s := range sources {
			if err := s.check(); err != nil {
				return fmt.Errorf("invalid legacy table: %s: %w", kind, err)
			}
		}
	}
	for _, group := range [][]Source{t.Cleanup.Enrollments, t.Cleanup.Evaluations, t.Cleanup.Progress} {
		for _, s := range group {
			if err := s.check(); err != nil {
				return fmt.Errorf("invalid legacy table: cleanup: %w", err)
			}
		}
	}
	for _, group := range [][]string{t.Cleanup.Courses, t.Cleanup.Modules, t.Cleanup.Obsolete} {
		for _, p := range group {
			if tree.Clean(p) == "" {
				return fmt.Errorf("invalid legacy table: cleanup: empty path")
			}
		}
	}
	return nil
}

func (s Source) check() error {
	if tree.Clean(s.Path) == "" {
		return fmt.Errorf("source with empty path")
	}
	for _, field := range s.Nesting {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("source %s: empty nesting field", s.Path)
		}
	}
	return nil
}

// For returns the sources of kind.
func (t *Table) For(kind schema.Kind) []Source {
	return t.Sources[kind]
}
