package app

import (
	"fmt"
	"strings"

	"github.com/example/lms/internal/core/schema"
)

// ValidationError lists every rule a record broke.
type ValidationError struct {
	Kind   schema.Kind
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(e.Errors, "; "))
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Kind schema.Kind
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found at %s", e.Kind, e.Path)
}
