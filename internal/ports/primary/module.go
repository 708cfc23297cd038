package primary

import (
	"context"

	"github.com/example/lms/internal/core/schema"
)

// ModuleService defines the primary port for course modules.
type ModuleService interface {
	// ListModules returns the modules of a course in display order.
	ListModules(ctx context.Context, courseID string) ([]*schema.Module, error)

	// GetModule returns the module, or nil when it does not exist.
	GetModule(ctx context.Context, moduleID string) (*schema.Module, error)

	// CreateModule creates a module in an existing course and registers its membership.
	CreateModule(ctx context.Context, data schema.Record) (*schema.Module, error)

	// UpdateModule merges changes into the module.
	UpdateModule(ctx context.Context, moduleID string, changes schema.Record) (*schema.Module, error)

	// DeleteModule detaches the module from its course and removes it.
	DeleteModule(ctx context.Context, moduleID string) error
}
