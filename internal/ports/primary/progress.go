package primary

import (
	"context"

	"github.com/example/lms/internal/core/schema"
)

// ProgressService defines the primary port for course progress.
type ProgressService interface {
	// GetProgress returns the progress node, or nil when it does not exist.
	GetProgress(ctx context.Context, userID, courseID string) (*schema.Progress, error)

	// ListProgress returns every progress node of a user.
	ListProgress(ctx context.Context, userID string) ([]*schema.Progress, error)

	// UpdateModuleProgress writes one module entry and recalculates the course progress.
	UpdateModuleProgress(ctx context.Context, req ModuleProgressRequest) (*schema.Progress, error)

	// RecalculateCourseProgress recomputes the derived fields of a progress node.
	RecalculateCourseProgress(ctx context.Context, userID, courseID string) (*schema.Progress, error)
}

// ModuleProgressRequest contains one module progress update.
type ModuleProgressRequest struct {
	UserID    string
	CourseID  string
	ModuleID  string
	Completed bool
	Score     float64
}
