package primary

import (
	"context"

	"github.com/example/lms/internal/core/schema"
)

// CourseService defines the primary port for course operations.
type CourseService interface {
	// ListCourses returns every canonical course.
	ListCourses(ctx context.Context) ([]*schema.Course, error)

	// GetCourse returns the course, or nil when it does not exist.
	GetCourse(ctx context.Context, courseID string) (*schema.Course, error)

	// CreateCourse creates a course and attaches it to its instructor.
	CreateCourse(ctx context.Context, data schema.Record) (*schema.Course, error)

	// UpdateCourse merges changes into the course.
	UpdateCourse(ctx context.Context, courseID string, changes schema.Record) (*schema.Course, error)

	// DeleteCourse removes the course and detaches it from its instructor.
	// Modules are left in place and reported as orphans.
	DeleteCourse(ctx context.Context, courseID string) (*DeleteCourseResponse, error)
}

// DeleteCourseResponse contains the result of deleting a course.
type DeleteCourseResponse struct {
	CourseID      string
	OrphanModules []string
}
