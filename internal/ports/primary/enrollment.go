package primary

import (
	"context"

	"github.com/example/lms/internal/core/schema"
)

// EnrollmentService defines the primary port for enrollments. Every enrollment
// is kept twice, indexed by course and by user.
type EnrollmentService interface {
	// Enroll enrolls a user in a course. An empty UserID enrolls the current caller.
	Enroll(ctx context.Context, req EnrollRequest) (*schema.Enrollment, error)

	// GetEnrollment returns the enrollment, or nil when it does not exist.
	GetEnrollment(ctx context.Context, userID, courseID string) (*schema.Enrollment, error)

	// ListByUser returns the enrollments of a user.
	ListByUser(ctx context.Context, userID string) ([]*schema.Enrollment, error)

	// ListByCourse returns the enrollments of a course.
	ListByCourse(ctx context.Context, courseID string) ([]*schema.Enrollment, error)

	// UpdateStatus changes the status on both copies.
	UpdateStatus(ctx context.Context, userID, courseID, status string) (*schema.Enrollment, error)

	// Unenroll removes both copies and the student satellite entry.
	Unenroll(ctx context.Context, userID, courseID string) error

	// Roster resolves the enrolled users of a course.
	Roster(ctx context.Context, courseID string) ([]*RosterEntry, error)
}

// EnrollRequest contains parameters for enrolling a user.
type EnrollRequest struct {
	UserID   string
	CourseID string
	Status   string
}

// RosterEntry is one enrolled user of a course.
type RosterEntry struct {
	Enrollment *schema.Enrollment
	// User is nil when the enrolled user no longer exists.
	User *schema.User
}
