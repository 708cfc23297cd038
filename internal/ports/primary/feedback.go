package primary

import (
	"context"

	"github.com/example/lms/internal/core/schema"
)

// FeedbackService defines the primary port for course feedback.
type FeedbackService interface {
	// SubmitFeedback stores a rating for a course and refreshes the course rating.
	// An empty userId attributes the feedback to the current caller.
	SubmitFeedback(ctx context.Context, data schema.Record) (*schema.Feedback, error)

	// ListFeedback returns the feedback of a course.
	ListFeedback(ctx context.Context, courseID string) ([]*schema.Feedback, error)
}
