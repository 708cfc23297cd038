package app

import (
	"context"
	"fmt"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ports/primary"
	"github.com/example/lms/internal/ports/secondary"
)

// FeedbackServiceImpl implements the FeedbackService interface.
type FeedbackServiceImpl struct {
	repo     *Repository
	feedback *Collection
	courses  *Collection
	identity secondary.IdentityProvider
}

// NewFeedbackService creates a new FeedbackService with injected dependencies.
func NewFeedbackService(repo *Repository, identity secondary.IdentityProvider) *FeedbackServiceImpl {
	return &FeedbackServiceImpl{
		repo:     repo,
		feedback: repo.Collection(schema.KindFeedback),
		courses:  repo.Collection(schema.KindCourse),
		identity: identity,
	}
}

// SubmitFeedback stores a rating for an existing course and refreshes the course rating.
func (s *FeedbackServiceImpl) SubmitFeedback(ctx context.Context, data schema.Record) (*schema.Feedback, error) {
	data = copyRecord(data)
	draft := s.repo.Standardizer().Feedback(data)
	if draft.UserID == "" {
		who, err := s.identity.CurrentIdentity(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve current user: %w", err)
		}
		data["userId"] = who.UserID
	}
	if draft.CourseID == "" {
		return nil, &ValidationError{Kind: schema.KindFeedback, Errors: []string{"courseId is required"}}
	}
	course, err := s.courses.FetchByID(ctx, "", draft.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, &NotFoundError{Kind: schema.KindCourse, Path: s.courses.Path(draft.CourseID)}
	}

	id, err := s.feedback.Create(ctx, draft.CourseID, data)
	if err != nil {
		return nil, err
	}
	if err := s.repo.refreshCourseRating(ctx, draft.CourseID); err != nil {
		return nil, err
	}

	rec, err := s.feedback.FetchByID(ctx, draft.CourseID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created feedback: %w", err)
	}
	return decode[schema.Feedback](rec)
}

// ListFeedback retrieves the feedback of a course.
func (s *FeedbackServiceImpl) ListFeedback(ctx context.Context, courseID string) ([]*schema.Feedback, error) {
	records, err := s.feedback.FetchAll(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback of course %s: %w", courseID, err)
	}
	return decodeAll[schema.Feedback](records)
}

// Ensure FeedbackServiceImpl implements the interface
var _ primary.FeedbackService = (*FeedbackServiceImpl)(nil)
