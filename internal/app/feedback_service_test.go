package app

import (
	"context"
	"errors"
	"testing"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/logger"
	"github.com/example/lms/internal/ports/secondary"
)

func TestSubmitFeedback_RefreshesCourseRating(t *testing.T) {
	repo := newTestRepository(t, nil)
	courses := NewCourseService(repo, logger.NewNop())
	identity := &mockIdentityProvider{identity: secondary.Identity{UserID: "me"}}
	svc := NewFeedbackService(repo, identity)
	ctx := context.Background()
	course := mustCreateCourse(t, courses, schema.Record{"title": "Go", "description": "Bases"})

	first, err := svc.SubmitFeedback(ctx, schema.Record{"formation": course.ID, "note": 5, "commentaire": "Top"})
	if err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}
	if first.UserID != "me" || first.Comment != "Top" {
		t.Errorf("unexpected feedback: %+v", first)
	}
	if _, err := svc.SubmitFeedback(ctx, schema.Record{"courseId": course.ID, "userId": "u2", "rating": 2}); err != nil {
		t.Fatalf("SubmitFeedback() error: %v", err)
	}

	got, _ := courses.GetCourse(ctx, course.ID)
	if got.Rating != 3.5 || got.TotalRatings != 2 {
		t.Errorf("rating = %v over %d", got.Rating, got.TotalRatings)
	}

	list, _ := svc.ListFeedback(ctx, course.ID)
	if len(list) != 2 {
		t.Errorf("expected 2 feedback entries, got %d", len(list))
	}
}

func TestSubmitFeedback_Rejects(t *testing.T) {
	repo := newTestRepository(t, nil)
	courses := NewCourseService(repo, logger.NewNop())
	svc := NewFeedbackService(repo, &mockIdentityProvider{identity: secondary.Identity{UserID: "me"}})
	ctx := context.Background()
	course := mustCreateCourse(t, courses, schema.Record{"title": "Go", "description": "Bases"})

	_, err := svc.SubmitFeedback(ctx, schema.Record{"courseId": "ghost", "rating": 4})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	_, err = svc.SubmitFeedback(ctx, schema.Record{"courseId": course.ID, "rating": 9})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
