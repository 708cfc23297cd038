package app

import (
	"context"
	"fmt"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ports/primary"
)

// ProgressServiceImpl implements the ProgressService interface.
type ProgressServiceImpl struct {
	repo     *Repository
	progress *Collection
}

// NewProgressService creates a new ProgressService with injected dependencies.
func NewProgressService(repo *Repository) *ProgressServiceImpl {
	return &ProgressServiceImpl{
		repo:     repo,
		progress: repo.Collection(schema.KindProgress),
	}
}

// GetProgress retrieves the progress of a user in a course.
func (s *ProgressServiceImpl) GetProgress(ctx context.Context, userID, courseID string) (*schema.Progress, error) {
	return s.repo.loadProgress(ctx, userID, courseID)
}

// ListProgress retrieves every progress node of a user.
func (s *ProgressServiceImpl) ListProgress(ctx context.Context, userID string) ([]*schema.Progress, error) {
	records, err := s.progress.FetchAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress of user %s: %w", userID, err)
	}
	out := make([]*schema.Progress, 0, len(records))
	for _, rec := range records {
		p := s.repo.Standardizer().Progress(rec)
		if p.UserID == "" {
			p.UserID = userID
		}
		if p.CourseID == "" {
			p.CourseID, _ = rec["id"].(string)
		}
		out = append(out, &p)
	}
	return out, nil
}

// UpdateModuleProgress writes one module entry, then recalculates the course progress.
func (s *ProgressServiceImpl) UpdateModuleProgress(ctx context.Context, req primary.ModuleProgressRequest) (*schema.Progress, error) {
	if req.UserID == "" || req.CourseID == "" || req.ModuleID == "" {
		return nil, &ValidationError{Kind: schema.KindProgress, Errors: []string{"userId, courseId and moduleId are required"}}
	}
	now := s.repo.Now()

	existing, err := s.repo.loadProgress(ctx, req.UserID, req.CourseID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		node := schema.Progress{
			UserID:      req.UserID,
			CourseID:    req.CourseID,
			StartDate:   now,
			LastUpdated: now,
			Modules:     map[string]schema.ModuleProgress{},
			Details:     schema.ProgressDetails{ModuleScores: map[string]float64{}},
		}
		if err := s.progress.Put(ctx, req.UserID, req.CourseID, schema.ToRecord(node)); err != nil {
			return nil, err
		}
	}

	entry := schema.ModuleProgress{
		ModuleID:    req.ModuleID,
		Completed:   req.Completed,
		Score:       req.Score,
		LastUpdated: now,
	}
	if err := s.repo.Store().Write(ctx, s.progress.Path(req.UserID, req.CourseID, "modules", req.ModuleID), entry); err != nil {
		return nil, fmt.Errorf("failed to write module progress: %w", err)
	}
	return s.RecalculateCourseProgress(ctx, req.UserID, req.CourseID)
}

// RecalculateCourseProgress recomputes the derived fields of a progress node and
// the student's progress summary.
func (s *ProgressServiceImpl) RecalculateCourseProgress(ctx context.Context, userID, courseID string) (*schema.Progress, error) {
	p, err := s.repo.loadProgress(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Kind: schema.KindProgress, Path: s.progress.Path(userID, courseID)}
	}
	updated, err := s.repo.recalculateProgress(ctx, *p, s.repo.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.refreshStudentProgress(ctx, userID); err != nil {
		return nil, err
	}
	return updated, nil
}

// Ensure ProgressServiceImpl implements the interface
var _ primary.ProgressService = (*ProgressServiceImpl)(nil)
