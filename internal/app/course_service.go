package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/logger"
	"github.com/example/lms/internal/ports/primary"
)

// CourseServiceImpl implements the CourseService interface.
type CourseServiceImpl struct {
	repo    *Repository
	courses *Collection
	modules *Collection
	log     *logger.Logger
}

// NewCourseService creates a new CourseService with injected dependencies.
func NewCourseService(repo *Repository, log *logger.Logger) *CourseServiceImpl {
	return &CourseServiceImpl{
		repo:    repo,
		courses: repo.Collection(schema.KindCourse),
		modules: repo.Collection(schema.KindModule),
		log:     log.With("service", "course"),
	}
}

// ListCourses retrieves all courses.
func (s *CourseServiceImpl) ListCourses(ctx context.Context) ([]*schema.Course, error) {
	records, err := s.courses.FetchAll(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return decodeAll[schema.Course](records)
}

// GetCourse retrieves a course by ID.
func (s *CourseServiceImpl) GetCourse(ctx context.Context, courseID string) (*schema.Course, error) {
	rec, err := s.courses.FetchByID(ctx, "", courseID)
	if err != nil || rec == nil {
		return nil, err
	}
	return decode[schema.Course](rec)
}

// CreateCourse creates a course and appends it to the instructor's courses.
func (s *CourseServiceImpl) CreateCourse(ctx context.Context, data schema.Record) (*schema.Course, error) {
	id, err := s.courses.Create(ctx, "", data)
	if err != nil {
		return nil, err
	}
	course, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created course: %w", err)
	}
	if err := s.repo.attachCourse(ctx, course.InstructorID, id); err != nil {
		return nil, err
	}
	return course, nil
}

// UpdateCourse merges changes into a course. A new instructor takes the course over.
func (s *CourseServiceImpl) UpdateCourse(ctx context.Context, courseID string, changes schema.Record) (*schema.Course, error) {
	before, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, &NotFoundError{Kind: schema.KindCourse, Path: s.courses.Path(courseID)}
	}
	if _, err := s.courses.Update(ctx, "", courseID, changes); err != nil {
		return nil, err
	}
	after, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated course: %w", err)
	}

	if after.InstructorID != before.InstructorID {
		if err := s.repo.detachCourse(ctx, before.InstructorID, courseID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.attachCourse(ctx, after.InstructorID, courseID); err != nil {
		return nil, err
	}
	return after, nil
}

// DeleteCourse removes a course. Its modules stay behind and are reported as orphans.
func (s *CourseServiceImpl) DeleteCourse(ctx context.Context, courseID string) (*primary.DeleteCourseResponse, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, &NotFoundError{Kind: schema.KindCourse, Path: s.courses.Path(courseID)}
	}

	orphans, err := s.moduleIDs(ctx, courseID, course)
	if err != nil {
		return nil, err
	}
	if _, err := s.courses.Delete(ctx, "", courseID); err != nil {
		return nil, err
	}
	if err := s.repo.detachCourse(ctx, course.InstructorID, courseID); err != nil {
		return nil, err
	}
	if len(orphans) > 0 {
		s.log.Warn("course deleted with modules left behind", "course", courseID, "orphans", orphans)
	}
	return &primary.DeleteCourseResponse{CourseID: courseID, OrphanModules: orphans}, nil
}

// moduleIDs lists the modules that belong to course, by membership or by courseId.
func (s *CourseServiceImpl) moduleIDs(ctx context.Context, courseID string, course *schema.Course) ([]string, error) {
	ids := []string{}
	for id := range course.Modules {
		ids = append(ids, id)
	}
	records, err := s.modules.FetchAll(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	for _, rec := range records {
		if cid, _ := rec["courseId"].(string); cid == courseID {
			id, _ := rec["id"].(string)
			ids, _ = schema.AppendUnique(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Ensure CourseServiceImpl implements the interface
var _ primary.CourseService = (*CourseServiceImpl)(nil)
