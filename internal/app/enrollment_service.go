package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/ports/primary"
	"github.com/example/lms/internal/ports/secondary"
)

// rosterConcurrency bounds the user lookups of a roster.
const rosterConcurrency = 8

// EnrollmentServiceImpl implements the EnrollmentService interface.
type EnrollmentServiceImpl struct {
	repo        *Repository
	enrollments *Collection
	users       *Collection
	courses     *Collection
	identity    secondary.IdentityProvider
}

// NewEnrollmentService creates a new EnrollmentService with injected dependencies.
func NewEnrollmentService(repo *Repository, identity secondary.IdentityProvider) *EnrollmentServiceImpl {
	return &EnrollmentServiceImpl{
		repo:        repo,
		enrollments: repo.Collection(schema.KindEnrollment),
		users:       repo.Collection(schema.KindUser),
		courses:     repo.Collection(schema.KindCourse),
		identity:    identity,
	}
}

// Enroll enrolls a user in a course. Both the user and the course must exist
// before anything is written. Enrolling twice returns the existing enrollment.
func (s *EnrollmentServiceImpl) Enroll(ctx context.Context, req primary.EnrollRequest) (*schema.Enrollment, error) {
	userID := req.UserID
	if userID == "" {
		who, err := s.identity.CurrentIdentity(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve current user: %w", err)
		}
		userID = who.UserID
	}
	if userID == "" || req.CourseID == "" {
		return nil, &ValidationError{Kind: schema.KindEnrollment, Errors: []string{"userId and courseId are required"}}
	}

	userRec, err := s.users.FetchByID(ctx, "", userID)
	if err != nil {
		return nil, err
	}
	if userRec == nil {
		return nil, &NotFoundError{Kind: schema.KindUser, Path: s.users.Path(userID)}
	}
	course, err := s.courses.FetchByID(ctx, "", req.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, &NotFoundError{Kind: schema.KindCourse, Path: s.courses.Path(req.CourseID)}
	}

	existing, err := s.GetEnrollment(ctx, userID, req.CourseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	rec := s.repo.Standardizer().Standardize(schema.KindEnrollment, schema.Record{
		"userId":   userID,
		"courseId": req.CourseID,
		"status":   req.Status,
	})
	if res := schema.Validate(schema.KindEnrollment, rec); !res.IsValid {
		return nil, &ValidationError{Kind: schema.KindEnrollment, Errors: res.Errors}
	}
	enrollment, err := decode[schema.Enrollment](rec)
	if err != nil {
		return nil, err
	}
	if err := s.repo.writeEnrollment(ctx, *enrollment); err != nil {
		return nil, err
	}

	user, err := decode[schema.User](userRec)
	if err != nil {
		return nil, err
	}
	err = s.repo.updateStudentEnrollments(ctx, userID, user.Role == schema.RoleStudent, func(list []string) ([]string, bool) {
		return schema.AppendUnique(list, req.CourseID)
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// GetEnrollment retrieves an enrollment from the by-user index.
func (s *EnrollmentServiceImpl) GetEnrollment(ctx context.Context, userID, courseID string) (*schema.Enrollment, error) {
	rec, err := s.enrollments.FetchByID(ctx, tree.Join(schema.EnrollmentsByUser, userID), courseID)
	if err != nil || rec == nil {
		return nil, err
	}
	return decode[schema.Enrollment](rec)
}

// ListByUser retrieves the enrollments of a user.
func (s *EnrollmentServiceImpl) ListByUser(ctx context.Context, userID string) ([]*schema.Enrollment, error) {
	records, err := s.enrollments.FetchAll(ctx, tree.Join(schema.EnrollmentsByUser, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments of user %s: %w", userID, err)
	}
	return decodeAll[schema.Enrollment](records)
}

// ListByCourse retrieves the enrollments of a course.
func (s *EnrollmentServiceImpl) ListByCourse(ctx context.Context, courseID string) ([]*schema.Enrollment, error) {
	records, err := s.enrollments.FetchAll(ctx, tree.Join(schema.EnrollmentsByCourse, courseID))
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments of course %s: %w", courseID, err)
	}
	return decodeAll[schema.Enrollment](records)
}

// UpdateStatus changes the status of an enrollment on both index copies.
func (s *EnrollmentServiceImpl) UpdateStatus(ctx context.Context, userID, courseID, status string) (*schema.Enrollment, error) {
	// The standardizer would default an empty status to active.
	if strings.TrimSpace(status) == "" {
		return nil, &ValidationError{Kind: schema.KindEnrollment, Errors: []string{"status is required"}}
	}
	existing, err := s.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		byCourse, _ := s.repo.enrollmentPaths(userID, courseID)
		return nil, &NotFoundError{Kind: schema.KindEnrollment, Path: byCourse}
	}

	changed := schema.ToRecord(existing)
	changed["status"] = status
	rec := s.repo.Standardizer().Standardize(schema.KindEnrollment, changed)
	if res := schema.Validate(schema.KindEnrollment, rec); !res.IsValid {
		return nil, &ValidationError{Kind: schema.KindEnrollment, Errors: res.Errors}
	}
	updated, err := decode[schema.Enrollment](rec)
	if err != nil {
		return nil, err
	}
	if err := s.repo.writeEnrollment(ctx, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Unenroll removes both index copies and the student satellite entry.
func (s *EnrollmentServiceImpl) Unenroll(ctx context.Context, userID, courseID string) error {
	byCourse, byUser := s.repo.enrollmentPaths(userID, courseID)
	existing, err := s.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if existing == nil {
		other, err := s.repo.readNode(ctx, byCourse)
		if err != nil {
			return err
		}
		if other == nil {
			return &NotFoundError{Kind: schema.KindEnrollment, Path: byCourse}
		}
	}

	for _, path := range []string{byCourse, byUser} {
		if err := s.repo.Store().Delete(ctx, path); err != nil {
			return fmt.Errorf("failed to delete enrollment at %s: %w", path, err)
		}
	}
	return s.repo.updateStudentEnrollments(ctx, userID, false, func(list []string) ([]string, bool) {
		return schema.Remove(list, courseID)
	})
}

// Roster resolves the enrolled users of a course.
func (s *EnrollmentServiceImpl) Roster(ctx context.Context, courseID string) ([]*primary.RosterEntry, error) {
	enrollments, err := s.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	entries := make([]*primary.RosterEntry, len(enrollments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rosterConcurrency)
	for i, e := range enrollments {
		i, e := i, e
		g.Go(func() error {
			rec, err := s.users.FetchByID(gctx, "", e.UserID)
			if err != nil {
				return err
			}
			entry := &primary.RosterEntry{Enrollment: e}
			if rec != nil {
				if entry.User, err = decode[schema.User](rec); err != nil {
					return err
				}
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve roster of course %s: %w", courseID, err)
	}
	return entries, nil
}

// Ensure EnrollmentServiceImpl implements the interface
var _ primary.EnrollmentService = (*EnrollmentServiceImpl)(nil)
