package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/logger"
	"github.com/example/lms/internal/ports/primary"
	"github.com/example/lms/internal/ports/secondary"
)

type enrollmentFixture struct {
	repo        *Repository
	users       *UserServiceImpl
	courses     *CourseServiceImpl
	enrollments *EnrollmentServiceImpl
	identity    *mockIdentityProvider
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	t.Helper()
	repo := newTestRepository(t, nil)
	identity := &mockIdentityProvider{}
	return &enrollmentFixture{
		repo:        repo,
		users:       NewUserService(repo),
		courses:     NewCourseService(repo, logger.NewNop()),
		enrollments: NewEnrollmentService(repo, identity),
		identity:    identity,
	}
}

func studentEnrollments(t *testing.T, repo *Repository, userID string) []string {
	t.Helper()
	student, err := readAs[schema.Student](context.Background(), repo, "lms/students/"+userID)
	if err != nil || student == nil {
		t.Fatalf("student %s: %v, %v", userID, student, err)
	}
	return student.Enrollments
}

// ============================================================================
// Enroll Tests
// ============================================================================

func TestEnroll_WritesBothIndexes(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	student := mustCreateUser(t, f.users, schema.Record{"email": "s@example.com"})
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases"})

	e, err := f.enrollments.Enroll(ctx, primary.EnrollRequest{UserID: student.ID, CourseID: course.ID, Status: "en pause"})
	if err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}
	if e.Status != schema.StatusPaused || e.EnrolledAt != testTimestamp {
		t.Errorf("unexpected enrollment: %+v", e)
	}

	byCourse := readPath(t, f.repo.Store(), fmt.Sprintf("lms/enrollments/byCourse/%s/%s", course.ID, student.ID))
	byUser := readPath(t, f.repo.Store(), fmt.Sprintf("lms/enrollments/byUser/%s/%s", student.ID, course.ID))
	if byCourse == nil || !reflect.DeepEqual(byCourse, byUser) {
		t.Errorf("index copies differ: %v vs %v", byCourse, byUser)
	}
	if got := studentEnrollments(t, f.repo, student.ID); !reflect.DeepEqual(got, []string{course.ID}) {
		t.Errorf("student enrollments = %v", got)
	}

	// Enrolling again is a no-op.
	again, err := f.enrollments.Enroll(ctx, primary.EnrollRequest{UserID: student.ID, CourseID: course.ID})
	if err != nil || again.Status != schema.StatusPaused {
		t.Errorf("second Enroll() = %+v, %v", again, err)
	}
	if got := studentEnrollments(t, f.repo, student.ID); len(got) != 1 {
		t.Errorf("student enrollments duplicated: %v", got)
	}
}

func TestEnroll_DefaultsToCurrentIdentity(t *testing.T) {
	f := newEnrollmentFixture(t)
	student := mustCreateUser(t, f.users, schema.Record{"email": "s@example.com"})
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases"})
	f.identity.identity = secondary.Identity{UserID: student.ID}

	e, err := f.enrollments.Enroll(context.Background(), primary.EnrollRequest{CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}
	if e.UserID != student.ID {
		t.Errorf("userId = %q, want %q", e.UserID, student.ID)
	}
}

func TestEnroll_MissingEntitiesWriteNothing(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	student := mustCreateUser(t, f.users, schema.Record{"email": "s@example.com"})
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases"})

	tests := []struct {
		name string
		req  primary.EnrollRequest
	}{
		{"missing user", primary.EnrollRequest{UserID: "ghost", CourseID: course.ID}},
		{"missing course", primary.EnrollRequest{UserID: student.ID, CourseID: "ghost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.enrollments.Enroll(ctx, tt.req)
			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
			if v := readPath(t, f.repo.Store(), "lms/enrollments"); v != nil {
				t.Errorf("nothing should be written, got %v", v)
			}
		})
	}
}

// ============================================================================
// UpdateStatus / Unenroll / Roster Tests
// ============================================================================

func TestUpdateStatus_KeepsIndexesSymmetric(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	student := mustCreateUser(t, f.users, schema.Record{"email": "s@example.com"})
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases"})
	if _, err := f.enrollments.Enroll(ctx, primary.EnrollRequest{UserID: student.ID, CourseID: course.ID}); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}

	e, err := f.enrollments.UpdateStatus(ctx, student.ID, course.ID, "terminé")
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if e.Status != schema.StatusCompleted {
		t.Errorf("status = %q", e.Status)
	}
	byCourse, _ := f.enrollments.ListByCourse(ctx, course.ID)
	byUser, _ := f.enrollments.ListByUser(ctx, student.ID)
	if len(byCourse) != 1 || len(byUser) != 1 || !reflect.DeepEqual(byCourse[0], byUser[0]) {
		t.Errorf("indexes differ: %+v vs %+v", byCourse, byUser)
	}

	_, err = f.enrollments.UpdateStatus(ctx, student.ID, course.ID, "archived")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	_, err = f.enrollments.UpdateStatus(ctx, "ghost", course.ID, "active")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateStatus_RejectsEmptyStatus(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	student := mustCreateUser(t, f.users, schema.Record{"email": "s@example.com"})
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases"})
	if _, err := f.enrollments.Enroll(ctx, primary.EnrollRequest{UserID: student.ID, CourseID: course.ID, Status: "paused"}); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}

	for _, status := range []string{"", "   "} {
		_, err := f.enrollments.UpdateStatus(ctx, student.ID, course.ID, status)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("UpdateStatus(%q) error = %v, want ValidationError", status, err)
		}
	}

	byCourse, _ := f.enrollments.ListByCourse(ctx, course.ID)
	byUser, _ := f.enrollments.ListByUser(ctx, student.ID)
	if len(byCourse) != 1 || len(byUser) != 1 {
		t.Fatalf("enrollments = %+v / %+v", byCourse, byUser)
	}
	if byCourse[0].Status != schema.StatusPaused || byUser[0].Status != schema.StatusPaused {
		t.Errorf("status changed: %q / %q", byCourse[0].Status, byUser[0].Status)
	}
}

func TestUnenroll(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	student := mustCreateUser(t, f.users, schema.Record{"email": "s@example.com"})
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases"})
	if _, err := f.enrollments.Enroll(ctx, primary.EnrollRequest{UserID: student.ID, CourseID: course.ID}); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}

	if err := f.enrollments.Unenroll(ctx, student.ID, course.ID); err != nil {
		t.Fatalf("Unenroll() error: %v", err)
	}
	if v := readPath(t, f.repo.Store(), "lms/enrollments"); v != nil {
		t.Errorf("index copies left behind: %v", v)
	}
	if got := studentEnrollments(t, f.repo, student.ID); len(got) != 0 {
		t.Errorf("student enrollments = %v", got)
	}
	if err := f.enrollments.Unenroll(ctx, student.ID, course.ID); err == nil {
		t.Error("expected error unenrolling twice")
	}
}

func TestRoster(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases"})

	var ids []string
	for i := 0; i < 12; i++ {
		u := mustCreateUser(t, f.users, schema.Record{"email": fmt.Sprintf("s%d@example.com", i)})
		if _, err := f.enrollments.Enroll(ctx, primary.EnrollRequest{UserID: u.ID, CourseID: course.ID}); err != nil {
			t.Fatalf("Enroll() error: %v", err)
		}
		ids = append(ids, u.ID)
	}
	// A dangling enrollment whose user has been deleted.
	if err := f.users.DeleteUser(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteUser() error: %v", err)
	}

	roster, err := f.enrollments.Roster(ctx, course.ID)
	if err != nil {
		t.Fatalf("Roster() error: %v", err)
	}
	if len(roster) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(roster))
	}
	missing := 0
	for _, entry := range roster {
		if entry.User == nil {
			missing++
			continue
		}
		if entry.User.ID != entry.Enrollment.UserID {
			t.Errorf("entry mismatch: %+v / %+v", entry.User, entry.Enrollment)
		}
	}
	if missing != 1 {
		t.Errorf("expected 1 unresolved user, got %d", missing)
	}
}
