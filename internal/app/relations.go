package app

import (
	"context"
	"fmt"
	"math"

	"github.com/example/lms/internal/core/progress"
	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
)

// Relation upkeep shared by the entity services and the engines. Every helper is
// idempotent so an engine run can replay it.

func (r *Repository) satellitePath(role, userID string) string {
	return r.Path(schema.SatelliteCollection(role), userID)
}

// ensureSatellite creates the role satellite of a user when it is missing.
func (r *Repository) ensureSatellite(ctx context.Context, role, userID string) error {
	collection := schema.SatelliteCollection(role)
	if collection == "" || userID == "" {
		return nil
	}
	existing, err := r.readNode(ctx, r.satellitePath(role, userID))
	if err != nil || existing != nil {
		return err
	}

	var satellite any
	switch role {
	case schema.RoleStudent:
		satellite = schema.Student{UserID: userID, Enrollments: []string{}}
	case schema.RoleInstructor:
		satellite = schema.Instructor{UserID: userID, Expertise: []string{}, Courses: []string{}}
	case schema.RoleAdmin:
		satellite = schema.Admin{UserID: userID, Permissions: []string{}}
	}
	if err := r.store.Write(ctx, r.satellitePath(role, userID), satellite); err != nil {
		return fmt.Errorf("failed to create %s satellite for %s: %w", role, userID, err)
	}
	return nil
}

func (r *Repository) dropSatellite(ctx context.Context, role, userID string) error {
	if schema.SatelliteCollection(role) == "" || userID == "" {
		return nil
	}
	if err := r.store.Delete(ctx, r.satellitePath(role, userID)); err != nil {
		return fmt.Errorf("failed to delete %s satellite for %s: %w", role, userID, err)
	}
	return nil
}

// updateInstructor applies fn to the instructor satellite, creating it first when missing.
func (r *Repository) updateInstructor(ctx context.Context, userID string, fn func(*schema.Instructor) bool) error {
	if err := r.ensureSatellite(ctx, schema.RoleInstructor, userID); err != nil {
		return err
	}
	path := r.satellitePath(schema.RoleInstructor, userID)
	inst, err := readAs[schema.Instructor](ctx, r, path)
	if err != nil {
		return err
	}
	inst.UserID = userID
	if inst.Courses == nil {
		inst.Courses = []string{}
	}
	if inst.Expertise == nil {
		inst.Expertise = []string{}
	}
	if !fn(inst) {
		return nil
	}
	if err := r.store.Write(ctx, path, inst); err != nil {
		return fmt.Errorf("failed to update instructor %s: %w", userID, err)
	}
	return nil
}

// attachCourse appends courseID to the instructor's courses.
func (r *Repository) attachCourse(ctx context.Context, instructorID, courseID string) error {
	if instructorID == "" {
		return nil
	}
	return r.updateInstructor(ctx, instructorID, func(inst *schema.Instructor) bool {
		var added bool
		inst.Courses, added = schema.AppendUnique(inst.Courses, courseID)
		return added
	})
}

// detachCourse removes courseID from the instructor's courses if the satellite exists.
func (r *Repository) detachCourse(ctx context.Context, instructorID, courseID string) error {
	if instructorID == "" {
		return nil
	}
	path := r.satellitePath(schema.RoleInstructor, instructorID)
	inst, err := readAs[schema.Instructor](ctx, r, path)
	if err != nil || inst == nil {
		return err
	}
	courses, removed := schema.Remove(inst.Courses, courseID)
	if !removed {
		return nil
	}
	if err := r.store.Write(ctx, tree.Join(path, "courses"), courses); err != nil {
		return fmt.Errorf("failed to detach course %s from %s: %w", courseID, instructorID, err)
	}
	return nil
}

// updateStudentEnrollments edits the enrollments list of an existing student satellite.
// When create is set a missing satellite is created first.
func (r *Repository) updateStudentEnrollments(ctx context.Context, userID string, create bool, fn func([]string) ([]string, bool)) error {
	path := r.satellitePath(schema.RoleStudent, userID)
	if create {
		if err := r.ensureSatellite(ctx, schema.RoleStudent, userID); err != nil {
			return err
		}
	}
	student, err := readAs[schema.Student](ctx, r, path)
	if err != nil || student == nil {
		return err
	}
	list, changed := fn(student.Enrollments)
	if !changed {
		return nil
	}
	if list == nil {
		list = []string{}
	}
	if err := r.store.Write(ctx, tree.Join(path, "enrollments"), list); err != nil {
		return fmt.Errorf("failed to update enrollments of student %s: %w", userID, err)
	}
	return nil
}

func (r *Repository) enrollmentPaths(userID, courseID string) (byCourse, byUser string) {
	base := r.Path(schema.CollectionEnrollments)
	return tree.Join(base, schema.EnrollmentsByCourse, courseID, userID),
		tree.Join(base, schema.EnrollmentsByUser, userID, courseID)
}

// writeEnrollment writes the same record to both enrollment indexes.
func (r *Repository) writeEnrollment(ctx context.Context, e schema.Enrollment) error {
	byCourse, byUser := r.enrollmentPaths(e.UserID, e.CourseID)
	rec := schema.ToRecord(e)
	if err := r.store.Write(ctx, byCourse, rec); err != nil {
		return fmt.Errorf("failed to write enrollment %s/%s: %w", e.CourseID, e.UserID, err)
	}
	if err := r.store.Write(ctx, byUser, rec); err != nil {
		return fmt.Errorf("failed to write enrollment %s/%s: %w", e.UserID, e.CourseID, err)
	}
	return nil
}

// liftEnrollment writes an enrollment to whichever index lacks it, keeping
// existing copies untouched, and registers it on the student satellite.
// It reports whether anything was written.
func (r *Repository) liftEnrollment(ctx context.Context, e schema.Enrollment, enrollStudent bool) (bool, error) {
	written := false
	rec := schema.ToRecord(e)
	byCourse, byUser := r.enrollmentPaths(e.UserID, e.CourseID)
	for _, path := range []string{byCourse, byUser} {
		existing, err := r.readNode(ctx, path)
		if err != nil {
			return false, err
		}
		if existing != nil {
			continue
		}
		if err := r.store.Write(ctx, path, rec); err != nil {
			return false, fmt.Errorf("failed to write enrollment at %s: %w", path, err)
		}
		written = true
	}
	if enrollStudent {
		err := r.updateStudentEnrollments(ctx, e.UserID, false, func(list []string) ([]string, bool) {
			return schema.AppendUnique(list, e.CourseID)
		})
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// registerModule adds moduleID to the membership map of the course.
func (r *Repository) registerModule(ctx context.Context, courseID, moduleID string) error {
	if err := r.store.Write(ctx, r.Path(schema.CollectionCourses, courseID, "modules", moduleID), true); err != nil {
		return fmt.Errorf("failed to register module %s on course %s: %w", moduleID, courseID, err)
	}
	return nil
}

func (r *Repository) unregisterModule(ctx context.Context, courseID, moduleID string) error {
	if err := r.store.Delete(ctx, r.Path(schema.CollectionCourses, courseID, "modules", moduleID)); err != nil {
		return fmt.Errorf("failed to unregister module %s from course %s: %w", moduleID, courseID, err)
	}
	return nil
}

// refreshCourseRating recomputes rating and totalRatings of a course from its feedback.
func (r *Repository) refreshCourseRating(ctx context.Context, courseID string) error {
	coursePath := r.Path(schema.CollectionCourses, courseID)
	course, err := r.readNode(ctx, coursePath)
	if err != nil || course == nil {
		return err
	}
	entries, err := r.Collection(schema.KindFeedback).FetchAll(ctx, courseID)
	if err != nil {
		return err
	}

	var sum float64
	for _, rec := range entries {
		n, _ := tree.Number(rec["rating"])
		sum += n
	}
	rating := 0.0
	if len(entries) > 0 {
		rating = math.Round(sum/float64(len(entries))*100) / 100
	}
	if err := r.store.Merge(ctx, coursePath, map[string]any{
		"rating":       rating,
		"totalRatings": len(entries),
	}); err != nil {
		return fmt.Errorf("failed to update rating of course %s: %w", courseID, err)
	}
	return nil
}

// loadProgress reads and standardizes the progress node of (userID, courseID).
// Flattened legacy module entries are folded into Modules.
func (r *Repository) loadProgress(ctx context.Context, userID, courseID string) (*schema.Progress, error) {
	raw, err := r.readNode(ctx, r.Path(schema.CollectionProgress, userID, courseID))
	if err != nil || raw == nil {
		return nil, err
	}
	p := r.standardizer.Progress(raw)
	if p.UserID == "" {
		p.UserID = userID
	}
	if p.CourseID == "" {
		p.CourseID = courseID
	}
	return &p, nil
}

// recalculateProgress rewrites the progress node with derived fields recomputed
// and flattened siblings removed.
func (r *Repository) recalculateProgress(ctx context.Context, p schema.Progress, now string) (*schema.Progress, error) {
	out := progress.Recalculate(p, now)
	if err := r.store.Write(ctx, r.Path(schema.CollectionProgress, out.UserID, out.CourseID), out); err != nil {
		return nil, fmt.Errorf("failed to write progress %s/%s: %w", out.UserID, out.CourseID, err)
	}
	return &out, nil
}

// refreshStudentProgress recomputes the progress summary of an existing student satellite.
func (r *Repository) refreshStudentProgress(ctx context.Context, userID string) error {
	path := r.satellitePath(schema.RoleStudent, userID)
	student, err := r.readNode(ctx, path)
	if err != nil || student == nil {
		return err
	}
	nodes, err := r.Collection(schema.KindProgress).FetchAll(ctx, userID)
	if err != nil {
		return err
	}
	all := make([]schema.Progress, 0, len(nodes))
	for _, raw := range nodes {
		all = append(all, r.standardizer.Progress(raw))
	}
	if err := r.store.Write(ctx, tree.Join(path, "progress"), progress.Summarize(all)); err != nil {
		return fmt.Errorf("failed to update progress summary of student %s: %w", userID, err)
	}
	return nil
}
