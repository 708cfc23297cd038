package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ports/primary"
)

// LearningAdapter translates CLI operations on enrollments, progress and feedback.
type LearningAdapter struct {
	enrollments primary.EnrollmentService
	progress    primary.ProgressService
	feedback    primary.FeedbackService
	out         io.Writer
}

// NewLearningAdapter creates a new LearningAdapter with the given services.
func NewLearningAdapter(enrollments primary.EnrollmentService, progress primary.ProgressService, feedback primary.FeedbackService, out io.Writer) *LearningAdapter {
	return &LearningAdapter{
		enrollments: enrollments,
		progress:    progress,
		feedback:    feedback,
		out:         out,
	}
}

// Enroll enrolls a user in a course.
func (a *LearningAdapter) Enroll(ctx context.Context, userID, courseID, status string) error {
	e, err := a.enrollments.Enroll(ctx, primary.EnrollRequest{UserID: userID, CourseID: courseID, Status: status})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s enrolled in %s (%s)\n", e.UserID, e.CourseID, e.Status)
	return nil
}

// SetStatus changes the status of an enrollment.
func (a *LearningAdapter) SetStatus(ctx context.Context, userID, courseID, status string) error {
	e, err := a.enrollments.UpdateStatus(ctx, userID, courseID, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Enrollment %s/%s is now %s\n", e.UserID, e.CourseID, e.Status)
	return nil
}

// Unenroll removes an enrollment.
func (a *LearningAdapter) Unenroll(ctx context.Context, userID, courseID string) error {
	if err := a.enrollments.Unenroll(ctx, userID, courseID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s unenrolled from %s\n", userID, courseID)
	return nil
}

// ListEnrollments lists the enrollments of a user or of a course.
func (a *LearningAdapter) ListEnrollments(ctx context.Context, userID, courseID string) error {
	var (
		list []*schema.Enrollment
		err  error
	)
	switch {
	case userID != "":
		list, err = a.enrollments.ListByUser(ctx, userID)
	case courseID != "":
		list, err = a.enrollments.ListByCourse(ctx, courseID)
	default:
		return fmt.Errorf("must specify --user or --course")
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No enrollments found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-36s %-10s %s\n", "USER", "COURSE", "STATUS", "ENROLLED")
	fmt.Fprintln(a.out, "──────────────────────────────────────────────────────────────────────────────────────────────────────")
	for _, e := range list {
		fmt.Fprintf(a.out, "%-36s %-36s %-10s %s\n", e.UserID, e.CourseID, e.Status, e.EnrolledAt)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Roster prints the enrolled users of a course.
func (a *LearningAdapter) Roster(ctx context.Context, courseID string) error {
	entries, err := a.enrollments.Roster(ctx, courseID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No enrollments found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-10s %-30s %s\n", "USER", "STATUS", "EMAIL", "NAME")
	fmt.Fprintln(a.out, "──────────────────────────────────────────────────────────────────────────────────────────")
	for _, entry := range entries {
		email, name := "(missing user)", ""
		if entry.User != nil {
			email, name = entry.User.Email, entry.User.FullName()
		}
		fmt.Fprintf(a.out, "%-36s %-10s %-30s %s\n", entry.Enrollment.UserID, entry.Enrollment.Status, email, name)
	}
	fmt.Fprintln(a.out)
	return nil
}

// RecordModule records the result of one module and prints the recalculated progress.
func (a *LearningAdapter) RecordModule(ctx context.Context, req primary.ModuleProgressRequest) error {
	p, err := a.progress.UpdateModuleProgress(ctx, req)
	if err != nil {
		return err
	}
	a.printProgress(p)
	return nil
}

// ShowProgress prints the progress of a user, for one course or all of them.
func (a *LearningAdapter) ShowProgress(ctx context.Context, userID, courseID string, recalculate bool) error {
	if courseID == "" {
		nodes, err := a.progress.ListProgress(ctx, userID)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			fmt.Fprintln(a.out, "No progress recorded")
			return nil
		}
		for _, p := range nodes {
			a.printProgress(p)
		}
		return nil
	}

	var (
		p   *schema.Progress
		err error
	)
	if recalculate {
		p, err = a.progress.RecalculateCourseProgress(ctx, userID, courseID)
	} else {
		p, err = a.progress.GetProgress(ctx, userID, courseID)
	}
	if err != nil {
		return err
	}
	if p == nil {
		fmt.Fprintln(a.out, "No progress recorded")
		return nil
	}
	a.printProgress(p)
	return nil
}

func (a *LearningAdapter) printProgress(p *schema.Progress) {
	state := "in progress"
	if p.Completed {
		state = "completed"
	}
	fmt.Fprintf(a.out, "%s / %s: %.0f%% %s, %d/%d modules, score %.2f\n",
		p.UserID, p.CourseID, p.Progress, state, p.Details.CompletedModules, p.Details.TotalModules, p.Score)
}

// SubmitFeedback stores a rating for a course.
func (a *LearningAdapter) SubmitFeedback(ctx context.Context, data schema.Record) error {
	f, err := a.feedback.SubmitFeedback(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Feedback %s recorded for %s (%g/5)\n", f.ID, f.CourseID, f.Rating)
	return nil
}

// ListFeedback lists the feedback of a course.
func (a *LearningAdapter) ListFeedback(ctx context.Context, courseID string) error {
	list, err := a.feedback.ListFeedback(ctx, courseID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No feedback found")
		return nil
	}
	for _, f := range list {
		fmt.Fprintf(a.out, "%g/5  %-36s %s\n", f.Rating, f.UserID, f.Comment)
	}
	return nil
}
