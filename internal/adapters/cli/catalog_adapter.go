package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ports/primary"
)

// CatalogAdapter translates CLI operations on courses, modules and evaluations.
type CatalogAdapter struct {
	courses     primary.CourseService
	modules     primary.ModuleService
	evaluations primary.EvaluationService
	out         io.Writer
}

// NewCatalogAdapter creates a new CatalogAdapter with the given services.
func NewCatalogAdapter(courses primary.CourseService, modules primary.ModuleService, evaluations primary.EvaluationService, out io.Writer) *CatalogAdapter {
	return &CatalogAdapter{
		courses:     courses,
		modules:     modules,
		evaluations: evaluations,
		out:         out,
	}
}

// CreateCourse creates a course.
func (a *CatalogAdapter) CreateCourse(ctx context.Context, data schema.Record) error {
	course, err := a.courses.CreateCourse(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created course %s: %s\n", course.ID, course.Title)
	return nil
}

// ListCourses lists every course.
func (a *CatalogAdapter) ListCourses(ctx context.Context) error {
	courses, err := a.courses.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}
	if len(courses) == 0 {
		fmt.Fprintln(a.out, "No courses found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-13s %8s %7s %s\n", "ID", "LEVEL", "PRICE", "RATING", "TITLE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────────")
	for _, c := range courses {
		fmt.Fprintf(a.out, "%-36s %-13s %8.2f %7.2f %s\n", c.ID, c.Level, c.Price, c.Rating, c.Title)
	}
	fmt.Fprintln(a.out)
	return nil
}

// ShowCourse displays a course with its modules in order.
func (a *CatalogAdapter) ShowCourse(ctx context.Context, courseID string) error {
	course, err := a.courses.GetCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return fmt.Errorf("course %s not found", courseID)
	}

	fmt.Fprintf(a.out, "\nCourse:     %s\n", course.ID)
	fmt.Fprintf(a.out, "Title:      %s\n", course.Title)
	if course.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", course.Description)
	}
	fmt.Fprintf(a.out, "Level:      %s\n", course.Level)
	fmt.Fprintf(a.out, "Price:      %.2f\n", course.Price)
	fmt.Fprintf(a.out, "Rating:     %.2f (%d ratings)\n", course.Rating, course.TotalRatings)
	if course.InstructorID != "" {
		fmt.Fprintf(a.out, "Instructor: %s\n", course.InstructorID)
	}

	modules, err := a.modules.ListModules(ctx, courseID)
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}
	if len(modules) > 0 {
		fmt.Fprintln(a.out, "\nModules:")
		for _, m := range modules {
			marker := ""
			if m.Placeholder {
				marker = " (placeholder)"
			}
			fmt.Fprintf(a.out, "  %3d. %s [%s]%s\n", m.Order, m.Title, m.ID, marker)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

// UpdateCourse merges changes into a course.
func (a *CatalogAdapter) UpdateCourse(ctx context.Context, courseID string, changes schema.Record) error {
	if len(changes) == 0 {
		return fmt.Errorf("nothing to update")
	}
	if _, err := a.courses.UpdateCourse(ctx, courseID, changes); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Course %s updated\n", courseID)
	return nil
}

// DeleteCourse deletes a course and reports the modules it leaves behind.
func (a *CatalogAdapter) DeleteCourse(ctx context.Context, courseID string) error {
	resp, err := a.courses.DeleteCourse(ctx, courseID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Deleted course %s\n", resp.CourseID)
	if len(resp.OrphanModules) > 0 {
		fmt.Fprintf(a.out, "  %d orphan module(s) left in place: %v\n", len(resp.OrphanModules), resp.OrphanModules)
	}
	return nil
}

// CreateModule creates a module.
func (a *CatalogAdapter) CreateModule(ctx context.Context, data schema.Record) error {
	module, err := a.modules.CreateModule(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created module %s (#%d in %s): %s\n", module.ID, module.Order, module.CourseID, module.Title)
	return nil
}

// UpdateModule merges changes into a module.
func (a *CatalogAdapter) UpdateModule(ctx context.Context, moduleID string, changes schema.Record) error {
	if len(changes) == 0 {
		return fmt.Errorf("nothing to update")
	}
	if _, err := a.modules.UpdateModule(ctx, moduleID, changes); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Module %s updated\n", moduleID)
	return nil
}

// DeleteModule deletes a module.
func (a *CatalogAdapter) DeleteModule(ctx context.Context, moduleID string) error {
	if err := a.modules.DeleteModule(ctx, moduleID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Deleted module %s\n", moduleID)
	return nil
}

// CreateEvaluation creates an evaluation.
func (a *CatalogAdapter) CreateEvaluation(ctx context.Context, data schema.Record) error {
	e, err := a.evaluations.CreateEvaluation(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Created %s %s in module %s: %s\n", e.Type, e.ID, e.ModuleID, e.Title)
	return nil
}

// ListEvaluations lists the evaluations of a module.
func (a *CatalogAdapter) ListEvaluations(ctx context.Context, moduleID string) error {
	evaluations, err := a.evaluations.ListEvaluations(ctx, moduleID)
	if err != nil {
		return fmt.Errorf("failed to list evaluations: %w", err)
	}
	if len(evaluations) == 0 {
		fmt.Fprintln(a.out, "No evaluations found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-10s %9s %s\n", "ID", "TYPE", "PASS/MAX", "TITLE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────")
	for _, e := range evaluations {
		fmt.Fprintf(a.out, "%-36s %-10s %9s %s\n", e.ID, e.Type, fmt.Sprintf("%g/%g", e.PassingScore, e.MaxScore), e.Title)
	}
	fmt.Fprintln(a.out)
	return nil
}

// DeleteEvaluation deletes an evaluation.
func (a *CatalogAdapter) DeleteEvaluation(ctx context.Context, moduleID, evaluationID string) error {
	if err := a.evaluations.DeleteEvaluation(ctx, moduleID, evaluationID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Deleted evaluation %s\n", evaluationID)
	return nil
}
