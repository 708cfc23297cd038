package app

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/logger"
)

type courseFixture struct {
	repo    *Repository
	users   *UserServiceImpl
	courses *CourseServiceImpl
	modules *ModuleServiceImpl
}

func newCourseFixture(t *testing.T) *courseFixture {
	t.Helper()
	repo := newTestRepository(t, nil)
	return &courseFixture{
		repo:    repo,
		users:   NewUserService(repo),
		courses: NewCourseService(repo, logger.NewNop()),
		modules: NewModuleService(repo),
	}
}

func instructorCourses(t *testing.T, repo *Repository, instructorID string) []string {
	t.Helper()
	inst, err := readAs[schema.Instructor](context.Background(), repo, "lms/instructors/"+instructorID)
	if err != nil || inst == nil {
		t.Fatalf("instructor %s: %v, %v", instructorID, inst, err)
	}
	return inst.Courses
}

// ============================================================================
// CreateCourse Tests
// ============================================================================

func TestCreateCourse_AttachesInstructor(t *testing.T) {
	f := newCourseFixture(t)
	author := mustCreateUser(t, f.users, schema.Record{"email": "t@example.com", "role": "instructor"})

	course := mustCreateCourse(t, f.courses, schema.Record{
		"titre": "Go", "description": "Bases", "formateur": author.ID, "niveau": "avancé",
	})
	if course.Level != schema.LevelAdvanced || course.InstructorID != author.ID {
		t.Errorf("unexpected course: %+v", course)
	}
	if got := instructorCourses(t, f.repo, author.ID); !reflect.DeepEqual(got, []string{course.ID}) {
		t.Errorf("instructor courses = %v", got)
	}

	// Updating without changing the instructor must not duplicate the entry.
	if _, err := f.courses.UpdateCourse(context.Background(), course.ID, schema.Record{"prix": 12}); err != nil {
		t.Fatalf("UpdateCourse() error: %v", err)
	}
	if got := instructorCourses(t, f.repo, author.ID); len(got) != 1 {
		t.Errorf("instructor courses = %v", got)
	}
}

func TestUpdateCourse_InstructorHandOver(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	a := mustCreateUser(t, f.users, schema.Record{"email": "a@example.com", "role": "instructor"})
	b := mustCreateUser(t, f.users, schema.Record{"email": "b@example.com", "role": "instructor"})
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases", "instructorId": a.ID})

	if _, err := f.courses.UpdateCourse(ctx, course.ID, schema.Record{"instructorId": b.ID}); err != nil {
		t.Fatalf("UpdateCourse() error: %v", err)
	}
	if got := instructorCourses(t, f.repo, a.ID); len(got) != 0 {
		t.Errorf("previous instructor still holds %v", got)
	}
	if got := instructorCourses(t, f.repo, b.ID); !reflect.DeepEqual(got, []string{course.ID}) {
		t.Errorf("new instructor courses = %v", got)
	}
}

// ============================================================================
// DeleteCourse Tests
// ============================================================================

func TestDeleteCourse_ReportsOrphans(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	author := mustCreateUser(t, f.users, schema.Record{"email": "t@example.com", "role": "instructor"})
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases", "instructorId": author.ID})
	mod, err := f.modules.CreateModule(ctx, schema.Record{"courseId": course.ID, "title": "Intro"})
	if err != nil {
		t.Fatalf("CreateModule() error: %v", err)
	}

	resp, err := f.courses.DeleteCourse(ctx, course.ID)
	if err != nil {
		t.Fatalf("DeleteCourse() error: %v", err)
	}
	if !reflect.DeepEqual(resp.OrphanModules, []string{mod.ID}) {
		t.Errorf("orphans = %v, want [%s]", resp.OrphanModules, mod.ID)
	}
	if got, _ := f.modules.GetModule(ctx, mod.ID); got == nil {
		t.Error("module should survive course deletion")
	}
	if got := instructorCourses(t, f.repo, author.ID); len(got) != 0 {
		t.Errorf("course still attached to instructor: %v", got)
	}
}

func TestDeleteCourse_NotFound(t *testing.T) {
	f := newCourseFixture(t)
	_, err := f.courses.DeleteCourse(context.Background(), "ghost")

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

// ============================================================================
// Module Tests
// ============================================================================

func TestCreateModule_OrderAndMembership(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases"})

	first, err := f.modules.CreateModule(ctx, schema.Record{"formation": course.ID, "titre": "A"})
	if err != nil {
		t.Fatalf("CreateModule() error: %v", err)
	}
	second, _ := f.modules.CreateModule(ctx, schema.Record{"courseId": course.ID, "title": "B", "order": 5})
	third, _ := f.modules.CreateModule(ctx, schema.Record{"courseId": course.ID, "title": "C"})

	if first.Order != 1 || second.Order != 5 || third.Order != 6 {
		t.Errorf("orders = %d, %d, %d", first.Order, second.Order, third.Order)
	}

	got, _ := f.courses.GetCourse(ctx, course.ID)
	for _, m := range []*schema.Module{first, second, third} {
		if !got.Modules[m.ID] {
			t.Errorf("membership lacks %s: %v", m.ID, got.Modules)
		}
	}

	list, _ := f.modules.ListModules(ctx, course.ID)
	if len(list) != 3 || list[0].ID != first.ID || list[2].ID != third.ID {
		t.Errorf("ListModules order wrong: %v", list)
	}
}

func TestCreateModule_CourseMustExist(t *testing.T) {
	f := newCourseFixture(t)
	_, err := f.modules.CreateModule(context.Background(), schema.Record{"courseId": "ghost", "title": "A"})

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestModule_MoveAndDelete(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	c1 := mustCreateCourse(t, f.courses, schema.Record{"title": "One", "description": "1"})
	c2 := mustCreateCourse(t, f.courses, schema.Record{"title": "Two", "description": "2"})
	mod, _ := f.modules.CreateModule(ctx, schema.Record{"courseId": c1.ID, "title": "A"})

	if _, err := f.modules.UpdateModule(ctx, mod.ID, schema.Record{"courseId": c2.ID}); err != nil {
		t.Fatalf("UpdateModule() error: %v", err)
	}
	one, _ := f.courses.GetCourse(ctx, c1.ID)
	two, _ := f.courses.GetCourse(ctx, c2.ID)
	if one.Modules[mod.ID] || !two.Modules[mod.ID] {
		t.Errorf("membership not moved: %v / %v", one.Modules, two.Modules)
	}

	if err := f.modules.DeleteModule(ctx, mod.ID); err != nil {
		t.Fatalf("DeleteModule() error: %v", err)
	}
	two, _ = f.courses.GetCourse(ctx, c2.ID)
	if two.Modules[mod.ID] {
		t.Error("membership should be removed with the module")
	}
	if got, _ := f.modules.GetModule(ctx, mod.ID); got != nil {
		t.Error("module should be deleted")
	}
}

func TestUpdateModule_LegacyCourseFieldMovesMembership(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	c1 := mustCreateCourse(t, f.courses, schema.Record{"title": "One", "description": "1"})
	c2 := mustCreateCourse(t, f.courses, schema.Record{"title": "Two", "description": "2"})
	mod, _ := f.modules.CreateModule(ctx, schema.Record{"courseId": c1.ID, "title": "A"})

	moved, err := f.modules.UpdateModule(ctx, mod.ID, schema.Record{"formation": c2.ID})
	if err != nil {
		t.Fatalf("UpdateModule() error: %v", err)
	}
	if moved.CourseID != c2.ID {
		t.Errorf("courseId = %q, want %q", moved.CourseID, c2.ID)
	}
	one, _ := f.courses.GetCourse(ctx, c1.ID)
	two, _ := f.courses.GetCourse(ctx, c2.ID)
	if one.Modules[mod.ID] || !two.Modules[mod.ID] {
		t.Errorf("membership not moved: %v / %v", one.Modules, two.Modules)
	}

	if _, err := f.modules.UpdateModule(ctx, mod.ID, schema.Record{"formation": "ghost"}); err == nil {
		t.Error("moving to a missing course should fail")
	}
	if got, _ := f.modules.GetModule(ctx, mod.ID); got.CourseID != c2.ID {
		t.Errorf("failed move changed courseId to %q", got.CourseID)
	}
}

// ============================================================================
// Evaluation Tests
// ============================================================================

func TestEvaluationService(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	evals := NewEvaluationService(f.repo)
	course := mustCreateCourse(t, f.courses, schema.Record{"title": "Go", "description": "Bases"})
	mod, _ := f.modules.CreateModule(ctx, schema.Record{"courseId": course.ID, "title": "A"})

	if _, err := evals.CreateEvaluation(ctx, schema.Record{"moduleId": "ghost", "title": "Q"}); err == nil {
		t.Error("expected error for a missing module")
	}
	_, err := evals.CreateEvaluation(ctx, schema.Record{"moduleId": mod.ID, "title": "Q", "noteMax": 10, "seuil": 12})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("passing score above max should be rejected, got %v", err)
	}

	quiz, err := evals.CreateEvaluation(ctx, schema.Record{"module": mod.ID, "titre": "Quiz", "type": "qcm", "noteMax": 20, "seuil": 10})
	if err != nil {
		t.Fatalf("CreateEvaluation() error: %v", err)
	}
	if quiz.Type != schema.EvaluationQuiz || quiz.MaxScore != 20 {
		t.Errorf("unexpected evaluation: %+v", quiz)
	}

	updated, err := evals.UpdateEvaluation(ctx, mod.ID, quiz.ID, schema.Record{"title": "Quiz 2"})
	if err != nil || updated.Title != "Quiz 2" {
		t.Fatalf("UpdateEvaluation() = %+v, %v", updated, err)
	}
	for _, key := range []string{"moduleId", "module"} {
		if _, err := evals.UpdateEvaluation(ctx, mod.ID, quiz.ID, schema.Record{key: "other"}); err == nil {
			t.Errorf("moving an evaluation between modules via %s should fail", key)
		}
	}
	if got, _ := evals.GetEvaluation(ctx, mod.ID, quiz.ID); got == nil || got.ModuleID != mod.ID {
		t.Errorf("evaluation after rejected move = %+v", got)
	}

	list, _ := evals.ListEvaluations(ctx, mod.ID)
	if len(list) != 1 {
		t.Errorf("expected 1 evaluation, got %d", len(list))
	}
	if err := evals.DeleteEvaluation(ctx, mod.ID, quiz.ID); err != nil {
		t.Fatalf("DeleteEvaluation() error: %v", err)
	}
}
