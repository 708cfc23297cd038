package app

import (
	"context"
	"fmt"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ports/primary"
)

// ModuleServiceImpl implements the ModuleService interface.
type ModuleServiceImpl struct {
	repo    *Repository
	modules *Collection
	courses *Collection
}

// NewModuleService creates a new ModuleService with injected dependencies.
func NewModuleService(repo *Repository) *ModuleServiceImpl {
	return &ModuleServiceImpl{
		repo:    repo,
		modules: repo.Collection(schema.KindModule),
		courses: repo.Collection(schema.KindCourse),
	}
}

// ListModules retrieves the modules of a course in display order.
func (s *ModuleServiceImpl) ListModules(ctx context.Context, courseID string) ([]*schema.Module, error) {
	records, err := s.modules.FetchAll(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	var modules []schema.Module
	for _, rec := range records {
		m, err := decode[schema.Module](rec)
		if err != nil {
			return nil, err
		}
		if m.CourseID == courseID {
			modules = append(modules, *m)
		}
	}
	schema.SortModules(modules)

	out := make([]*schema.Module, len(modules))
	for i := range modules {
		out[i] = &modules[i]
	}
	return out, nil
}

// GetModule retrieves a module by ID.
func (s *ModuleServiceImpl) GetModule(ctx context.Context, moduleID string) (*schema.Module, error) {
	rec, err := s.modules.FetchByID(ctx, "", moduleID)
	if err != nil || rec == nil {
		return nil, err
	}
	return decode[schema.Module](rec)
}

// CreateModule creates a module in an existing course. An order of 0 takes the
// next free position.
func (s *ModuleServiceImpl) CreateModule(ctx context.Context, data schema.Record) (*schema.Module, error) {
	draft := s.repo.Standardizer().Module(data)
	if err := s.requireCourse(ctx, draft.CourseID); err != nil {
		return nil, err
	}

	data = copyRecord(data)
	if draft.Order <= 0 {
		next, err := s.nextOrder(ctx, draft.CourseID)
		if err != nil {
			return nil, err
		}
		data["order"] = next
	}

	id, err := s.modules.Create(ctx, "", data)
	if err != nil {
		return nil, err
	}
	if err := s.repo.registerModule(ctx, draft.CourseID, id); err != nil {
		return nil, err
	}
	return s.GetModule(ctx, id)
}

// UpdateModule merges changes into a module. Moving it to another course moves
// the membership too.
func (s *ModuleServiceImpl) UpdateModule(ctx context.Context, moduleID string, changes schema.Record) (*schema.Module, error) {
	before, err := s.GetModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, &NotFoundError{Kind: schema.KindModule, Path: s.modules.Path(moduleID)}
	}

	merged := mergeChanges(schema.KindModule, schema.ToRecord(before), changes)
	target := s.repo.Standardizer().Module(merged).CourseID
	if target != before.CourseID {
		if err := s.requireCourse(ctx, target); err != nil {
			return nil, err
		}
	}

	if _, err := s.modules.Update(ctx, "", moduleID, changes); err != nil {
		return nil, err
	}
	if target != before.CourseID {
		if err := s.repo.unregisterModule(ctx, before.CourseID, moduleID); err != nil {
			return nil, err
		}
		if err := s.repo.registerModule(ctx, target, moduleID); err != nil {
			return nil, err
		}
	}
	return s.GetModule(ctx, moduleID)
}

// DeleteModule detaches a module from its course, then deletes it.
func (s *ModuleServiceImpl) DeleteModule(ctx context.Context, moduleID string) error {
	module, err := s.GetModule(ctx, moduleID)
	if err != nil {
		return err
	}
	if module == nil {
		return &NotFoundError{Kind: schema.KindModule, Path: s.modules.Path(moduleID)}
	}
	if module.CourseID != "" {
		if err := s.repo.unregisterModule(ctx, module.CourseID, moduleID); err != nil {
			return err
		}
	}
	_, err = s.modules.Delete(ctx, "", moduleID)
	return err
}

func (s *ModuleServiceImpl) requireCourse(ctx context.Context, courseID string) error {
	if courseID == "" {
		return &ValidationError{Kind: schema.KindModule, Errors: []string{"courseId is required"}}
	}
	course, err := s.courses.FetchByID(ctx, "", courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return &NotFoundError{Kind: schema.KindCourse, Path: s.courses.Path(courseID)}
	}
	return nil
}

func (s *ModuleServiceImpl) nextOrder(ctx context.Context, courseID string) (int, error) {
	modules, err := s.ListModules(ctx, courseID)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, m := range modules {
		if m.Order >= next {
			next = m.Order + 1
		}
	}
	return next, nil
}

// Ensure ModuleServiceImpl implements the interface
var _ primary.ModuleService = (*ModuleServiceImpl)(nil)
