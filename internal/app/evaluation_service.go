package app

import (
	"context"
	"fmt"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ports/primary"
)

// EvaluationServiceImpl implements the EvaluationService interface.
// Evaluations are stored per module under evaluations/{moduleId}/{id}.
type EvaluationServiceImpl struct {
	repo        *Repository
	evaluations *Collection
	modules     *Collection
}

// NewEvaluationService creates a new EvaluationService with injected dependencies.
func NewEvaluationService(repo *Repository) *EvaluationServiceImpl {
	return &EvaluationServiceImpl{
		repo:        repo,
		evaluations: repo.Collection(schema.KindEvaluation),
		modules:     repo.Collection(schema.KindModule),
	}
}

// ListEvaluations retrieves the evaluations of a module.
func (s *EvaluationServiceImpl) ListEvaluations(ctx context.Context, moduleID string) ([]*schema.Evaluation, error) {
	records, err := s.evaluations.FetchAll(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return decodeAll[schema.Evaluation](records)
}

// GetEvaluation retrieves an evaluation by module and ID.
func (s *EvaluationServiceImpl) GetEvaluation(ctx context.Context, moduleID, evaluationID string) (*schema.Evaluation, error) {
	rec, err := s.evaluations.FetchByID(ctx, moduleID, evaluationID)
	if err != nil || rec == nil {
		return nil, err
	}
	return decode[schema.Evaluation](rec)
}

// CreateEvaluation creates an evaluation under an existing module.
func (s *EvaluationServiceImpl) CreateEvaluation(ctx context.Context, data schema.Record) (*schema.Evaluation, error) {
	moduleID := s.repo.Standardizer().Evaluation(data).ModuleID
	if moduleID == "" {
		return nil, &ValidationError{Kind: schema.KindEvaluation, Errors: []string{"moduleId is required"}}
	}
	module, err := s.modules.FetchByID(ctx, "", moduleID)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, &NotFoundError{Kind: schema.KindModule, Path: s.modules.Path(moduleID)}
	}

	id, err := s.evaluations.Create(ctx, moduleID, data)
	if err != nil {
		return nil, err
	}
	return s.GetEvaluation(ctx, moduleID, id)
}

// UpdateEvaluation merges changes into an evaluation. Evaluations cannot move between modules.
func (s *EvaluationServiceImpl) UpdateEvaluation(ctx context.Context, moduleID, evaluationID string, changes schema.Record) (*schema.Evaluation, error) {
	merged := mergeChanges(schema.KindEvaluation, schema.Record{"moduleId": moduleID}, changes)
	if target := s.repo.Standardizer().Evaluation(merged).ModuleID; target != moduleID {
		return nil, fmt.Errorf("evaluation %s cannot move from module %s to %q", evaluationID, moduleID, target)
	}
	if _, err := s.evaluations.Update(ctx, moduleID, evaluationID, changes); err != nil {
		return nil, err
	}
	return s.GetEvaluation(ctx, moduleID, evaluationID)
}

// DeleteEvaluation deletes an evaluation.
func (s *EvaluationServiceImpl) DeleteEvaluation(ctx context.Context, moduleID, evaluationID string) error {
	_, err := s.evaluations.Delete(ctx, moduleID, evaluationID)
	return err
}

// Ensure EvaluationServiceImpl implements the interface
var _ primary.EvaluationService = (*EvaluationServiceImpl)(nil)
