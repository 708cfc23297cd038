package primary

import (
	"context"

	"github.com/example/lms/internal/core/schema"
)

// EvaluationService defines the primary port for module evaluations.
type EvaluationService interface {
	ListEvaluations(ctx context.Context, moduleID string) ([]*schema.Evaluation, error)
	GetEvaluation(ctx context.Context, moduleID, evaluationID string) (*schema.Evaluation, error)
	CreateEvaluation(ctx context.Context, data schema.Record) (*schema.Evaluation, error)
	UpdateEvaluation(ctx context.Context, moduleID, evaluationID string, changes schema.Record) (*schema.Evaluation, error)
	DeleteEvaluation(ctx context.Context, moduleID, evaluationID string) error
}
