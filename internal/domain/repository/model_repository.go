package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/egmaziero/ktrain/internal/domain/entity"
)

// ModelRepository defines the interface for model registry operations.
type ModelRepository interface {
	// Create stores a new trained model.
	Create(ctx context.Context, model *entity.TrainedModel) error

	// GetByID retrieves a model with its artifact. It returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.TrainedModel, error)

	// List retrieves model metadata with pagination, newest first.
	List(ctx context.Context, limit, offset int) ([]*entity.TrainedModel, int64, error)

	// Delete deletes a model by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateEvaluation stores a held-out accuracy for a model.
	UpdateEvaluation(ctx context.Context, id uuid.UUID, accuracy float64) error
}
