// Package gormrepo implements the domain repositories on gorm, so the same
// code serves the postgres and sqlite drivers.
package gormrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/egmaziero/ktrain/internal/domain/entity"
	"github.com/egmaziero/ktrain/internal/domain/repository"
)

type modelRepository struct {
	db *gorm.DB
}

// NewModelRepository creates a new model repository.
func NewModelRepository(db *gorm.DB) repository.ModelRepository {
	return &modelRepository{db: db}
}

func (r *modelRepository) Create(ctx context.Context, model *entity.TrainedModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *modelRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.TrainedModel, error) {
	var model entity.TrainedModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &model, nil
}

func (r *modelRepository) List(ctx context.Context, limit, offset int) ([]*entity.TrainedModel, int64, error) {
	var models []*entity.TrainedModel
	var total int64

	if err := r.db.WithContext(ctx).Model(&entity.TrainedModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Omit("artifact").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	return models, total, nil
}

func (r *modelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.TrainedModel{}, "id = ?", id).Error
}

func (r *modelRepository) UpdateEvaluation(ctx context.Context, id uuid.UUID, accuracy float64) error {
	return r.db.WithContext(ctx).
		Model(&entity.TrainedModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"accuracy":  accuracy,
			"evaluated": true,
		}).Error
}
