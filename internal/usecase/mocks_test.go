package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/egmaziero/ktrain/internal/domain/entity"
	"github.com/egmaziero/ktrain/internal/domain/service"
	"github.com/egmaziero/ktrain/internal/ml/zeroshot"
)

// MockModelRepository is a mock implementation of ModelRepository.
type MockModelRepository struct {
	mock.Mock
}

func (m *MockModelRepository) Create(ctx context.Context, model *entity.TrainedModel) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.TrainedModel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TrainedModel), args.Error(1)
}

func (m *MockModelRepository) List(ctx context.Context, limit, offset int) ([]*entity.TrainedModel, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.TrainedModel), args.Get(1).(int64), args.Error(2)
}

func (m *MockModelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockModelRepository) UpdateEvaluation(ctx context.Context, id uuid.UUID, accuracy float64) error {
	args := m.Called(ctx, id, accuracy)
	return args.Error(0)
}

// MockTopicScorer is a mock implementation of TopicScorer.
type MockTopicScorer struct {
	mock.Mock
}

func (m *MockTopicScorer) Predict(ctx context.Context, doc string, topics []string, opts zeroshot.PredictOptions) ([]zeroshot.TopicScore, error) {
	args := m.Called(ctx, doc, topics, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]zeroshot.TopicScore), args.Error(1)
}

func (m *MockTopicScorer) Model() string {
	return "facebook/bart-large-mnli"
}

func (m *MockTopicScorer) Template() string {
	return zeroshot.DefaultTemplate
}

// MockScoreCache is a mock implementation of ScoreCache.
type MockScoreCache struct {
	mock.Mock
}

func (m *MockScoreCache) Get(ctx context.Context, q service.ScoreQuery) ([]zeroshot.TopicScore, bool) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]zeroshot.TopicScore), args.Bool(1)
}

func (m *MockScoreCache) Set(ctx context.Context, q service.ScoreQuery, scores []zeroshot.TopicScore) {
	m.Called(ctx, q, scores)
}
