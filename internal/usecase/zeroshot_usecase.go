package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/egmaziero/ktrain/internal/domain/service"
	"github.com/egmaziero/ktrain/internal/infrastructure/metrics"
	"github.com/egmaziero/ktrain/internal/ml/zeroshot"
)

// ZeroShotInput represents a zero-shot topic classification request.
type ZeroShotInput struct {
	Document      string   `json:"document" binding:"required"`
	Topics        []string `json:"topics" binding:"required,min=1,dive,required"`
	IncludeLabels bool     `json:"include_labels"`
	BatchSize     int      `json:"batch_size" binding:"omitempty,min=1"`
}

// ZeroShotOutput represents topic scores in request order.
type ZeroShotOutput struct {
	Model  string                `json:"model"`
	Scores []zeroshot.TopicScore `json:"scores"`
	Cached bool                  `json:"cached"`
}

// ZeroShotUsecase defines the interface for zero-shot classification.
type ZeroShotUsecase interface {
	Classify(ctx context.Context, input *ZeroShotInput) (*ZeroShotOutput, error)
}

type zeroShotUsecase struct {
	scorer    service.TopicScorer
	cache     service.ScoreCache
	batchSize int
	logger    *zap.Logger
}

// NewZeroShotUsecase creates a new zero-shot usecase. A nil scorer makes
// every request fail with ErrZeroShotUnavailable; a nil cache disables
// caching.
func NewZeroShotUsecase(scorer service.TopicScorer, cache service.ScoreCache, batchSize int, logger *zap.Logger) ZeroShotUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize < 1 {
		batchSize = zeroshot.DefaultBatchSize
	}
	return &zeroShotUsecase{
		scorer:    scorer,
		cache:     cache,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (u *zeroShotUsecase) Classify(ctx context.Context, input *ZeroShotInput) (*ZeroShotOutput, error) {
	if u.scorer == nil {
		return nil, ErrZeroShotUnavailable
	}

	query := service.ScoreQuery{
		Model:    u.scorer.Model(),
		Template: u.scorer.Template(),
		Document: input.Document,
		Topics:   input.Topics,
	}

	if u.cache == nil {
		metrics.ZeroShotRequestsTotal.WithLabelValues(metrics.CacheDisabled).Inc()
	} else if scores, ok := u.cache.Get(ctx, query); ok && len(scores) == len(input.Topics) {
		metrics.ZeroShotRequestsTotal.WithLabelValues(metrics.CacheHit).Inc()
		return u.output(scores, input.IncludeLabels, true), nil
	} else {
		metrics.ZeroShotRequestsTotal.WithLabelValues(metrics.CacheMiss).Inc()
	}

	batchSize := input.BatchSize
	if batchSize == 0 {
		batchSize = u.batchSize
	}
	scores, err := u.scorer.Predict(ctx, input.Document, input.Topics, zeroshot.PredictOptions{
		BatchSize:     batchSize,
		IncludeLabels: true,
	})
	if err != nil {
		if errors.Is(err, zeroshot.ErrNoTopics) || errors.Is(err, zeroshot.ErrInvalidBatchSize) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		u.logger.Error("Zero-shot inference failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrZeroShotUnavailable, err)
	}

	if u.cache != nil {
		u.cache.Set(ctx, query, scores)
	}
	return u.output(scores, input.IncludeLabels, false), nil
}

func (u *zeroShotUsecase) output(scores []zeroshot.TopicScore, includeLabels, cached bool) *ZeroShotOutput {
	out := make([]zeroshot.TopicScore, len(scores))
	copy(out, scores)
	if !includeLabels {
		for i := range out {
			out[i].Topic = ""
		}
	}
	return &ZeroShotOutput{Model: u.scorer.Model(), Scores: out, Cached: cached}
}
