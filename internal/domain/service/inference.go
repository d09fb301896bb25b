package service

import (
	"context"

	"github.com/egmaziero/ktrain/internal/ml/zeroshot"
)

// InferenceStatus is the health report of the NLI inference service.
type InferenceStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Model       string `json:"model"`
}

// InferenceChecker reports on the NLI inference service.
type InferenceChecker interface {
	// Health returns the service status.
	Health(ctx context.Context) (*InferenceStatus, error)

	// Ready returns nil once the service can take requests.
	Ready(ctx context.Context) error
}

// TopicScorer scores a document against candidate topics.
type TopicScorer interface {
	// Predict returns one entailment probability per topic, in topic order.
	Predict(ctx context.Context, doc string, topics []string, opts zeroshot.PredictOptions) ([]zeroshot.TopicScore, error)

	// Model returns the NLI model name.
	Model() string

	// Template returns the hypothesis template.
	Template() string
}

// ScoreQuery identifies a zero-shot result.
type ScoreQuery struct {
	Model    string
	Template string
	Document string
	Topics   []string
}

// ScoreCache stores zero-shot results. Implementations treat failures as misses.
type ScoreCache interface {
	Get(ctx context.Context, q ScoreQuery) ([]zeroshot.TopicScore, bool)
	Set(ctx context.Context, q ScoreQuery, scores []zeroshot.TopicScore)
}
