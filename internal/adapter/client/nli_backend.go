package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/egmaziero/ktrain/internal/ml/zeroshot"
)

// NLIBackend adapts NLIClient to zeroshot.Backend.
type NLIBackend struct {
	client *NLIClient
}

// NewNLIBackend creates a new NLIBackend.
func NewNLIBackend(client *NLIClient) zeroshot.Backend {
	return &NLIBackend{client: client}
}

// Load asks the inference service to load model.
func (b *NLIBackend) Load(ctx context.Context, model string) error {
	return b.client.LoadModel(ctx, model)
}

// Logits runs inference for one batch of pairs.
func (b *NLIBackend) Logits(ctx context.Context, model string, pairs []zeroshot.Pair) (*zeroshot.Logits, error) {
	resp, err := b.client.Infer(ctx, model, pairs, uuid.NewString())
	if err != nil {
		return nil, err
	}
	if len(resp.Logits) != len(pairs) {
		return nil, fmt.Errorf("NLI service returned %d logit rows for %d pairs", len(resp.Logits), len(pairs))
	}
	return &zeroshot.Logits{Values: resp.Logits, Labels: resp.Labels}, nil
}
