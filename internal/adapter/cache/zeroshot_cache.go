// Package cache stores zero-shot scores in Redis so repeated queries skip
// NLI inference.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/egmaziero/ktrain/internal/domain/service"
	"github.com/egmaziero/ktrain/internal/ml/zeroshot"
)

const keyPrefix = "ktrain:zeroshot:"

// ZeroShotCache caches zero-shot scores keyed by model, template, document
// and topics. Redis failures are logged and treated as misses.
type ZeroShotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewZeroShotCache creates a cache. A nil client yields a cache that
// always misses.
func NewZeroShotCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ZeroShotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZeroShotCache{client: client, ttl: ttl, logger: logger}
}

// NewScoreCache is NewZeroShotCache behind the service.ScoreCache port.
func NewScoreCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) service.ScoreCache {
	return NewZeroShotCache(client, ttl, logger)
}

// Key derives the cache key for a query.
func Key(q service.ScoreQuery) string {
	h := sha256.New()
	for _, part := range append([]string{q.Model, q.Template, q.Document}, q.Topics...) {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns cached scores and whether they were found.
func (c *ZeroShotCache) Get(ctx context.Context, q service.ScoreQuery) ([]zeroshot.TopicScore, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	key := Key(q)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("zero-shot cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var scores []zeroshot.TopicScore
	if err := json.Unmarshal(raw, &scores); err != nil {
		c.logger.Warn("zero-shot cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return scores, true
}

// Set stores scores for q with the configured TTL.
func (c *ZeroShotCache) Set(ctx context.Context, q service.ScoreQuery, scores []zeroshot.TopicScore) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		c.logger.Warn("zero-shot cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, Key(q), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("zero-shot cache write failed", zap.Error(err))
	}
}
