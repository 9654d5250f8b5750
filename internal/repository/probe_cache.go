package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/drive-backup-api/internal/models"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

const probeKeyPrefix = "probe:"

// ProbeCache memoises per-owner inventory counts between cycles so repeated
// projections do not re-list unchanged suspended drives. A nil client
// degrades to a pass-through.
type ProbeCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewProbeCache constructs the cache wrapper.
func NewProbeCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProbeCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &ProbeCache{client: client, ttl: ttl, logger: logger}
}

// Get retrieves a cached count for the owner.
func (c *ProbeCache) Get(ctx context.Context, owner string) (models.PoolCount, error) {
	if c == nil || c.client == nil {
		return models.PoolCount{}, appErrors.ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, probeKeyPrefix+models.NormalizeEmail(owner)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return models.PoolCount{}, appErrors.ErrCacheMiss
		}
		return models.PoolCount{}, fmt.Errorf("redis get probe %s: %w", owner, err)
	}

	var count models.PoolCount
	if err := json.Unmarshal(raw, &count); err != nil {
		return models.PoolCount{}, fmt.Errorf("unmarshal probe for %s: %w", owner, err)
	}
	return count, nil
}

// Set stores a probe result with the configured TTL. Failures are logged and
// swallowed: caching is an optimisation, never a correctness dependency.
func (c *ProbeCache) Set(ctx context.Context, owner string, count models.PoolCount) {
	if c == nil || c.client == nil {
		return
	}

	payload, err := json.Marshal(count)
	if err != nil {
		c.logger.Warn("marshal probe cache value", zap.String("owner", owner), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, probeKeyPrefix+models.NormalizeEmail(owner), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set probe", zap.String("owner", owner), zap.Error(err))
	}
}

// Invalidate drops the cached probe for an owner, used after a copy completes.
func (c *ProbeCache) Invalidate(ctx context.Context, owner string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, probeKeyPrefix+models.NormalizeEmail(owner)).Err(); err != nil {
		c.logger.Warn("redis delete probe", zap.String("owner", owner), zap.Error(err))
	}
}
