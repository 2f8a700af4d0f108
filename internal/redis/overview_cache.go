package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"incubatorhub/internal/service/grant"
)

const overviewKey = "grants:portfolio:overview"

// OverviewCache keeps the cross-startup portfolio rollup in Redis between
// catalog writes. Cache problems degrade to a recompute, never to an error.
type OverviewCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewOverviewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *OverviewCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &OverviewCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *OverviewCache) GetOverview(ctx context.Context) (*grant.PortfolioOverview, bool) {
	data, err := c.client.Get(ctx, overviewKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("overview cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var overview grant.PortfolioOverview
	if err := json.Unmarshal(data, &overview); err != nil {
		c.logger.Warn("overview cache entry corrupt, dropping", zap.Error(err))
		c.InvalidateOverview(ctx)
		return nil, false
	}
	return &overview, true
}

func (c *OverviewCache) SetOverview(ctx context.Context, overview *grant.PortfolioOverview) {
	data, err := json.Marshal(overview)
	if err != nil {
		c.logger.Warn("overview cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, overviewKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("overview cache write failed", zap.Error(err))
	}
}

func (c *OverviewCache) InvalidateOverview(ctx context.Context) {
	if err := c.client.Del(ctx, overviewKey).Err(); err != nil {
		c.logger.Warn("overview cache invalidation failed", zap.Error(err))
	}
}
