// pkg/cache/params.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/store"
)

// ParamsKey is the cache key of the /get/param payload
var ParamsKey = Key("sensor_data", "params")

// ParamCache caches the distinct parameter listing. Failures are logged and
// treated as misses. A nil *ParamCache is a valid no-op cache.
type ParamCache struct {
	client Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewParamCache wraps a cache client
func NewParamCache(client Client, ttl time.Duration, logger *zap.Logger) *ParamCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParamCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached listing, if any
func (c *ParamCache) Get(ctx context.Context) (*store.Params, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, ParamsKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("Param cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var params store.Params
	if err := json.Unmarshal(data, &params); err != nil {
		c.logger.Warn("Discarding undecodable cached params", zap.Error(err))
		return nil, false
	}
	return &params, true
}

// Set stores the listing
func (c *ParamCache) Set(ctx context.Context, params *store.Params) {
	if c == nil || c.client == nil || params == nil {
		return
	}

	data, err := json.Marshal(params)
	if err != nil {
		c.logger.Warn("Failed to encode params for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, ParamsKey, data, c.ttl); err != nil {
		c.logger.Warn("Param cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached listing after new readings are stored
func (c *ParamCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Delete(ctx, ParamsKey); err != nil {
		c.logger.Warn("Param cache invalidation failed", zap.Error(err))
	}
}
