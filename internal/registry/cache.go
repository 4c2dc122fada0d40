package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "agrocert/internal/platform/redis"
	id "agrocert/pkg/domain"
)

// RedisCache is a TTL-bound verification cache. Cache failures degrade to a
// registry round-trip and are never surfaced to the caller.
type RedisCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, ggn id.GGN) (*CertificateInfo, bool) {
	raw, err := c.client.Get(ctx, cacheKey(ggn)).Bytes()
	if err != nil {
		return nil, false
	}
	var info CertificateInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		c.logger.WarnContext(ctx, "discarding corrupt cached verification", "ggn", ggn.String(), "error", err)
		c.client.Del(ctx, cacheKey(ggn))
		return nil, false
	}
	return &info, true
}

func (c *RedisCache) Set(ctx context.Context, info *CertificateInfo) {
	raw, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(info.GGN), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "verification cache write failed", "ggn", info.GGN.String(), "error", err)
	}
}

func cacheKey(ggn id.GGN) string {
	return "registry:verify:" + ggn.String()
}
