// Package redis owns the connection used as the registry verification cache.
// The workload is read-mostly lookups of small JSON values, so timeouts stay
// short: a slow cache must cost less than the registry round-trip it avoids.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agrocert/internal/platform/config"
)

// Fallbacks for zero config values, sized for the verification cache.
const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultDialTimeout  = 2 * time.Second
	defaultOpTimeout    = 500 * time.Millisecond
)

type Client struct {
	*redis.Client
}

// New connects using the configured URL, verifying the connection with a
// bounded ping. Returns nil when the URL is empty, which disables caching.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyCacheDefaults(opts, cfg)

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

func applyCacheDefaults(opts *redis.Options, cfg config.RedisConfig) {
	opts.PoolSize = orInt(cfg.PoolSize, defaultPoolSize)
	opts.MinIdleConns = orInt(cfg.MinIdleConns, defaultMinIdleConns)
	opts.DialTimeout = orDuration(cfg.DialTimeout, defaultDialTimeout)
	opts.ReadTimeout = orDuration(cfg.ReadTimeout, defaultOpTimeout)
	opts.WriteTimeout = orDuration(cfg.WriteTimeout, defaultOpTimeout)
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func orDuration(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}

// Health reports whether the cache connection is usable.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
