// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a development default; production deploys
// override via env.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all service configuration.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Registry RegistryConfig
	Kafka    KafkaConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr string
}

// PostgresConfig captures the persistence connection. An empty DSN means the
// in-memory stores are used instead.
type PostgresConfig struct {
	DSN string
}

// RedisConfig captures the registry verification cache connection. An empty
// URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RegistryConfig tunes the external certification registry client.
type RegistryConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     int
	// Rate and Period define the shared token bucket: Rate calls per Period.
	Rate   int
	Period time.Duration
	// BatchConcurrency bounds in-flight verifications per batch.
	BatchConcurrency int
	CacheTTL         time.Duration
}

// KafkaConfig captures the domain event transport. Empty brokers disable
// publishing (events become no-ops).
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr: envOr("AGROCERT_ADDR", ":8080"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("AGROCERT_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("AGROCERT_REDIS_URL"),
			PoolSize:     envIntOr("AGROCERT_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("AGROCERT_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDurationOr("AGROCERT_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("AGROCERT_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("AGROCERT_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Registry: RegistryConfig{
			BaseURL:          envOr("GLOBALGAP_REGISTRY_URL", "https://registry.globalgap.example"),
			APIKey:           os.Getenv("GLOBALGAP_REGISTRY_API_KEY"),
			RequestTimeout:   envDurationOr("GLOBALGAP_REQUEST_TIMEOUT", 10*time.Second),
			MaxRetries:       envIntOr("GLOBALGAP_MAX_RETRIES", 3),
			Rate:             envIntOr("GLOBALGAP_RATE_LIMIT", 10),
			Period:           envDurationOr("GLOBALGAP_RATE_PERIOD", time.Second),
			BatchConcurrency: envIntOr("GLOBALGAP_BATCH_CONCURRENCY", 5),
			CacheTTL:         envDurationOr("GLOBALGAP_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("AGROCERT_KAFKA_BROKERS")),
			Topic:   envOr("AGROCERT_KAFKA_TOPIC", "agrocert.domain-events"),
		},
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
