package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Retries         prometheus.Counter
	RateLimitWait   prometheus.Histogram
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agrocert_registry_requests_total",
			Help: "Total registry requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agrocert_registry_request_duration_seconds",
			Help:    "Registry request latency by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		Retries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agrocert_registry_retries_total",
			Help: "Total retried registry requests",
		}),
		RateLimitWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agrocert_registry_rate_limit_wait_seconds",
			Help:    "Time spent waiting for a rate limiter token",
			Buckets: prometheus.DefBuckets,
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agrocert_registry_cache_hits_total",
			Help: "Verification results served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agrocert_registry_cache_misses_total",
			Help: "Verification cache lookups that missed",
		}),
	}
}

func (m *Metrics) ObserveRequest(operation, outcome string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
