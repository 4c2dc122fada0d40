package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"agrocert/internal/platform/config"
	"agrocert/internal/registry/metrics"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

const defaultSearchLimit = 50

// VerificationCache stores verification results for a short TTL so bursts of
// lookups for the same GGN do not each cost a registry round-trip.
type VerificationCache interface {
	Get(ctx context.Context, ggn id.GGN) (*CertificateInfo, bool)
	Set(ctx context.Context, info *CertificateInfo)
}

// Client talks to the external certification registry. All operations pass
// through one shared token bucket and a bounded retry policy. GGN format is
// validated before any network call.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	bucket     *tokenBucket
	maxRetries int
	cache      VerificationCache
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type Option func(*Client)

// WithCache attaches a verification cache.
func WithCache(cache VerificationCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(cfg config.RegistryConfig, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		bucket:     newTokenBucket(cfg.Rate, cfg.Period),
		maxRetries: cfg.MaxRetries,
		metrics:    m,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify looks up the certificate behind a GGN. Malformed GGNs fail fast
// without a network call.
func (c *Client) Verify(ctx context.Context, ggn id.GGN) (*CertificateInfo, error) {
	parsed, err := id.ParseGGN(ggn.String())
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if info, ok := c.cache.Get(ctx, parsed); ok {
			c.metrics.CacheHits.Inc()
			return info, nil
		}
		c.metrics.CacheMisses.Inc()
	}

	info, err := request[CertificateInfo](ctx, c, "verify", "/certificates/"+parsed.String(), nil, parsed)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(ctx, info)
	}
	return info, nil
}

// GetStatus returns only the registry-side status for a GGN.
func (c *Client) GetStatus(ctx context.Context, ggn id.GGN) (CertStatus, error) {
	parsed, err := id.ParseGGN(ggn.String())
	if err != nil {
		return "", err
	}
	type statusResponse struct {
		Status CertStatus `json:"status"`
	}
	resp, err := request[statusResponse](ctx, c, "get_status", "/certificates/"+parsed.String()+"/status", nil, parsed)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// SearchProducers runs a free-text producer search with optional country and
// category filters. The result list is bounded by filters.Limit.
func (c *Client) SearchProducers(ctx context.Context, query string, filters SearchFilters) ([]Producer, error) {
	if query == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "search query is required").WithField("query")
	}
	limit := filters.Limit
	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	if filters.Country != "" {
		params.Set("country", filters.Country)
	}
	if filters.Category != "" {
		params.Set("category", filters.Category)
	}

	type searchResponse struct {
		Producers []Producer `json:"producers"`
	}
	resp, err := request[searchResponse](ctx, c, "search_producers", "/producers/search", params, "")
	if err != nil {
		return nil, err
	}
	return resp.Producers, nil
}

// request runs one rate-limited, retried GET and decodes the JSON body.
func request[T any](ctx context.Context, c *Client, operation, path string, params url.Values, ggn id.GGN) (*T, error) {
	start := time.Now()
	attempt := 0
	out, err := withRetry(ctx, c.maxRetries, func(ctx context.Context) (*T, error) {
		attempt++
		if attempt > 1 {
			c.metrics.Retries.Inc()
		}
		waitStart := time.Now()
		if err := c.bucket.Wait(ctx); err != nil {
			return nil, err
		}
		c.metrics.RateLimitWait.Observe(time.Since(waitStart).Seconds())
		return doGet[T](ctx, c, path, params, ggn)
	})
	outcome := "success"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
		c.logger.WarnContext(ctx, "registry request failed",
			"operation", operation,
			"attempts", attempt,
			"error", err,
		)
	}
	c.metrics.ObserveRequest(operation, outcome, time.Since(start))
	return out, err
}

func doGet[T any](ctx context.Context, c *Client, path string, params url.Values, ggn id.GGN) (*T, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build registry request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, errRequestTimeout(err)
		}
		return nil, errTransport(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, errCertificateNotFound(ggn.String())
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errAuthentication()
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRateLimited(parseRetryAfter(resp.Header.Get("Retry-After")))
	default:
		return nil, errRegistry(resp.StatusCode)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("decode registry response from %s", path))
	}
	return &out, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
