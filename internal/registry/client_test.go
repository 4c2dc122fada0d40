package registry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrocert/internal/platform/config"
	"agrocert/internal/registry/metrics"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// Shared across the package: prometheus collectors register once per process.
var testMetrics = metrics.New()

const (
	ggnOrchard  = "4063061891234"
	ggnVineyard = "4000000000017"
	ggnDairy    = "4000000000024"
)

func testConfig(baseURL string, maxRetries int) config.RegistryConfig {
	return config.RegistryConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		RequestTimeout: 2 * time.Second,
		MaxRetries:     maxRetries,
		Rate:           1000,
		Period:         time.Second,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(testConfig(server.URL, maxRetries), testMetrics, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	return client, server
}

func writeCertificate(t *testing.T, w http.ResponseWriter, ggn string) {
	t.Helper()
	err := json.NewEncoder(w).Encode(CertificateInfo{
		GGN:          id.GGN(ggn),
		Status:       CertStatusValid,
		ProducerName: "Finca El Roble",
		Country:      "ES",
		Standard:     "IFA v6",
		ValidUntil:   time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestClient_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("returns certificate info", func(t *testing.T) {
		var gotPath, gotAuth string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			writeCertificate(t, w, ggnOrchard)
		}, 1)

		info, err := client.Verify(ctx, ggnOrchard)
		require.NoError(t, err)
		assert.Equal(t, "/certificates/"+ggnOrchard, gotPath)
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, CertStatusValid, info.Status)
		assert.Equal(t, "Finca El Roble", info.ProducerName)
	})

	t.Run("malformed GGN fails fast without a network call", func(t *testing.T) {
		var hits atomic.Int64
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}, 3)

		_, err := client.Verify(ctx, "40630618912")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Zero(t, hits.Load())
	})

	t.Run("not found is never retried", func(t *testing.T) {
		var hits atomic.Int64
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}, 3)

		_, err := client.Verify(ctx, ggnOrchard)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.EqualValues(t, 1, hits.Load())
	})

	t.Run("authentication failure is never retried", func(t *testing.T) {
		var hits atomic.Int64
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}, 3)

		_, err := client.Verify(ctx, ggnOrchard)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.EqualValues(t, 1, hits.Load())
	})

	t.Run("server errors are retried up to the attempt budget", func(t *testing.T) {
		var hits atomic.Int64
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}, 2)

		_, err := client.Verify(ctx, ggnOrchard)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.EqualValues(t, 2, hits.Load())
	})

	t.Run("transient failure then success", func(t *testing.T) {
		var hits atomic.Int64
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			writeCertificate(t, w, ggnOrchard)
		}, 3)

		info, err := client.Verify(ctx, ggnOrchard)
		require.NoError(t, err)
		assert.Equal(t, id.GGN(ggnOrchard), info.GGN)
		assert.EqualValues(t, 2, hits.Load())
	})

	t.Run("rate limit response carries retry-after guidance", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		}, 1)

		_, err := client.Verify(ctx, ggnOrchard)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeRateLimited))
		assert.Equal(t, 7*time.Second, RetryAfter(err))
	})

	t.Run("errors carry a Spanish message", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}, 1)

		_, err := client.Verify(ctx, ggnOrchard)
		require.Error(t, err)
		var dErr *dErrors.Error
		require.ErrorAs(t, err, &dErr)
		assert.Contains(t, dErr.MessageIn("es"), "no encontrado")
	})
}

type fakeCache struct {
	entries map[id.GGN]*CertificateInfo
	hits    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[id.GGN]*CertificateInfo)}
}

func (c *fakeCache) Get(_ context.Context, ggn id.GGN) (*CertificateInfo, bool) {
	info, ok := c.entries[ggn]
	if ok {
		c.hits++
	}
	return info, ok
}

func (c *fakeCache) Set(_ context.Context, info *CertificateInfo) {
	c.sets++
	c.entries[info.GGN] = info
}

func TestClient_VerifyCache(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	var hits atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeCertificate(t, w, ggnOrchard)
	}, 1, WithCache(cache))

	first, err := client.Verify(ctx, ggnOrchard)
	require.NoError(t, err)
	second, err := client.Verify(ctx, ggnOrchard)
	require.NoError(t, err)

	assert.EqualValues(t, 1, hits.Load(), "second lookup should be served from cache")
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.GGN, second.GGN)
}

func TestClient_GetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the registry status", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/certificates/"+ggnOrchard+"/status", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "suspended"})
		}, 1)

		status, err := client.GetStatus(ctx, ggnOrchard)
		require.NoError(t, err)
		assert.Equal(t, CertStatusSuspended, status)
	})

	t.Run("validates the GGN first", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected network call")
		}, 1)

		_, err := client.GetStatus(ctx, "not-a-ggn")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestClient_SearchProducers(t *testing.T) {
	ctx := context.Background()

	t.Run("passes query and filters", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/producers/search", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "tomate", q.Get("q"))
			assert.Equal(t, "ES", q.Get("country"))
			assert.Equal(t, "fruit_vegetables", q.Get("category"))
			assert.Equal(t, "10", q.Get("limit"))
			_ = json.NewEncoder(w).Encode(map[string][]Producer{
				"producers": {
					{GGN: ggnOrchard, Name: "Finca El Roble", Country: "ES", Category: "fruit_vegetables"},
				},
			})
		}, 1)

		producers, err := client.SearchProducers(ctx, "tomate", SearchFilters{
			Country:  "ES",
			Category: "fruit_vegetables",
			Limit:    10,
		})
		require.NoError(t, err)
		require.Len(t, producers, 1)
		assert.Equal(t, "Finca El Roble", producers[0].Name)
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected network call")
		}, 1)

		_, err := client.SearchProducers(ctx, "", SearchFilters{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("oversized limit is clamped", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			_ = json.NewEncoder(w).Encode(map[string][]Producer{"producers": {}})
		}, 1)

		_, err := client.SearchProducers(ctx, "citrus", SearchFilters{Limit: 9999})
		require.NoError(t, err)
	})
}

func TestClient_BatchVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("failures are isolated per item", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.Contains(r.URL.Path, ggnVineyard):
				w.WriteHeader(http.StatusInternalServerError)
			case strings.Contains(r.URL.Path, ggnDairy):
				w.WriteHeader(http.StatusNotFound)
			default:
				writeCertificate(t, w, ggnOrchard)
			}
		}, 1)

		results := client.BatchVerify(ctx, []id.GGN{ggnOrchard, ggnVineyard, ggnDairy}, 3)
		require.Len(t, results, 3)

		ok := results[id.GGN(ggnOrchard)]
		require.NoError(t, ok.Err)
		assert.Equal(t, CertStatusValid, ok.Info.Status)

		down := results[id.GGN(ggnVineyard)]
		require.Error(t, down.Err)
		assert.True(t, dErrors.HasCode(down.Err, dErrors.CodeUnavailable))

		missing := results[id.GGN(ggnDairy)]
		require.Error(t, missing.Err)
		assert.True(t, dErrors.HasCode(missing.Err, dErrors.CodeNotFound))
	})

	t.Run("malformed members fail without blocking the rest", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeCertificate(t, w, ggnOrchard)
		}, 1)

		results := client.BatchVerify(ctx, []id.GGN{"bogus", ggnOrchard}, 2)
		require.Len(t, results, 2)
		assert.True(t, dErrors.HasCode(results["bogus"].Err, dErrors.CodeValidation))
		assert.NoError(t, results[id.GGN(ggnOrchard)].Err)
	})

	t.Run("duplicate GGNs are verified once", func(t *testing.T) {
		var hits atomic.Int64
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			writeCertificate(t, w, ggnOrchard)
		}, 1)

		results := client.BatchVerify(ctx, []id.GGN{ggnOrchard, ggnOrchard, ggnOrchard}, 4)
		require.Len(t, results, 1)
		assert.EqualValues(t, 1, hits.Load())
	})

	t.Run("empty batch returns an empty map", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected network call")
		}, 1)
		results := client.BatchVerify(ctx, nil, 0)
		assert.Empty(t, results)
	})
}
