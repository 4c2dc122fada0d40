package registry

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	id "agrocert/pkg/domain"
)

const defaultBatchConcurrency = 8

// BatchVerify verifies every GGN concurrently and returns a partial result
// map: each entry carries either the certificate info or that item's error.
// One failing item never cancels its siblings; only caller cancellation
// stops outstanding lookups. All member calls share the client's token
// bucket, so batch size does not raise effective throughput.
func (c *Client) BatchVerify(ctx context.Context, ggns []id.GGN, concurrency int) map[id.GGN]BatchResult {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	var mu sync.Mutex
	results := make(map[id.GGN]BatchResult, len(ggns))

	seen := make(map[id.GGN]struct{}, len(ggns))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, ggn := range ggns {
		if _, dup := seen[ggn]; dup {
			continue
		}
		seen[ggn] = struct{}{}
		ggn := ggn
		g.Go(func() error {
			info, err := c.Verify(ctx, ggn)
			mu.Lock()
			results[ggn] = BatchResult{Info: info, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
