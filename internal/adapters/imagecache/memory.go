// Package imagecache provides deduplicating image caches keyed by request
// URL. Both implementations guarantee at most one in-flight network fetch per
// distinct URL and never memoize failures.
package imagecache

import (
	"context"
	"encoding/base64"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/skyplanhq/skyplan/internal/core/ports"
	"github.com/skyplanhq/skyplan/internal/pkg/metrics"
)

// Memory is an unbounded in-process cache. Suited to one-shot runs where the
// working set is a single report's images.
type Memory struct {
	fetcher ports.ImageFetcher
	group   singleflight.Group

	mu     sync.RWMutex
	images map[string]string
}

// NewMemory creates an empty cache backed by the given fetcher.
func NewMemory(fetcher ports.ImageFetcher) *Memory {
	return &Memory{
		fetcher: fetcher,
		images:  make(map[string]string),
	}
}

// FetchEncoded returns the base64 encoding of the image at url, fetching it
// on first use. Concurrent misses on the same URL share one fetch.
func (m *Memory) FetchEncoded(ctx context.Context, url string) (string, error) {
	m.mu.RLock()
	encoded, ok := m.images[url]
	m.mu.RUnlock()
	if ok {
		metrics.CacheHits.WithLabelValues("memory").Inc()
		return encoded, nil
	}
	metrics.CacheMisses.WithLabelValues("memory").Inc()

	v, err, _ := m.group.Do(url, func() (any, error) {
		data, err := m.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		enc := base64.StdEncoding.EncodeToString(data)
		m.mu.Lock()
		m.images[url] = enc
		m.mu.Unlock()
		return enc, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
