package imagecache

import (
	"context"
	"encoding/base64"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/skyplanhq/skyplan/internal/core/ports"
	"github.com/skyplanhq/skyplan/internal/pkg/metrics"
)

// LRU is a bounded cache for the long-running server. Eviction only discards
// encoded images; a later request for an evicted URL simply refetches.
type LRU struct {
	fetcher ports.ImageFetcher
	group   singleflight.Group
	cache   *lru.Cache[string, string]
}

// NewLRU creates a cache holding at most size encoded images.
func NewLRU(fetcher ports.ImageFetcher, size int) (*LRU, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &LRU{fetcher: fetcher, cache: cache}, nil
}

// FetchEncoded returns the base64 encoding of the image at url, fetching on
// miss. Concurrent misses on the same URL share one fetch.
func (l *LRU) FetchEncoded(ctx context.Context, url string) (string, error) {
	if encoded, ok := l.cache.Get(url); ok {
		metrics.CacheHits.WithLabelValues("lru").Inc()
		return encoded, nil
	}
	metrics.CacheMisses.WithLabelValues("lru").Inc()

	v, err, _ := l.group.Do(url, func() (any, error) {
		data, err := l.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		enc := base64.StdEncoding.EncodeToString(data)
		l.cache.Add(url, enc)
		return enc, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
