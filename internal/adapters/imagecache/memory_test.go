package imagecache

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skyplanhq/skyplan/internal/core/domain"
)

type countingFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	payload []byte
	err     error
	delay   time.Duration
}

func newCountingFetcher(payload []byte) *countingFetcher {
	return &countingFetcher{calls: make(map[string]int), payload: payload}
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func (f *countingFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func TestMemory_FetchOncePerURL(t *testing.T) {
	fetcher := newCountingFetcher([]byte("image-bytes"))
	cache := NewMemory(fetcher)
	ctx := context.Background()

	first, err := cache.FetchEncoded(ctx, "https://maps.test/a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.FetchEncoded(ctx, "https://maps.test/a")
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("repeated calls must return identical payloads")
	}
	if want := base64.StdEncoding.EncodeToString([]byte("image-bytes")); first != want {
		t.Errorf("expected %q, got %q", want, first)
	}
	if got := fetcher.count("https://maps.test/a"); got != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", got)
	}
}

func TestMemory_DistinctURLsFetchedSeparately(t *testing.T) {
	fetcher := newCountingFetcher([]byte("x"))
	cache := NewMemory(fetcher)
	ctx := context.Background()

	cache.FetchEncoded(ctx, "https://maps.test/a")
	cache.FetchEncoded(ctx, "https://maps.test/b")

	if fetcher.count("https://maps.test/a") != 1 || fetcher.count("https://maps.test/b") != 1 {
		t.Error("each distinct URL needs its own fetch")
	}
}

func TestMemory_FailuresNotCached(t *testing.T) {
	fetcher := newCountingFetcher(nil)
	fetcher.err = &domain.FetchError{URL: "u", StatusCode: 503, Status: "503 Service Unavailable"}
	cache := NewMemory(fetcher)
	ctx := context.Background()

	if _, err := cache.FetchEncoded(ctx, "u"); err == nil {
		t.Fatal("expected error")
	}

	// Upstream recovers; the next call must retry rather than replay the
	// failure.
	fetcher.err = nil
	fetcher.payload = []byte("recovered")
	encoded, err := cache.FetchEncoded(ctx, "u")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if want := base64.StdEncoding.EncodeToString([]byte("recovered")); encoded != want {
		t.Errorf("expected fresh payload, got %q", encoded)
	}
	if got := fetcher.count("u"); got != 2 {
		t.Errorf("expected 2 fetches, got %d", got)
	}
}

func TestMemory_ConcurrentMissesShareOneFetch(t *testing.T) {
	fetcher := newCountingFetcher([]byte("shared"))
	fetcher.delay = 20 * time.Millisecond
	cache := NewMemory(fetcher)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.FetchEncoded(context.Background(), "hot-url"); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d goroutines failed", failures.Load())
	}
	if got := fetcher.count("hot-url"); got != 1 {
		t.Errorf("expected concurrent misses to share one fetch, got %d", got)
	}
}

func TestLRU_EvictedEntryRefetches(t *testing.T) {
	fetcher := newCountingFetcher([]byte("img"))
	cache, err := NewLRU(fetcher, 2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	cache.FetchEncoded(ctx, "a")
	cache.FetchEncoded(ctx, "b")
	cache.FetchEncoded(ctx, "c") // evicts a
	cache.FetchEncoded(ctx, "a")

	if got := fetcher.count("a"); got != 2 {
		t.Errorf("expected evicted URL to refetch, got %d fetches", got)
	}
	if got := fetcher.count("b"); got != 1 {
		t.Errorf("expected b cached, got %d fetches", got)
	}
}

func TestLRU_FailuresNotCached(t *testing.T) {
	fetcher := newCountingFetcher(nil)
	fetcher.err = errors.New("boom")
	cache, err := NewLRU(fetcher, 8)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := cache.FetchEncoded(ctx, "u"); err == nil {
		t.Fatal("expected error")
	}

	fetcher.err = nil
	fetcher.payload = []byte("ok")
	if _, err := cache.FetchEncoded(ctx, "u"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := fetcher.count("u"); got != 2 {
		t.Errorf("expected 2 fetches, got %d", got)
	}
}
