package staticmaps

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skyplanhq/skyplan/internal/core/domain"
	"github.com/skyplanhq/skyplan/internal/pkg/metrics"
)

// maxImageBytes caps a single static map response. The provider serves tiles
// well under a megabyte; anything larger is a misbehaving upstream.
const maxImageBytes = 8 << 20

// HTTPFetcher retrieves static map images over HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads one image. A non-2xx response yields a domain.FetchError;
// a body that is not raster image data yields a domain.DecodeError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	data, err := f.fetch(ctx, url)

	metrics.ImageFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ImageFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ImageFetchesTotal.WithLabelValues("ok").Inc()
	return data, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	if len(data) == 0 {
		return nil, &domain.DecodeError{URL: url, Reason: "empty response body"}
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return nil, &domain.DecodeError{URL: url, Reason: "response is not an image: " + ct}
	}
	return data, nil
}
