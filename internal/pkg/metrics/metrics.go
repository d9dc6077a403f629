package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skyplan",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skyplan",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skyplan",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Imagery metrics
	ImageFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skyplan",
		Subsystem: "imagery",
		Name:      "fetches_total",
		Help:      "Total static map image fetches against the upstream provider",
	}, []string{"status"})

	ImageFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "skyplan",
		Subsystem: "imagery",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of static map image fetches",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skyplan",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total image cache hits",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skyplan",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total image cache misses",
	}, []string{"cache"})

	// Export metrics
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skyplan",
		Subsystem: "report",
		Name:      "exports_total",
		Help:      "Total report compilations by outcome",
	}, []string{"status"})

	ExportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "skyplan",
		Subsystem: "report",
		Name:      "export_duration_seconds",
		Help:      "Duration of successful report compilations",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	ReportPages = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "skyplan",
		Subsystem: "report",
		Name:      "pages",
		Help:      "Pages per compiled report",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "skyplan",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket progress subscribers",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
