// Package metrics instruments requests with Prometheus counters and
// histograms: total requests by method/path/status, request duration, and
// response size.
package metrics

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relic-http/relic"
)

// Options configures a Metrics collector.
type Options struct {
	// Namespace and Subsystem prefix every metric name:
	// "{namespace}_{subsystem}_http_requests_total", etc.
	Namespace string
	Subsystem string
	// SkipPaths lists exact request paths excluded from instrumentation.
	SkipPaths []string
	// MetricsPath is the path RegisterEndpoint mounts the exposition
	// handler at. Defaults to "/metrics".
	MetricsPath string
	// Buckets overrides the request-duration histogram's bucket
	// boundaries, in seconds. Defaults to prometheus.DefBuckets.
	Buckets []float64
}

// Metrics holds one request/duration/size instrument set plus a private
// registry, so multiple Metrics instances in the same process never
// collide on metric names.
type Metrics struct {
	opts     Options
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	activeRequests  prometheus.Gauge

	totalCount  atomic.Int64
	activeCount atomic.Int64

	skip map[string]bool
}

// NewMetrics builds a Metrics collector with its own registry.
func NewMetrics(opts Options) *Metrics {
	buckets := opts.Buckets
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}

	m := &Metrics{
		opts:     opts,
		registry: prometheus.NewRegistry(),
		skip:     make(map[string]bool, len(opts.SkipPaths)),
	}
	for _, p := range opts.SkipPaths {
		m.skip[p] = true
	}

	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests processed.",
	}, []string{"method", "path", "status"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   buckets,
	}, []string{"method", "path", "status"})

	m.responseSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      "http_response_size_bytes",
		Help:      "HTTP response size in bytes.",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	m.activeRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      "http_requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.responseSize, m.activeRequests)
	return m
}

// New returns a default Metrics collector's middleware. Most callers
// wanting the /metrics endpoint too should use NewMetrics directly so they
// can call RegisterEndpoint or Handler.
func New() relic.Middleware {
	return NewMetrics(Options{}).Middleware()
}

// Middleware returns the request-instrumenting middleware.
func (m *Metrics) Middleware() relic.Middleware {
	return func(next relic.Handler) relic.Handler {
		return func(c *relic.Ctx) error {
			path := c.Request().URL.Path
			if m.skip[path] {
				return next(c)
			}

			m.activeRequests.Inc()
			m.activeCount.Add(1)
			start := time.Now()

			err := next(c)

			m.activeRequests.Dec()
			m.activeCount.Add(-1)
			m.totalCount.Add(1)

			status := strconv.Itoa(c.StatusCode())
			method := c.Request().Method
			elapsed := time.Since(start).Seconds()

			m.requestsTotal.WithLabelValues(method, path, status).Inc()
			m.requestDuration.WithLabelValues(method, path, status).Observe(elapsed)
			if size := c.ResponseSize(); size >= 0 {
				m.responseSize.WithLabelValues(method, path).Observe(float64(size))
			}

			return err
		}
	}
}

// Handler returns a Relic Handler exposing this collector's registry in
// the Prometheus text exposition format.
func (m *Metrics) Handler() relic.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *relic.Ctx) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// RegisterEndpoint mounts Handler at MetricsPath (default "/metrics") on r.
func (m *Metrics) RegisterEndpoint(r *relic.Router) {
	path := m.opts.MetricsPath
	if path == "" {
		path = "/metrics"
	}
	r.Get(path, m.Handler())
}

// TotalRequests returns the number of requests instrumented so far.
func (m *Metrics) TotalRequests() int64 { return m.totalCount.Load() }

// ActiveRequests returns the number of requests currently in flight.
func (m *Metrics) ActiveRequests() int64 { return m.activeCount.Load() }
