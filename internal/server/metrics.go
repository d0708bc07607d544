package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds per-server Prometheus collectors. Each Server owns its own
// registry so multiple servers (e.g. in tests) never collide on
// registration.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "endpoint"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
	m.registry.MustRegister(m.requests, m.latency)
	return m
}

// middleware records request count and latency for every endpoint, labeled
// by raw URL path. Paths here are static, so label cardinality stays low.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		start := time.Now()
		defer func() {
			m.requests.WithLabelValues(r.Method, endpoint).Inc()
			m.latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		}()
		next.ServeHTTP(w, r)
	})
}

// handler returns the Prometheus scrape endpoint for this server's registry.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
