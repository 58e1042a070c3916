package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles prometheus collectors for the status server.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	ImagesServed       *prometheus.CounterVec
	RateLimitDropped   prometheus.Counter
	PanicsRecovered    prometheus.Counter
}

// New registers the collectors on registry. A nil registry gets a fresh private one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuspics_requests_total",
			Help: "Total number of answered requests by dispatch kind and status code.",
		}, []string{"kind", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statuspics_request_duration_seconds",
			Help:    "Time spent producing a response, by dispatch kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		ImagesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuspics_images_served_total",
			Help: "Number of status pages that referenced each bundled image.",
		}, []string{"identifier"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statuspics_rate_limited_total",
			Help: "Total number of requests dropped by the rate limiter.",
		}),
		PanicsRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statuspics_panics_recovered_total",
			Help: "Total number of handler panics turned into 500 responses.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.ImagesServed,
		m.RateLimitDropped,
		m.PanicsRecovered,
	)

	return m
}

// ObserveResponse records one answered request.
func (m *Metrics) ObserveResponse(kind string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(kind, strconv.Itoa(status)).Inc()
	m.RequestDurationSec.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveImage records that a status page referenced identifier.
func (m *Metrics) ObserveImage(identifier string) {
	if m == nil || identifier == "" {
		return
	}
	m.ImagesServed.WithLabelValues(identifier).Inc()
}

// ObserveRateLimited records a request rejected by the limiter.
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitDropped.Inc()
}

// ObservePanic records a recovered handler panic.
func (m *Metrics) ObservePanic() {
	if m == nil {
		return
	}
	m.PanicsRecovered.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
