package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the API's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	moves    *prometheus.CounterVec
	ended    *prometheus.CounterVec
}

// NewMetrics registers the collectors. active reports open sessions.
func NewMetrics(active func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tile2048",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tile2048",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tile2048",
			Name:      "moves_total",
			Help:      "Moves by outcome.",
		}, []string{"outcome"}),
		ended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tile2048",
			Name:      "games_ended_total",
			Help:      "Finished games by final status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.latency,
		m.moves,
		m.ended,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tile2048",
			Name:      "sessions_active",
			Help:      "Open game sessions.",
		}, func() float64 { return float64(active()) }),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(method, route string, code int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) observeMove(outcome string) {
	m.moves.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeEnd(status string) {
	m.ended.WithLabelValues(status).Inc()
}
