package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the media proxy.
type Metrics struct {
	registry                *prometheus.Registry
	requestsTotal           prometheus.Counter
	errorsTotal             prometheus.Counter
	playlistsRewrittenTotal prometheus.Counter
	segmentsRelayedTotal    prometheus.Counter
	upstreamErrorsTotal     prometheus.Counter
	bytesStreamedTotal      prometheus.Counter
	activeRelays            prometheus.Gauge
}

// New creates and registers Prometheus metrics for the proxy.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	playlistsRewrittenTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_playlists_rewritten_total",
		Help: "Total number of HLS playlists fetched and rewritten",
	})
	segmentsRelayedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_segments_relayed_total",
		Help: "Total number of media segment streams relayed to clients",
	})
	upstreamErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_upstream_errors_total",
		Help: "Total number of upstream fetches that failed before any bytes were sent",
	})
	bytesStreamedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_bytes_streamed_total",
		Help: "Total number of media bytes delivered to clients",
	})
	activeRelays := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "proxy_active_relays",
		Help: "Number of segment relays currently streaming",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		playlistsRewrittenTotal,
		segmentsRelayedTotal,
		upstreamErrorsTotal,
		bytesStreamedTotal,
		activeRelays,
	)

	return &Metrics{
		registry:                registry,
		requestsTotal:           requestsTotal,
		errorsTotal:             errorsTotal,
		playlistsRewrittenTotal: playlistsRewrittenTotal,
		segmentsRelayedTotal:    segmentsRelayedTotal,
		upstreamErrorsTotal:     upstreamErrorsTotal,
		bytesStreamedTotal:      bytesStreamedTotal,
		activeRelays:            activeRelays,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncPlaylistsRewritten increments the rewritten playlists counter.
func (m *Metrics) IncPlaylistsRewritten() {
	m.playlistsRewrittenTotal.Inc()
}

// IncSegmentsRelayed increments the relayed segments counter.
func (m *Metrics) IncSegmentsRelayed() {
	m.segmentsRelayedTotal.Inc()
}

// IncUpstreamErrors increments the upstream failure counter.
func (m *Metrics) IncUpstreamErrors() {
	m.upstreamErrorsTotal.Inc()
}

// AddBytesStreamed adds n to the streamed bytes counter.
func (m *Metrics) AddBytesStreamed(n int64) {
	if n > 0 {
		m.bytesStreamedTotal.Add(float64(n))
	}
}

// IncActiveRelays increments the active relay gauge.
func (m *Metrics) IncActiveRelays() {
	m.activeRelays.Inc()
}

// DecActiveRelays decrements the active relay gauge.
func (m *Metrics) DecActiveRelays() {
	m.activeRelays.Dec()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
