// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/pinchtree/internal/gesture"
	"github.com/ayusman/pinchtree/internal/interaction"
)

// Metrics holds the application collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	frames         *prometheus.CounterVec
	candidates     *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	releases       prometheus.Counter
	detectorErrors prometheus.Counter
	frameLatency   prometheus.Histogram
	wsClients      prometheus.Gauge
}

// New creates a Metrics instance with every collector registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinchtree_frames_total",
			Help: "Frames processed, by whether a hand was detected",
		}, []string{"detected"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinchtree_candidates_total",
			Help: "Per-frame gesture candidates",
		}, []string{"candidate"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinchtree_mode_transitions_total",
			Help: "Mode changes, by target mode",
		}, []string{"to"}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinchtree_pinch_releases_total",
			Help: "Confirmed pinches that ended",
		}),
		detectorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinchtree_detector_errors_total",
			Help: "Frames dropped because capture or detection failed",
		}),
		frameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pinchtree_frame_seconds",
			Help:    "Time from frame capture to controller output",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pinchtree_ws_clients",
			Help: "Connected event websocket clients",
		}),
	}

	m.registry.MustRegister(
		m.frames,
		m.candidates,
		m.transitions,
		m.releases,
		m.detectorErrors,
		m.frameLatency,
		m.wsClients,
		collectors.NewGoCollector(),
	)

	// Pre-create label values so every series is exported from the start.
	for _, c := range gesture.Candidates() {
		m.candidates.WithLabelValues(c.String())
	}
	for _, mode := range []interaction.Mode{interaction.Formed, interaction.Chaos} {
		m.transitions.WithLabelValues(mode.String())
	}
	m.frames.WithLabelValues("true")
	m.frames.WithLabelValues("false")

	return m
}

// ObserveResult records one controller result and its processing time.
func (m *Metrics) ObserveResult(res interaction.Result, took time.Duration) {
	if res.Event.Detected {
		m.frames.WithLabelValues("true").Inc()
		m.candidates.WithLabelValues(res.Candidate.String()).Inc()
	} else {
		m.frames.WithLabelValues("false").Inc()
	}
	if res.Change != nil {
		m.ObserveModeChange(*res.Change)
	}
	if res.Released {
		m.releases.Inc()
	}
	m.frameLatency.Observe(took.Seconds())
}

// ObserveModeChange counts a transition, including manual overrides.
func (m *Metrics) ObserveModeChange(change interaction.ModeChange) {
	m.transitions.WithLabelValues(change.To.String()).Inc()
}

// DetectorError counts a frame lost to a capture or detection failure.
func (m *Metrics) DetectorError() {
	m.detectorErrors.Inc()
}

// ClientConnected and ClientDisconnected track websocket subscribers.
func (m *Metrics) ClientConnected()    { m.wsClients.Inc() }
func (m *Metrics) ClientDisconnected() { m.wsClients.Dec() }

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
