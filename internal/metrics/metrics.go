package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source and outcome label values.
const (
	SourceWikipedia = "wikipedia"
	SourceSearch    = "search"

	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics owns a private registry so tests can build as many as they like.
// All methods are safe on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	sourceLookups    *prometheus.CounterVec
	generations      *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	activeSessions   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		sourceLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tamilbot_source_lookups_total",
			Help: "Knowledge source lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tamilbot_generations_total",
			Help: "Gemini generation calls by outcome.",
		}, []string{"outcome"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tamilbot_pipeline_duration_seconds",
			Help:    "Wall time of one question from lookup to reply.",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tamilbot_active_sessions",
			Help: "Sessions held in memory.",
		}),
	}
	reg.MustRegister(m.sourceLookups, m.generations, m.pipelineDuration, m.activeSessions)
	return m
}

func (m *Metrics) ObserveLookup(source, outcome string) {
	if m == nil {
		return
	}
	m.sourceLookups.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) ObserveGeneration(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePipeline(d time.Duration) {
	if m == nil {
		return
	}
	m.pipelineDuration.Observe(d.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
