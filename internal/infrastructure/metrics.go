package infrastructure

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the application.
// All collectors are registered on a private registry so tests can
// construct independent instances.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal     *prometheus.CounterVec
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	recordsIngested  prometheus.Counter
	activeSessions   prometheus.Gauge
	wsClients        prometheus.Gauge
}

// NewMetrics creates and registers the application collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mailpulse",
			Name:      "uploads_total",
			Help:      "Dataset uploads by file format and outcome.",
		}, []string{"format", "status"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mailpulse",
			Name:      "pipeline_runs_total",
			Help:      "Analytics pipeline executions by trigger.",
		}, []string{"trigger"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mailpulse",
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent normalizing, filtering and aggregating a dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		recordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mailpulse",
			Name:      "records_ingested_total",
			Help:      "Raw rows parsed from uploaded files.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mailpulse",
			Name:      "active_sessions",
			Help:      "Dataset sessions currently held in memory.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mailpulse",
			Name:      "websocket_clients",
			Help:      "Connected WebSocket clients.",
		}),
	}

	registry.MustRegister(
		m.uploadsTotal,
		m.pipelineRuns,
		m.pipelineDuration,
		m.recordsIngested,
		m.activeSessions,
		m.wsClients,
	)

	return m
}

// Handler returns an http.Handler serving the metrics in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordUpload counts an upload attempt. status is "ok" or "error".
func (m *Metrics) RecordUpload(format, status string) {
	m.uploadsTotal.WithLabelValues(format, status).Inc()
}

// RecordPipelineRun counts a pipeline execution and observes its duration.
func (m *Metrics) RecordPipelineRun(trigger string, elapsed time.Duration) {
	m.pipelineRuns.WithLabelValues(trigger).Inc()
	m.pipelineDuration.Observe(elapsed.Seconds())
}

// RecordIngestedRows adds n to the ingested row counter.
func (m *Metrics) RecordIngestedRows(n int) {
	m.recordsIngested.Add(float64(n))
}

// SetActiveSessions updates the session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// ClientConnected increments the WebSocket client gauge.
func (m *Metrics) ClientConnected() {
	m.wsClients.Inc()
}

// ClientDisconnected decrements the WebSocket client gauge.
func (m *Metrics) ClientDisconnected() {
	m.wsClients.Dec()
}
