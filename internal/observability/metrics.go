package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	SessionEvents  *prometheus.CounterVec
	Commands       *prometheus.CounterVec
	WSMessages     *prometheus.CounterVec
	BrainErrors    *prometheus.CounterVec
	MemoryItems    *prometheus.GaugeVec
	CommandLatency prometheus.Histogram

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active assistant sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session and conversation lifecycle events by type.",
		}, []string{"event"}),
		Commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Dispatched commands by matched intent and outcome.",
		}, []string{"intent", "outcome"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Websocket frames by direction and protocol type.",
		}, []string{"direction", "type"}),
		BrainErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brain_errors_total",
			Help:      "Language model fallback errors by provider and code.",
		}, []string{"provider", "code"}),
		MemoryItems: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_items",
			Help:      "Stored memory items by kind.",
		}, []string{"kind"}),
		CommandLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_ms",
			Help:      "Latency from command receipt to reply in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		stages: newStageWindow(256),
	}
}

func (m *Metrics) ObserveCommandLatency(d time.Duration) {
	m.CommandLatency.Observe(float64(d.Milliseconds()))
	m.ObserveStage("dispatch", float64(d.Milliseconds()))
}

// ObserveStage records a pipeline stage duration into the rolling perf window.
func (m *Metrics) ObserveStage(stage string, ms float64) {
	if m == nil || m.stages == nil {
		return
	}
	m.stages.Observe(stage, ms)
}

// ObserveIndicator bumps a named perf indicator (e.g. brain fallback used).
func (m *Metrics) ObserveIndicator(name string) {
	if m == nil || m.stages == nil {
		return
	}
	m.stages.ObserveIndicator(name)
}

// SnapshotStages returns percentile stats for the recent pipeline stages.
func (m *Metrics) SnapshotStages() StageSnapshot {
	if m == nil || m.stages == nil {
		return StageSnapshot{}
	}
	return m.stages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
