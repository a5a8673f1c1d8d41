// Package metrics exposes Prometheus counters for the tracker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Timer session outcomes.
const (
	OutcomeStopped   = "stopped"
	OutcomeCancelled = "cancelled"
	OutcomeReplaced  = "replaced"
)

// Metrics holds the tracker's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	RecordsSaved        *prometheus.CounterVec
	GrowthSaved         prometheus.Counter
	PersistenceFailures *prometheus.CounterVec
	TimerSessions       *prometheus.CounterVec
	CollaboratorErrors  *prometheus.CounterVec
	SSEClients          prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		RecordsSaved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "records_saved_total",
			Help:      "Care records saved, by kind.",
		}, []string{"kind"}),
		GrowthSaved: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "growth_saved_total",
			Help:      "Growth measurements saved.",
		}),
		PersistenceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "persistence_failures_total",
			Help:      "Failed saves, by storage key.",
		}, []string{"key"}),
		TimerSessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "timer_sessions_total",
			Help:      "Feeding timer sessions, by outcome.",
		}, []string{"outcome"}),
		CollaboratorErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cradle",
			Name:      "collaborator_errors_total",
			Help:      "Failed model calls, by service.",
		}, []string{"service"}),
		SSEClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "cradle",
			Name:      "sse_clients",
			Help:      "Connected event-stream clients.",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
