// Package metrics exposes Prometheus instruments for report generation and
// ingest. A nil *Manager is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/repsight/internal/analytics"
)

const namespace = "repsight"

type Manager struct {
	ReportsTotal     *prometheus.CounterVec
	ReportDuration   *prometheus.HistogramVec
	SetsClassified   *prometheus.CounterVec
	SessionsIngested *prometheus.CounterVec
}

// NewRegistry returns a registry with the Go runtime, process and build
// info collectors already registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	return reg
}

func NewManager(reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		ReportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Reports computed, by the surface that requested them",
		}, []string{"surface"}),
		ReportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time spent loading and analyzing sessions for a report",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"surface"}),
		SetsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sets_classified_total",
			Help:      "Sets classified, by muscle group and the step that resolved it",
		}, []string{"group", "source"}),
		SessionsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ingested_total",
			Help:      "Sessions written by ingest, by import source",
		}, []string{"source"}),
	}
}

// ObserveReport records one report computed for surface ("rest", "mcp", ...).
func (m *Manager) ObserveReport(surface string, d time.Duration) {
	if m == nil {
		return
	}
	m.ReportsTotal.WithLabelValues(surface).Inc()
	m.ReportDuration.WithLabelValues(surface).Observe(d.Seconds())
}

// ObserveClassified counts every set in sessions by group and classification step.
func (m *Manager) ObserveClassified(sessions []analytics.ClassifiedSession) {
	if m == nil {
		return
	}
	for _, s := range sessions {
		for _, set := range s.Sets {
			m.SetsClassified.WithLabelValues(string(set.Group), string(set.Source)).Inc()
		}
	}
}

// ObserveIngest records sessions written for source.
func (m *Manager) ObserveIngest(source string, sessions int) {
	if m == nil || sessions <= 0 {
		return
	}
	m.SessionsIngested.WithLabelValues(source).Add(float64(sessions))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
