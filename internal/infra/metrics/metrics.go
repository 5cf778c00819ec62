// Package metrics owns the Prometheus registry and the application's collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth flow labels.
const (
	FlowLogin    = "login"
	FlowRefresh  = "refresh"
	FlowRegister = "register"
)

// Outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
)

// Metrics groups the collectors recorded by use cases.
type Metrics struct {
	AuthAttempts  *prometheus.CounterVec
	AuthDuration  *prometheus.HistogramVec
	LeadsFiled    *prometheus.CounterVec
	PublishErrors prometheus.Counter
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// New creates and registers the application metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadintake_auth_attempts_total",
				Help: "Authentication flow attempts by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		AuthDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadintake_auth_duration_seconds",
				Help:    "Authentication flow duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"flow"},
		),
		LeadsFiled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadintake_leads_filed_total",
				Help: "Lead filings by outcome",
			},
			[]string{"outcome"},
		),
		PublishErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leadintake_event_publish_errors_total",
				Help: "Lead events that could not be handed to the publisher",
			},
		),
	}

	reg.MustRegister(m.AuthAttempts, m.AuthDuration, m.LeadsFiled, m.PublishErrors)

	return m
}

// NewNop returns unregistered collectors, for tests and tools that do not expose /metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// RecordAuth counts one finished auth flow.
func (m *Metrics) RecordAuth(flow, outcome string, elapsed time.Duration) {
	m.AuthAttempts.WithLabelValues(flow, outcome).Inc()
	m.AuthDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
