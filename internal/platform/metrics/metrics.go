// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors. Each instance registers into its own
// registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	MedicationLogs      *prometheus.CounterVec
	EmergencyEvents     *prometheus.CounterVec
	AuthAttempts        *prometheus.CounterVec
}

func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		MedicationLogs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_medication_logs_total",
				Help: "Adherence log submissions by outcome (created or updated)",
			},
			[]string{"result"},
		),
		EmergencyEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_emergency_transitions_total",
				Help: "Emergency alert transitions (triggered, escalated, resolved)",
			},
			[]string{"transition"},
		),
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Login and registration attempts by result",
			},
			[]string{"result"},
		),
	}
}

// RecordMedicationLog counts an upsert. Safe on a nil receiver.
func (m *Metrics) RecordMedicationLog(created bool) {
	if m == nil {
		return
	}
	result := "updated"
	if created {
		result = "created"
	}
	m.MedicationLogs.WithLabelValues(result).Inc()
}

// RecordEmergency counts an alert transition. Safe on a nil receiver.
func (m *Metrics) RecordEmergency(transition string) {
	if m == nil {
		return
	}
	m.EmergencyEvents.WithLabelValues(transition).Inc()
}

// RecordAuth counts a login or registration outcome. Safe on a nil receiver.
func (m *Metrics) RecordAuth(result string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(result).Inc()
}
