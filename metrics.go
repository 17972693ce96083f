package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors updated by the Gateway.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	LoginsTotal          *prometheus.CounterVec
	TokenValidations     *prometheus.CounterVec
	AuditPublishFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		TokenValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_token_validations_total",
				Help: "Total number of token validations by result",
			},
			[]string{"result"},
		),
		AuditPublishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_audit_publish_failures_total",
				Help: "Total number of audit events that could not be published",
			},
			[]string{"event"},
		),
	}

	reg.MustRegister(m.LoginsTotal)
	reg.MustRegister(m.TokenValidations)
	reg.MustRegister(m.AuditPublishFailures)

	return m
}

func (m *Metrics) login(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) validation(result string) {
	if m == nil {
		return
	}
	m.TokenValidations.WithLabelValues(result).Inc()
}

func (m *Metrics) publishFailure(event string) {
	if m == nil {
		return
	}
	m.AuditPublishFailures.WithLabelValues(event).Inc()
}
