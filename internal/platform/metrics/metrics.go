package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the credential ledger client.
type Metrics struct {
	LedgerCallDuration   *prometheus.HistogramVec
	CredentialsIssued    prometheus.Counter
	CredentialsRevoked   prometheus.Counter
	UniversitiesAdded    prometheus.Counter
	VerificationOutcomes *prometheus.CounterVec
	DocumentsPinned      prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LedgerCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credchain_ledger_call_duration_seconds",
			Help:    "Duration of ledger contract calls by method and outcome",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credchain_credentials_issued_total",
			Help: "Total credentials minted through this client",
		}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credchain_credentials_revoked_total",
			Help: "Total credentials revoked through this client",
		}),
		UniversitiesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credchain_universities_added_total",
			Help: "Total issuing authorities registered through this client",
		}),
		VerificationOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credchain_verification_outcomes_total",
			Help: "Verification results by outcome",
		}, []string{"outcome"}),
		DocumentsPinned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credchain_documents_pinned_total",
			Help: "Total documents pinned to the content-addressed store",
		}),
	}
}

// ObserveLedgerCall records one contract call observation.
func (m *Metrics) ObserveLedgerCall(method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.LedgerCallDuration.WithLabelValues(method, outcome).Observe(seconds)
}

// RecordVerification counts one verification by outcome.
func (m *Metrics) RecordVerification(outcome string) {
	if m == nil {
		return
	}
	m.VerificationOutcomes.WithLabelValues(outcome).Inc()
}
