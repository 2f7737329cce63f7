package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Completed verifications by result
	Outcomes *prometheus.CounterVec

	// Factor verdicts by factor and verdict
	FactorVerdicts *prometheus.CounterVec

	// Requests rejected before scoring, by error code
	Rejections *prometheus.CounterVec

	// Reference data load latency by source
	ReferenceLatency *prometheus.HistogramVec

	// Ledger commit retries after infrastructure failures
	CommitRetries prometheus.Counter

	// Overall verification latency
	VerifyLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doseguard_verification_outcomes_total",
			Help: "Completed verification attempts by result",
		}, []string{"result"}), // result: "verified", "failed"

		FactorVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doseguard_verification_factor_verdicts_total",
			Help: "Factor verdicts by factor and verdict",
		}, []string{"factor", "verdict"}),

		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doseguard_verification_rejections_total",
			Help: "Verification requests rejected before scoring by code",
		}, []string{"code"}),

		ReferenceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doseguard_verification_reference_duration_seconds",
			Help:    "Duration of reference data loads by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "locations", "travel_exceptions", "enrollment"

		CommitRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "doseguard_verification_commit_retries_total",
			Help: "Retries of the ledger and container commit after infrastructure failures",
		}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "doseguard_verification_duration_seconds",
			Help:    "Duration of a full verification including persistence",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) IncOutcome(verified bool) {
	if m == nil {
		return
	}
	result := "failed"
	if verified {
		result = "verified"
	}
	m.Outcomes.WithLabelValues(result).Inc()
}

func (m *Metrics) IncFactorVerdict(factor, verdict string) {
	if m != nil {
		m.FactorVerdicts.WithLabelValues(factor, verdict).Inc()
	}
}

func (m *Metrics) IncRejection(code string) {
	if m != nil {
		m.Rejections.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) ObserveReferenceLatency(source string, d time.Duration) {
	if m != nil {
		m.ReferenceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (m *Metrics) IncCommitRetry() {
	if m != nil {
		m.CommitRetries.Inc()
	}
}

func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
