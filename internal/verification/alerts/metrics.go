package alerts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"doseguard/internal/verification/models"
)

// Metrics counts alert delivery by where each alert ended up.
type Metrics struct {
	Emitted  *prometheus.CounterVec
	Queued   prometheus.Counter
	Fallback prometheus.Counter
	Retried  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doseguard_alerts_stored_total",
			Help: "Compliance alerts stored by category and severity",
		}, []string{"category", "severity"}),
		Queued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "doseguard_alerts_queued_total",
			Help: "Compliance alerts sent to the retry queue after a store failure",
		}),
		Fallback: promauto.NewCounter(prometheus.CounterOpts{
			Name: "doseguard_alerts_fallback_total",
			Help: "Compliance alerts held in memory because the retry queue was unavailable",
		}),
		Retried: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doseguard_alerts_retried_total",
			Help: "Retry worker store attempts by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncStored(a models.ComplianceAlert) {
	if m != nil {
		m.Emitted.WithLabelValues(string(a.Category), string(a.Severity)).Inc()
	}
}

func (m *Metrics) IncQueued() {
	if m != nil {
		m.Queued.Inc()
	}
}

func (m *Metrics) IncFallback() {
	if m != nil {
		m.Fallback.Inc()
	}
}

func (m *Metrics) IncRetried(result string) {
	if m != nil {
		m.Retried.WithLabelValues(result).Inc()
	}
}
