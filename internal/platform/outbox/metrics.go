package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks relay throughput.
type Metrics struct {
	Published      *prometheus.CounterVec
	PublishFailure *prometheus.CounterVec
	Pending        prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doseguard_outbox_published_total",
			Help: "Outbox entries published to Kafka by topic",
		}, []string{"topic"}),
		PublishFailure: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doseguard_outbox_publish_failures_total",
			Help: "Failed outbox publish attempts by topic",
		}, []string{"topic"}),
		Pending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "doseguard_outbox_pending_batch",
			Help: "Size of the last fetched pending outbox batch",
		}),
	}
}

func (m *Metrics) IncPublished(topic string) {
	if m != nil {
		m.Published.WithLabelValues(topic).Inc()
	}
}

func (m *Metrics) IncPublishFailure(topic string) {
	if m != nil {
		m.PublishFailure.WithLabelValues(topic).Inc()
	}
}

func (m *Metrics) SetPending(n int) {
	if m != nil {
		m.Pending.Set(float64(n))
	}
}
