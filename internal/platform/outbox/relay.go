package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"doseguard/pkg/platform/circuit"
)

// ErrCircuitOpen is returned by RelayOnce while the broker breaker is open.
var ErrCircuitOpen = errors.New("outbox relay circuit open")

// Message is what the relay hands to the broker.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Publisher delivers one message to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Relay drains pending outbox entries to the broker in creation order.
// Delivery is at least once.
type Relay struct {
	store     Store
	publisher Publisher
	topics    map[string]string
	breaker   *circuit.Breaker
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

type RelayOption func(*Relay)

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) RelayOption {
	return func(r *Relay) {
		r.breaker = b
	}
}

func WithClock(now func() time.Time) RelayOption {
	return func(r *Relay) {
		r.now = now
	}
}

// NewRelay builds a relay. topics maps aggregate type to Kafka topic.
func NewRelay(store Store, publisher Publisher, topics map[string]string, opts ...RelayOption) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		topics:    topics,
		batchSize: 100,
		interval:  time.Second,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.breaker == nil {
		r.breaker = circuit.New("outbox-relay")
	}
	return r
}

// Run relays on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && !errors.Is(err, ErrCircuitOpen) && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "outbox relay pass failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were published.
// It stops at the first publish failure so entries stay in order.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	if !r.breaker.Allow() {
		return 0, ErrCircuitOpen
	}

	entries, err := r.store.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	r.metrics.SetPending(len(entries))

	published := make([]uuid.UUID, 0, len(entries))
	var publishErr error
	for _, e := range entries {
		topic, ok := r.topics[e.AggregateType]
		if !ok {
			r.logger.ErrorContext(ctx, "no topic for outbox aggregate type",
				"aggregate_type", e.AggregateType,
				"outbox_id", e.ID,
			)
			_ = r.store.RecordFailure(ctx, e.ID)
			continue
		}

		err := r.publisher.Publish(ctx, Message{
			Topic: topic,
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"outbox_id":  e.ID.String(),
				"event_type": e.EventType,
			},
		})
		if err != nil {
			publishErr = err
			r.metrics.IncPublishFailure(topic)
			_ = r.store.RecordFailure(ctx, e.ID)
			if _, change := r.breaker.RecordFailure(); change.Opened {
				r.logger.ErrorContext(ctx, "outbox relay circuit opened", "error", err)
			}
			break
		}
		if _, change := r.breaker.RecordSuccess(); change.Closed {
			r.logger.InfoContext(ctx, "outbox relay circuit closed")
		}
		r.metrics.IncPublished(topic)
		published = append(published, e.ID)
	}

	if err := r.store.MarkPublished(ctx, published, r.now()); err != nil {
		return 0, err
	}
	return len(published), publishErr
}
