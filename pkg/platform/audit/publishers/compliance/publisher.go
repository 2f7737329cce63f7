// Package compliance writes dose audit events (scan_recorded,
// container_consumed) synchronously. A failed write is returned to the caller,
// which must abort the operation it was auditing.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "doseguard/pkg/platform/audit"
)

var (
	errMissingContainer = errors.New("compliance event requires ContainerID")
	errMissingAction    = errors.New("compliance event requires Action")
)

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithClock sets the time stamped on events that arrive without one.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// New wraps store, which should be outbox-backed so events reach Kafka.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit appends the event. When ctx carries a transaction the append joins it,
// so the event commits or rolls back with the ledger write.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	switch {
	case event.ContainerID == "":
		return errMissingContainer
	case event.Action == "":
		return errMissingAction
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	start := time.Now()
	if err := p.store.Append(ctx, event.ToEvent()); err != nil {
		p.metrics.IncPersistFailures()
		p.logFailure(ctx, event, err)
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}
	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEventsEmitted()
	return nil
}

func (p *Publisher) logFailure(ctx context.Context, event audit.ComplianceEvent, err error) {
	if p.logger == nil {
		return
	}
	p.logger.ErrorContext(ctx, "compliance audit write failed",
		"action", string(event.Action),
		"container_id", event.ContainerID,
		"scan_id", event.ScanID,
		"error", err,
	)
}
