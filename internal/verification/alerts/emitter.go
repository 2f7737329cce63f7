package alerts

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"doseguard/internal/verification/models"
)

// Store persists an alert. Saving the same scan and reason twice is a no-op.
type Store interface {
	Save(ctx context.Context, a *models.ComplianceAlert) error
}

// Queue is the durable retry queue.
type Queue interface {
	Enqueue(ctx context.Context, a models.ComplianceAlert) error
	Claim(ctx context.Context) (*Claimed, error)
	Ack(ctx context.Context, c *Claimed) error
	Release(ctx context.Context, c *Claimed) error
	Recover(ctx context.Context) (int, error)
}

// Outcome counts where each emitted alert landed.
type Outcome struct {
	Stored   int
	Queued   int
	Fallback int
}

type delivery int

const (
	deliveredStore delivery = iota
	deliveredQueue
	deliveredFallback
)

// Emitter stores alerts and never drops one: a failed insert goes to the
// retry queue, and a failed enqueue to the in-memory fallback.
type Emitter struct {
	store    Store
	queue    Queue
	fallback *Fallback
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Emitter)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		e.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Emitter) {
		e.metrics = m
	}
}

// NewEmitter builds an emitter. queue may be nil, in which case store
// failures go straight to the fallback.
func NewEmitter(store Store, queue Queue, fallback *Fallback, opts ...Option) *Emitter {
	e := &Emitter{
		store:    store,
		queue:    queue,
		fallback: fallback,
		logger:   slog.Default(),
	}
	if e.fallback == nil {
		e.fallback = NewFallback()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit stores the alerts concurrently.
func (e *Emitter) Emit(ctx context.Context, alerts []models.ComplianceAlert) Outcome {
	results := make([]delivery, len(alerts))
	var g errgroup.Group
	for i := range alerts {
		g.Go(func() error {
			results[i] = e.deliver(ctx, alerts[i])
			return nil
		})
	}
	_ = g.Wait()

	var out Outcome
	for _, d := range results {
		switch d {
		case deliveredStore:
			out.Stored++
		case deliveredQueue:
			out.Queued++
		case deliveredFallback:
			out.Fallback++
		}
	}
	return out
}

func (e *Emitter) deliver(ctx context.Context, a models.ComplianceAlert) delivery {
	err := e.store.Save(ctx, &a)
	if err == nil {
		e.metrics.IncStored(a)
		return deliveredStore
	}
	e.logger.WarnContext(ctx, "compliance alert insert failed, queueing for retry",
		"alert_id", a.ID.String(),
		"scan_id", a.ScanID.String(),
		"category", string(a.Category),
		"error", err,
	)

	if e.queue != nil {
		qerr := e.queue.Enqueue(ctx, a)
		if qerr == nil {
			e.metrics.IncQueued()
			return deliveredQueue
		}
		err = qerr
	}

	e.fallback.Push(a)
	e.metrics.IncFallback()
	e.logger.ErrorContext(ctx, "compliance alert held in memory, retry queue unavailable",
		"alert_id", a.ID.String(),
		"scan_id", a.ScanID.String(),
		"container_id", a.ContainerID.String(),
		"category", string(a.Category),
		"severity", string(a.Severity),
		"error", err,
	)
	return deliveredFallback
}
