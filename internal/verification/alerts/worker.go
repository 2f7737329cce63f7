package alerts

import (
	"context"
	"log/slog"
	"time"
)

// RetryWorker moves alerts from the retry queue and the in-memory fallback
// into the store.
type RetryWorker struct {
	store     Store
	queue     Queue
	fallback  *Fallback
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *Metrics
}

type WorkerOption func(*RetryWorker)

func WithWorkerInterval(d time.Duration) WorkerOption {
	return func(w *RetryWorker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithWorkerBatchSize(n int) WorkerOption {
	return func(w *RetryWorker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *RetryWorker) {
		w.logger = logger
	}
}

func WithWorkerMetrics(m *Metrics) WorkerOption {
	return func(w *RetryWorker) {
		w.metrics = m
	}
}

func NewRetryWorker(store Store, queue Queue, fallback *Fallback, opts ...WorkerOption) *RetryWorker {
	w := &RetryWorker{
		store:     store,
		queue:     queue,
		fallback:  fallback,
		interval:  5 * time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	if w.fallback == nil {
		w.fallback = NewFallback()
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains on every tick until ctx is cancelled.
func (w *RetryWorker) Run(ctx context.Context) error {
	w.recoverClaimed(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n, err := w.DrainOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.WarnContext(ctx, "alert retry pass failed", "stored", n, "error", err)
			} else if n > 0 {
				w.logger.InfoContext(ctx, "alert retry pass stored alerts", "stored", n)
			}
		}
	}
}

// DrainOnce retries the fallback first, then up to one batch from the queue.
// It returns the number of alerts stored and stops at the first store failure.
func (w *RetryWorker) DrainOnce(ctx context.Context) (int, error) {
	stored, err := w.drainFallback(ctx)
	if err != nil || w.queue == nil {
		return stored, err
	}

	for range w.batchSize {
		c, err := w.queue.Claim(ctx)
		if err != nil {
			return stored, err
		}
		if c == nil {
			return stored, nil
		}
		if err := w.store.Save(ctx, &c.Alert); err != nil {
			w.metrics.IncRetried("failed")
			if qerr := w.queue.Release(ctx, c); qerr != nil {
				// Still on the processing list; Recover returns it.
				w.logger.ErrorContext(ctx, "claimed compliance alert not released",
					"alert_id", c.Alert.ID.String(),
					"error", qerr,
				)
			}
			return stored, err
		}
		w.metrics.IncRetried("stored")
		w.metrics.IncStored(c.Alert)
		stored++
		if err := w.queue.Ack(ctx, c); err != nil {
			// Saves are idempotent per scan and reason, so a redelivery is harmless.
			w.logger.WarnContext(ctx, "stored alert not acked",
				"alert_id", c.Alert.ID.String(),
				"error", err,
			)
		}
	}
	return stored, nil
}

// recoverClaimed returns alerts claimed by a run that died before acking them.
func (w *RetryWorker) recoverClaimed(ctx context.Context) {
	if w.queue == nil {
		return
	}
	n, err := w.queue.Recover(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "alert retry recovery failed", "error", err)
		return
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "alert retry recovered claimed alerts", "recovered", n)
	}
}

// drainFallback stores held alerts, moving any it cannot store to the queue.
// Alerts that fit nowhere go back to the fallback.
func (w *RetryWorker) drainFallback(ctx context.Context) (int, error) {
	held := w.fallback.Drain()
	stored := 0
	var firstErr error
	for i := range held {
		a := held[i]
		err := w.store.Save(ctx, &a)
		if err == nil {
			w.metrics.IncRetried("stored")
			w.metrics.IncStored(a)
			stored++
			continue
		}
		w.metrics.IncRetried("failed")
		if firstErr == nil {
			firstErr = err
		}
		if w.queue != nil && w.queue.Enqueue(ctx, a) == nil {
			w.metrics.IncQueued()
			continue
		}
		w.fallback.Push(a)
	}
	return stored, firstErr
}
