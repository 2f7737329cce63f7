// Package security provides a non-blocking audit publisher for security events.
//
// Emit never blocks the request path: events go to a bounded ring buffer that
// a background loop flushes to the store. When the buffer is full the oldest
// event is dropped and counted.
//
// Use for: invalid_credential_presented, patient_mismatch
package security

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "doseguard/pkg/platform/audit"
)

type Publisher struct {
	store         audit.Store
	buffer        *RingBuffer
	logger        *slog.Logger
	flushInterval time.Duration
	batchSize     int

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		p.buffer = NewRingBuffer(n)
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

// New creates a publisher and starts its flush loop. Call Close to drain.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		buffer:        NewRingBuffer(0),
		logger:        slog.Default(),
		flushInterval: 200 * time.Millisecond,
		batchSize:     100,
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.wg.Add(1)
	go p.loop()
	return p
}

// Emit buffers the event for asynchronous persistence.
func (p *Publisher) Emit(_ context.Context, event audit.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = audit.SeverityWarning
	}
	p.buffer.Enqueue(event)
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Dropped returns how many events were lost to buffer overflow.
func (p *Publisher) Dropped() int64 {
	return p.buffer.Dropped()
}

// Close stops the loop after flushing what is buffered.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
	return nil
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			p.flush()
			return
		case <-p.wake:
			p.flush()
		case <-ticker.C:
			p.flush()
		}
	}
}

func (p *Publisher) flush() {
	ctx := context.Background()
	for {
		batch := p.buffer.DequeueBatch(p.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			if err := p.store.Append(ctx, event.ToEvent()); err != nil {
				p.logger.ErrorContext(ctx, "security audit persist failed",
					"action", string(event.Action),
					"subject", event.Subject,
					"error", err,
				)
			}
		}
	}
}
