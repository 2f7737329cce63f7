package security

import (
	"sync"

	audit "doseguard/pkg/platform/audit"
)

const defaultBufferSize = 10000

// RingBuffer is a bounded FIFO of security events. A full buffer overwrites
// its oldest event.
type RingBuffer struct {
	mu      sync.Mutex
	events  []audit.SecurityEvent
	head    int // next write position
	tail    int // next read position
	count   int
	dropped int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &RingBuffer{events: make([]audit.SecurityEvent, capacity)}
}

func (b *RingBuffer) Enqueue(event audit.SecurityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.events)
	if b.count == capacity {
		b.tail = (b.tail + 1) % capacity
		b.count--
		b.dropped++
	}
	b.events[b.head] = event
	b.head = (b.head + 1) % capacity
	b.count++
}

// DequeueBatch removes up to n events, oldest first.
func (b *RingBuffer) DequeueBatch(n int) []audit.SecurityEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	n = min(n, b.count)
	if n == 0 {
		return nil
	}
	capacity := len(b.events)
	out := make([]audit.SecurityEvent, n)
	for i := range out {
		out[i] = b.events[b.tail]
		b.events[b.tail] = audit.SecurityEvent{}
		b.tail = (b.tail + 1) % capacity
	}
	b.count -= n
	return out
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
