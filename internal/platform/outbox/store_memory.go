package outbox

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	Entry
	publishedAt *time.Time
}

// InMemoryStore is an outbox for development and tests.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*memoryEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[uuid.UUID]*memoryEntry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.ID]; exists {
		return nil
	}
	s.entries[entry.ID] = &memoryEntry{Entry: entry}
	return nil
}

func (s *InMemoryStore) FetchPending(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.publishedAt == nil {
			pending = append(pending, e.Entry)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			published := at
			e.publishedAt = &published
		}
	}
	return nil
}

func (s *InMemoryStore) RecordFailure(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.Attempts++
	}
	return nil
}

// ListByType returns every entry of eventType, published or not.
func (s *InMemoryStore) ListByType(eventType string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.entries {
		if e.EventType == eventType {
			out = append(out, e.Entry)
		}
	}
	return out
}
