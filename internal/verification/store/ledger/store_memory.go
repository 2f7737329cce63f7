// Package ledger is the append-only store of scan attempts.
package ledger

import (
	"context"
	"slices"
	"sync"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
)

// InMemoryStore is an append-only in-memory ledger.
type InMemoryStore struct {
	mu          sync.RWMutex
	byContainer map[id.ContainerID][]models.ScanAttempt
	seen        map[id.ScanID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byContainer: make(map[id.ContainerID][]models.ScanAttempt),
		seen:        make(map[id.ScanID]struct{}),
	}
}

// Append records attempt. Re-appending the same scan ID is a no-op so a
// retried write cannot duplicate evidence.
func (s *InMemoryStore) Append(_ context.Context, attempt *models.ScanAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[attempt.ID]; dup {
		return nil
	}
	entry := *attempt
	entry.FailureReasons = slices.Clone(attempt.FailureReasons)
	s.byContainer[attempt.ContainerID] = append(s.byContainer[attempt.ContainerID], entry)
	s.seen[attempt.ID] = struct{}{}
	return nil
}

// ListByContainer returns attempts in recording order.
func (s *InMemoryStore) ListByContainer(_ context.Context, containerID id.ContainerID) ([]*models.ScanAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.byContainer[containerID]
	out := make([]*models.ScanAttempt, len(entries))
	for i := range entries {
		entry := entries[i]
		entry.FailureReasons = slices.Clone(entry.FailureReasons)
		out[i] = &entry
	}
	return out, nil
}

// Count returns the total number of recorded attempts.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
