// Package container is the dose container registry.
package container

import (
	"context"
	"sync"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	"doseguard/pkg/platform/sentinel"
)

// InMemoryStore keeps containers in memory. Returned values are copies.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[id.ContainerID]models.DoseContainer
	byDigest map[string]id.ContainerID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[id.ContainerID]models.DoseContainer),
		byDigest: make(map[string]id.ContainerID),
	}
}

// Save registers a newly issued container.
func (s *InMemoryStore) Save(_ context.Context, c *models.DoseContainer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[c.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byDigest[c.CredentialDigest]; exists {
		return sentinel.ErrConflict
	}
	s.byID[c.ID] = *c
	s.byDigest[c.CredentialDigest] = c.ID
	return nil
}

func (s *InMemoryStore) FindByCredentialDigest(_ context.Context, digest string) (*models.DoseContainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	containerID, ok := s.byDigest[digest]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := s.byID[containerID]
	return &c, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, containerID id.ContainerID) (*models.DoseContainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[containerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

// FindForUpdate is FindByID; the in-memory transaction runner holds the
// per-container lock.
func (s *InMemoryStore) FindForUpdate(ctx context.Context, containerID id.ContainerID) (*models.DoseContainer, error) {
	return s.FindByID(ctx, containerID)
}

// MarkConsumed moves an issued container to consumed. It fails with
// sentinel.ErrAlreadyUsed when the container is no longer issued.
func (s *InMemoryStore) MarkConsumed(_ context.Context, containerID id.ContainerID, record models.Consumption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[containerID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status != models.StatusIssued {
		return sentinel.ErrAlreadyUsed
	}
	c.ApplyConsumption(record)
	s.byID[containerID] = c
	return nil
}
