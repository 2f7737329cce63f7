// Package alert persists compliance alerts together with the outbox entry
// that carries each alert to the clinic workflow system.
package alert

import (
	"context"
	"sync"
	"time"

	"doseguard/internal/platform/outbox"
	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
)

// EventAlertRaised is the outbox event type for a newly stored alert.
const EventAlertRaised = "alert_raised"

type scanReason struct {
	scan   id.ScanID
	reason models.FailureReason
}

type InMemoryStore struct {
	mu      sync.RWMutex
	alerts  []models.ComplianceAlert
	seen    map[scanReason]struct{}
	outbox  outbox.Store
	nowFunc func() time.Time
}

// NewInMemoryStore keeps alerts in process. When box is non-nil each new
// alert is also appended to it.
func NewInMemoryStore(box outbox.Store) *InMemoryStore {
	return &InMemoryStore{
		seen:    make(map[scanReason]struct{}),
		outbox:  box,
		nowFunc: time.Now,
	}
}

// Save stores a at most once per scan and reason.
func (s *InMemoryStore) Save(ctx context.Context, a *models.ComplianceAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scanReason{scan: a.ScanID, reason: a.Reason}
	if _, ok := s.seen[key]; ok {
		return nil
	}
	if s.outbox != nil {
		entry, err := outbox.NewEntry(outbox.AggregateAlert, a.ID.String(), EventAlertRaised, a, s.nowFunc())
		if err != nil {
			return err
		}
		if err := s.outbox.Append(ctx, entry); err != nil {
			return err
		}
	}
	s.seen[key] = struct{}{}
	s.alerts = append(s.alerts, *a)
	return nil
}

func (s *InMemoryStore) ListByScan(_ context.Context, scanID id.ScanID) ([]models.ComplianceAlert, error) {
	return s.filter(func(a models.ComplianceAlert) bool { return a.ScanID == scanID }), nil
}

func (s *InMemoryStore) ListByContainer(_ context.Context, containerID id.ContainerID) ([]models.ComplianceAlert, error) {
	return s.filter(func(a models.ComplianceAlert) bool { return a.ContainerID == containerID }), nil
}

func (s *InMemoryStore) filter(keep func(models.ComplianceAlert) bool) []models.ComplianceAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ComplianceAlert
	for _, a := range s.alerts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
