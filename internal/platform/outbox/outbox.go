// Package outbox implements the transactional outbox: rows written alongside
// domain changes and relayed to Kafka by a background worker.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Aggregate types written to the outbox.
const (
	AggregateAlert = "compliance_alert"
	AggregateAudit = "audit"
)

// Entry is one message waiting to be published.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	Attempts      int
}

// NewEntry marshals payload into a fresh entry.
func NewEntry(aggregateType, aggregateID, eventType string, payload any, now time.Time) (Entry, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal outbox payload: %w", err)
	}
	return Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
		CreatedAt:     now,
	}, nil
}

// Store persists outbox entries. Append joins the transaction carried by ctx
// when there is one.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	FetchPending(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
	RecordFailure(ctx context.Context, id uuid.UUID) error
}
