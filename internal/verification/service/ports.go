package service

import (
	"context"
	"time"

	"doseguard/internal/verification/alerts"
	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	audit "doseguard/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// ContainerStore is the dose container registry. FindForUpdate locks the row
// when called inside a transaction. MarkConsumed succeeds only while the
// container is still issued and returns sentinel.ErrAlreadyUsed otherwise.
type ContainerStore interface {
	FindByCredentialDigest(ctx context.Context, digest string) (*models.DoseContainer, error)
	FindByID(ctx context.Context, containerID id.ContainerID) (*models.DoseContainer, error)
	FindForUpdate(ctx context.Context, containerID id.ContainerID) (*models.DoseContainer, error)
	MarkConsumed(ctx context.Context, containerID id.ContainerID, record models.Consumption) error
}

// ScanLedger is the append-only scan attempt store. Append is idempotent on
// the attempt ID.
type ScanLedger interface {
	Append(ctx context.Context, attempt *models.ScanAttempt) error
	ListByContainer(ctx context.Context, containerID id.ContainerID) ([]*models.ScanAttempt, error)
}

// ReferenceStore supplies the data a scan is checked against.
type ReferenceStore interface {
	ActiveLocations(ctx context.Context, patientID id.PatientID) ([]models.ReferenceLocation, error)
	ApprovedTravelExceptions(ctx context.Context, patientID id.PatientID, day time.Time) ([]models.TravelException, error)
	ActiveEnrollment(ctx context.Context, patientID id.PatientID) (*models.BiometricEnrollment, error)
}

// TxRunner runs fn atomically. Stores called with the ctx passed to fn join
// the transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AlertEmitter stores alerts without failing the caller.
type AlertEmitter interface {
	Emit(ctx context.Context, batch []models.ComplianceAlert) alerts.Outcome
}

type Digester interface {
	Digest(credential string) string
}

// ComplianceAuditor persists fail-closed audit events.
type ComplianceAuditor interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// SecurityAuditor records security events without blocking.
type SecurityAuditor interface {
	Emit(ctx context.Context, event audit.SecurityEvent)
}
