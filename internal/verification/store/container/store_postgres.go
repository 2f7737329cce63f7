package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	"doseguard/pkg/platform/sentinel"
	txcontext "doseguard/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists containers in the dose_containers table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const containerColumns = `
	id, credential_digest, patient_id, medication, dose_amount, dose_unit,
	window_start_minute, window_end_minute, timezone, status, compliance_status,
	issued_at, consumed_at, consumed_latitude, consumed_longitude,
	verification_outcome, final_scan_id`

func (s *PostgresStore) Save(ctx context.Context, c *models.DoseContainer) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO dose_containers (
			id, credential_digest, patient_id, medication, dose_amount, dose_unit,
			window_start_minute, window_end_minute, timezone, status, compliance_status, issued_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(c.ID), c.CredentialDigest, uuid.UUID(c.PatientID), c.Medication, c.DoseAmount, c.DoseUnit,
		c.Window.StartMinute, c.Window.EndMinute, timezoneOrUTC(c.Timezone), string(c.Status),
		string(complianceOrUnknown(c.ComplianceStatus)), c.IssuedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert dose container: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCredentialDigest(ctx context.Context, digest string) (*models.DoseContainer, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+containerColumns+` FROM dose_containers WHERE credential_digest = $1`, digest)
	return scanContainer(row, "find container by digest")
}

func (s *PostgresStore) FindByID(ctx context.Context, containerID id.ContainerID) (*models.DoseContainer, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+containerColumns+` FROM dose_containers WHERE id = $1`, uuid.UUID(containerID))
	return scanContainer(row, "find container by id")
}

// FindForUpdate locks the container row until the surrounding transaction ends.
func (s *PostgresStore) FindForUpdate(ctx context.Context, containerID id.ContainerID) (*models.DoseContainer, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+containerColumns+` FROM dose_containers WHERE id = $1 FOR UPDATE`, uuid.UUID(containerID))
	return scanContainer(row, "lock container")
}

// MarkConsumed is a compare-and-swap on status = 'issued'.
func (s *PostgresStore) MarkConsumed(ctx context.Context, containerID id.ContainerID, record models.Consumption) error {
	compliance := models.ComplianceNonCompliant
	if record.Verified {
		compliance = models.ComplianceCompliant
	}
	var lat, lon sql.NullFloat64
	if record.Location != nil {
		lat = sql.NullFloat64{Float64: record.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: record.Location.Longitude, Valid: true}
	}

	exec := txcontext.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE dose_containers
		SET status = 'consumed',
			compliance_status = $2,
			consumed_at = $3,
			consumed_latitude = $4,
			consumed_longitude = $5,
			verification_outcome = $6,
			final_scan_id = $7
		WHERE id = $1 AND status = 'issued'`,
		uuid.UUID(containerID), string(compliance), record.ConsumedAt, lat, lon, record.Verified, uuid.UUID(record.ScanID),
	)
	if err != nil {
		return fmt.Errorf("mark container consumed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark container consumed: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM dose_containers WHERE id = $1)`, uuid.UUID(containerID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("check container after lost update: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrAlreadyUsed
}

func scanContainer(row *sql.Row, op string) (*models.DoseContainer, error) {
	var (
		c                        models.DoseContainer
		containerID, patientID   uuid.UUID
		status, compliance       string
		consumedAt               sql.NullTime
		consumedLat, consumedLon sql.NullFloat64
		outcome                  sql.NullBool
		finalScanID              uuid.NullUUID
	)
	err := row.Scan(
		&containerID, &c.CredentialDigest, &patientID, &c.Medication, &c.DoseAmount, &c.DoseUnit,
		&c.Window.StartMinute, &c.Window.EndMinute, &c.Timezone, &status, &compliance,
		&c.IssuedAt, &consumedAt, &consumedLat, &consumedLon, &outcome, &finalScanID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.ID = id.ContainerID(containerID)
	c.PatientID = id.PatientID(patientID)
	c.Status = models.ContainerStatus(status)
	c.ComplianceStatus = models.ComplianceStatus(compliance)
	if consumedAt.Valid {
		t := consumedAt.Time
		c.ConsumedAt = &t
	}
	if consumedLat.Valid && consumedLon.Valid {
		c.ConsumedLocation = &models.Point{Latitude: consumedLat.Float64, Longitude: consumedLon.Float64}
	}
	if outcome.Valid {
		v := outcome.Bool
		c.VerificationOutcome = &v
	}
	if finalScanID.Valid {
		scanID := id.ScanID(finalScanID.UUID)
		c.FinalScanID = &scanID
	}
	return &c, nil
}

func timezoneOrUTC(tz string) string {
	if tz == "" {
		return "UTC"
	}
	return tz
}

func complianceOrUnknown(s models.ComplianceStatus) models.ComplianceStatus {
	if s == "" {
		return models.ComplianceUnknown
	}
	return s
}
