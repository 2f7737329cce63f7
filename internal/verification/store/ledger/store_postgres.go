package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	txcontext "doseguard/pkg/platform/tx"
)

// PostgresStore writes scan attempts to the scan_attempts table. The table
// rejects updates and deletes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, a *models.ScanAttempt) error {
	device, err := json.Marshal(a.Device)
	if err != nil {
		return fmt.Errorf("marshal device info: %w", err)
	}
	factors, err := json.Marshal(a.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	var lat, lon, accuracy, score sql.NullFloat64
	var liveness sql.NullBool
	if a.Location != nil {
		lat = sql.NullFloat64{Float64: a.Location.Point.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: a.Location.Point.Longitude, Valid: true}
		if a.Location.AccuracyMeters != nil {
			accuracy = sql.NullFloat64{Float64: *a.Location.AccuracyMeters, Valid: true}
		}
	}
	if a.Biometric != nil {
		score = sql.NullFloat64{Float64: a.Biometric.Score, Valid: true}
		if a.Biometric.Liveness != nil {
			liveness = sql.NullBool{Bool: *a.Biometric.Liveness, Valid: true}
		}
	}

	reasons := make([]string, len(a.FailureReasons))
	for i, r := range a.FailureReasons {
		reasons[i] = string(r)
	}

	_, err = txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO scan_attempts (
			id, container_id, claimed_patient_id, latitude, longitude, accuracy_meters,
			presented_at, biometric_score, biometric_liveness, seal_photo_ref,
			device_info, factors, verified, failure_reasons, request_id, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING`,
		uuid.UUID(a.ID), uuid.UUID(a.ContainerID), uuid.UUID(a.ClaimedPatientID), lat, lon, accuracy,
		a.PresentedAt, score, liveness, a.SealPhotoRef,
		device, factors, a.Verified, pq.Array(reasons), a.RequestID, a.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scan attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByContainer(ctx context.Context, containerID id.ContainerID) ([]*models.ScanAttempt, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, container_id, claimed_patient_id, latitude, longitude, accuracy_meters,
			presented_at, biometric_score, biometric_liveness, seal_photo_ref,
			device_info, factors, verified, failure_reasons, request_id, recorded_at
		FROM scan_attempts
		WHERE container_id = $1
		ORDER BY recorded_at, id`, uuid.UUID(containerID))
	if err != nil {
		return nil, fmt.Errorf("query scan attempts: %w", err)
	}
	defer rows.Close()

	var out []*models.ScanAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan attempts: %w", err)
	}
	return out, nil
}

func scanAttempt(rows *sql.Rows) (*models.ScanAttempt, error) {
	var (
		a                                   models.ScanAttempt
		scanID, containerID, claimedPatient uuid.UUID
		lat, lon, accuracy, score           sql.NullFloat64
		liveness                            sql.NullBool
		device, factors                     []byte
		reasons                             []string
	)
	err := rows.Scan(
		&scanID, &containerID, &claimedPatient, &lat, &lon, &accuracy,
		&a.PresentedAt, &score, &liveness, &a.SealPhotoRef,
		&device, &factors, &a.Verified, pq.Array(&reasons), &a.RequestID, &a.RecordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan scan attempt: %w", err)
	}

	a.ID = id.ScanID(scanID)
	a.ContainerID = id.ContainerID(containerID)
	a.ClaimedPatientID = id.PatientID(claimedPatient)
	if lat.Valid && lon.Valid {
		a.Location = &models.PresentedLocation{Point: models.Point{Latitude: lat.Float64, Longitude: lon.Float64}}
		if accuracy.Valid {
			v := accuracy.Float64
			a.Location.AccuracyMeters = &v
		}
	}
	if score.Valid {
		a.Biometric = &models.BiometricCapture{Score: score.Float64}
		if liveness.Valid {
			v := liveness.Bool
			a.Biometric.Liveness = &v
		}
	}
	if err := json.Unmarshal(device, &a.Device); err != nil {
		return nil, fmt.Errorf("unmarshal device info: %w", err)
	}
	if err := json.Unmarshal(factors, &a.Factors); err != nil {
		return nil, fmt.Errorf("unmarshal factors: %w", err)
	}
	a.FailureReasons = make([]models.FailureReason, len(reasons))
	for i, r := range reasons {
		a.FailureReasons[i] = models.FailureReason(r)
	}
	return &a, nil
}
