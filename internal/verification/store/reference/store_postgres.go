package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	"doseguard/pkg/platform/sentinel"
	txcontext "doseguard/pkg/platform/tx"
)

const dateLayout = "2006-01-02"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveLocation(ctx context.Context, loc models.ReferenceLocation) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO reference_locations (id, patient_id, kind, label, latitude, longitude, radius_meters, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(loc.ID), uuid.UUID(loc.PatientID), string(loc.Kind), loc.Label,
		loc.Center.Latitude, loc.Center.Longitude, loc.RadiusMeters, loc.Active,
	)
	if err != nil {
		return fmt.Errorf("insert reference location: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveTravelException(ctx context.Context, ex models.TravelException) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO travel_exceptions (id, patient_id, label, latitude, longitude, radius_meters, start_date, end_date, approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::date, $9)`,
		uuid.UUID(ex.ID), uuid.UUID(ex.PatientID), ex.Label, ex.Center.Latitude, ex.Center.Longitude,
		ex.RadiusMeters, ex.StartDate.Format(dateLayout), ex.EndDate.Format(dateLayout), ex.Approved,
	)
	if err != nil {
		return fmt.Errorf("insert travel exception: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveEnrollment(ctx context.Context, e models.BiometricEnrollment) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO biometric_enrollments (patient_id, threshold, require_liveness, active, enrolled_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (patient_id) DO UPDATE
		SET threshold = EXCLUDED.threshold,
			require_liveness = EXCLUDED.require_liveness,
			active = EXCLUDED.active,
			enrolled_at = EXCLUDED.enrolled_at`,
		uuid.UUID(e.PatientID), e.Threshold, e.RequireLiveness, e.Active, e.EnrolledAt,
	)
	if err != nil {
		return fmt.Errorf("upsert biometric enrollment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ActiveLocations(ctx context.Context, patientID id.PatientID) ([]models.ReferenceLocation, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, kind, label, latitude, longitude, radius_meters
		FROM reference_locations
		WHERE patient_id = $1 AND active
		ORDER BY id`, uuid.UUID(patientID))
	if err != nil {
		return nil, fmt.Errorf("query reference locations: %w", err)
	}
	defer rows.Close()

	var out []models.ReferenceLocation
	for rows.Next() {
		var (
			locID uuid.UUID
			kind  string
		)
		loc := models.ReferenceLocation{PatientID: patientID, Active: true}
		if err := rows.Scan(&locID, &kind, &loc.Label, &loc.Center.Latitude, &loc.Center.Longitude, &loc.RadiusMeters); err != nil {
			return nil, fmt.Errorf("scan reference location: %w", err)
		}
		loc.ID = id.LocationID(locID)
		loc.Kind = models.ZoneKind(kind)
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference locations: %w", err)
	}
	return out, nil
}

// ApprovedTravelExceptions compares against day's calendar date as seen in
// day's own location.
func (s *PostgresStore) ApprovedTravelExceptions(ctx context.Context, patientID id.PatientID, day time.Time) ([]models.TravelException, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, label, latitude, longitude, radius_meters, start_date, end_date
		FROM travel_exceptions
		WHERE patient_id = $1 AND approved AND start_date <= $2::date AND end_date >= $2::date
		ORDER BY start_date, id`, uuid.UUID(patientID), day.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query travel exceptions: %w", err)
	}
	defer rows.Close()

	var out []models.TravelException
	for rows.Next() {
		var exID uuid.UUID
		ex := models.TravelException{PatientID: patientID, Approved: true}
		if err := rows.Scan(&exID, &ex.Label, &ex.Center.Latitude, &ex.Center.Longitude, &ex.RadiusMeters, &ex.StartDate, &ex.EndDate); err != nil {
			return nil, fmt.Errorf("scan travel exception: %w", err)
		}
		ex.ID = id.TravelExceptionID(exID)
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate travel exceptions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ActiveEnrollment(ctx context.Context, patientID id.PatientID) (*models.BiometricEnrollment, error) {
	e := models.BiometricEnrollment{PatientID: patientID}
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT threshold, require_liveness, active, enrolled_at
		FROM biometric_enrollments
		WHERE patient_id = $1 AND active`, uuid.UUID(patientID),
	).Scan(&e.Threshold, &e.RequireLiveness, &e.Active, &e.EnrolledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find biometric enrollment: %w", err)
	}
	return &e, nil
}
