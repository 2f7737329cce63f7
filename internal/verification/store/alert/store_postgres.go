package alert

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"doseguard/internal/platform/outbox"
	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	txcontext "doseguard/pkg/platform/tx"
)

// PostgresStore writes the alert row and its outbox row in one transaction.
type PostgresStore struct {
	db     *sql.DB
	outbox *outbox.PostgresStore
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, outbox: outbox.NewPostgres(db)}
}

// Save is idempotent per scan and reason; a duplicate writes no outbox row.
func (s *PostgresStore) Save(ctx context.Context, a *models.ComplianceAlert) error {
	alertContext, err := json.Marshal(a.Context)
	if err != nil {
		return fmt.Errorf("marshal alert context: %w", err)
	}
	entry, err := outbox.NewEntry(outbox.AggregateAlert, a.ID.String(), EventAlertRaised, a, time.Now())
	if err != nil {
		return err
	}

	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
			INSERT INTO compliance_alerts (
				id, container_id, scan_id, patient_id, category, reason, severity, description,
				callback_required, callback_within_hours, callback_due_at,
				clinical_review_required, regulator_reportable, context, status, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (scan_id, reason) DO NOTHING`,
			uuid.UUID(a.ID), uuid.UUID(a.ContainerID), uuid.UUID(a.ScanID), uuid.UUID(a.PatientID),
			string(a.Category), string(a.Reason), string(a.Severity), a.Description,
			a.CallbackRequired, a.CallbackWithinHours, nullTime(a.CallbackDueAt),
			a.ClinicalReviewRequired, a.RegulatorReportable, alertContext, string(a.Status), a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert compliance alert: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert compliance alert: %w", err)
		}
		if inserted == 0 {
			return nil
		}
		return s.outbox.Append(ctx, entry)
	})
}

func (s *PostgresStore) ListByScan(ctx context.Context, scanID id.ScanID) ([]models.ComplianceAlert, error) {
	return s.list(ctx, "scan_id", uuid.UUID(scanID))
}

func (s *PostgresStore) ListByContainer(ctx context.Context, containerID id.ContainerID) ([]models.ComplianceAlert, error) {
	return s.list(ctx, "container_id", uuid.UUID(containerID))
}

func (s *PostgresStore) list(ctx context.Context, column string, key uuid.UUID) ([]models.ComplianceAlert, error) {
	// column is one of two constants above, never caller input.
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, container_id, scan_id, patient_id, category, reason, severity, description,
			callback_required, callback_within_hours, callback_due_at,
			clinical_review_required, regulator_reportable, context, status, created_at
		FROM compliance_alerts
		WHERE `+column+` = $1
		ORDER BY created_at, id`, key)
	if err != nil {
		return nil, fmt.Errorf("query compliance alerts: %w", err)
	}
	defer rows.Close()

	var out []models.ComplianceAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance alerts: %w", err)
	}
	return out, nil
}

func scanAlert(rows *sql.Rows) (models.ComplianceAlert, error) {
	var (
		a                                       models.ComplianceAlert
		alertID, containerID, scanID, patientID uuid.UUID
		category, reason, severity, status      string
		dueAt                                   sql.NullTime
		rawContext                              []byte
	)
	err := rows.Scan(&alertID, &containerID, &scanID, &patientID, &category, &reason, &severity, &a.Description,
		&a.CallbackRequired, &a.CallbackWithinHours, &dueAt,
		&a.ClinicalReviewRequired, &a.RegulatorReportable, &rawContext, &status, &a.CreatedAt)
	if err != nil {
		return a, fmt.Errorf("scan compliance alert: %w", err)
	}
	if err := json.Unmarshal(rawContext, &a.Context); err != nil {
		return a, fmt.Errorf("decode alert context: %w", err)
	}
	a.ID = id.AlertID(alertID)
	a.ContainerID = id.ContainerID(containerID)
	a.ScanID = id.ScanID(scanID)
	a.PatientID = id.PatientID(patientID)
	a.Category = models.AlertCategory(category)
	a.Reason = models.FailureReason(reason)
	a.Severity = models.Severity(severity)
	a.Status = models.AlertStatus(status)
	if dueAt.Valid {
		t := dueAt.Time
		a.CallbackDueAt = &t
	}
	return a, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
