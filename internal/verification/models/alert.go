package models

import (
	"time"

	id "doseguard/pkg/domain"
)

// AlertCategory classifies compliance alerts for clinic workflow routing.
type AlertCategory string

const (
	AlertWrongPatient      AlertCategory = "wrong_patient"
	AlertLocationViolation AlertCategory = "location_violation"
	AlertTimeViolation     AlertCategory = "time_violation"
	AlertBiometricFailure  AlertCategory = "biometric_failure"
)

// CategoryFor maps a failure reason to the alert category that reports it.
// A missing location is treated as a location violation.
func CategoryFor(r FailureReason) (AlertCategory, bool) {
	switch r {
	case ReasonWrongPatientScan:
		return AlertWrongPatient, true
	case ReasonLocationViolation, ReasonLocationUnavailable:
		return AlertLocationViolation, true
	case ReasonTimeViolation:
		return AlertTimeViolation, true
	case ReasonBiometricFailure:
		return AlertBiometricFailure, true
	default:
		return "", false
	}
}

type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) IsValid() bool {
	return s == SeverityMedium || s == SeverityHigh || s == SeverityCritical
}

type AlertStatus string

// AlertOpen is the only status this service writes; acknowledgement happens
// in the clinic workflow system.
const AlertOpen AlertStatus = "open"

// AlertContext carries enough of the scan to act on an alert without reading
// the ledger.
type AlertContext struct {
	ExpectedPatientID     string   `json:"expected_patient_id,omitempty"`
	ClaimedPatientID      string   `json:"claimed_patient_id,omitempty"`
	ExpectedZones         []Zone   `json:"expected_zones,omitempty"`
	ActualLocation        *Point   `json:"actual_location,omitempty"`
	AccuracyMeters        *float64 `json:"accuracy_meters,omitempty"`
	NearestDistanceMeters *float64 `json:"nearest_distance_meters,omitempty"`
	ExpectedWindow        string   `json:"expected_window,omitempty"`
	ActualLocalTime       string   `json:"actual_local_time,omitempty"`
	Timezone              string   `json:"timezone,omitempty"`
	MinutesOutside        *int     `json:"minutes_outside,omitempty"`
	Score                 *float64 `json:"score,omitempty"`
	Threshold             *float64 `json:"threshold,omitempty"`
	Liveness              *bool    `json:"liveness,omitempty"`
	Medication            string   `json:"medication,omitempty"`
}

// ComplianceAlert is raised once per failed factor of a scan.
type ComplianceAlert struct {
	ID                     id.AlertID     `json:"id"`
	ContainerID            id.ContainerID `json:"container_id"`
	ScanID                 id.ScanID      `json:"scan_id"`
	PatientID              id.PatientID   `json:"patient_id"`
	Category               AlertCategory  `json:"category"`
	Reason                 FailureReason  `json:"reason"`
	Severity               Severity       `json:"severity"`
	Description            string         `json:"description"`
	CallbackRequired       bool           `json:"callback_required"`
	CallbackWithinHours    int            `json:"callback_within_hours,omitempty"`
	CallbackDueAt          *time.Time     `json:"callback_due_at,omitempty"`
	ClinicalReviewRequired bool           `json:"clinical_review_required"`
	RegulatorReportable    bool           `json:"regulator_reportable"`
	Context                AlertContext   `json:"context"`
	Status                 AlertStatus    `json:"status"`
	CreatedAt              time.Time      `json:"created_at"`
}
