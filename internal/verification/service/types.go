package service

import (
	"math"
	"time"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	dErrors "doseguard/pkg/domain-errors"
)

// VerifyRequest is one presentation of a dose container credential.
type VerifyRequest struct {
	Credential       string
	ClaimedPatientID id.PatientID
	Location         *models.PresentedLocation
	Biometric        *models.BiometricCapture
	SealPhotoRef     string
	Device           models.DeviceInfo
}

func (r VerifyRequest) Validate() error {
	if r.Credential == "" {
		return dErrors.New(dErrors.CodeValidation, "credential is required")
	}
	if r.ClaimedPatientID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "claimed patient id is required")
	}
	if r.Location != nil {
		if err := r.Location.Point.Validate(); err != nil {
			return err
		}
		if r.Location.AccuracyMeters != nil && *r.Location.AccuracyMeters < 0 {
			return dErrors.New(dErrors.CodeValidation, "location accuracy must not be negative")
		}
	}
	if r.Biometric != nil && (math.IsNaN(r.Biometric.Score) || r.Biometric.Score < 0 || r.Biometric.Score > 100) {
		return dErrors.New(dErrors.CodeValidation, "biometric score must be between 0 and 100")
	}
	return nil
}

// ContainerSummary is the container state returned after a verification.
type ContainerSummary struct {
	ContainerID      id.ContainerID
	PatientID        id.PatientID
	Medication       string
	DoseAmount       float64
	DoseUnit         string
	Window           string
	Timezone         string
	Status           models.ContainerStatus
	ComplianceStatus models.ComplianceStatus
	ConsumedAt       *time.Time
}

func summarize(c *models.DoseContainer) ContainerSummary {
	return ContainerSummary{
		ContainerID:      c.ID,
		PatientID:        c.PatientID,
		Medication:       c.Medication,
		DoseAmount:       c.DoseAmount,
		DoseUnit:         c.DoseUnit,
		Window:           c.Window.String(),
		Timezone:         timezoneName(c.Timezone),
		Status:           c.Status,
		ComplianceStatus: c.ComplianceStatus,
		ConsumedAt:       c.ConsumedAt,
	}
}

// VerificationResult is the outcome of a fully evaluated scan. A failed
// verification is a result, not an error.
type VerificationResult struct {
	ScanID         id.ScanID
	Verified       bool
	FailureReasons []models.FailureReason
	Factors        models.FactorResults
	Container      ContainerSummary
	Summary        string
	AlertsRaised   int
}

func timezoneName(tz string) string {
	if tz == "" {
		return "UTC"
	}
	return tz
}
