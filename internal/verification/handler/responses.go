package handler

import (
	"time"

	"doseguard/internal/verification/models"
	"doseguard/internal/verification/service"
)

// VerifyScanResponse is the HTTP response for POST /v1/verify-scan.
type VerifyScanResponse struct {
	Verified         bool                   `json:"verified"`
	FailureReasons   []models.FailureReason `json:"failure_reasons"`
	PerFactorDetail  models.FactorResults   `json:"per_factor_detail"`
	ContainerSummary ContainerResponse      `json:"container_summary"`
	ScanAttemptID    string                 `json:"scan_attempt_id"`
	Summary          string                 `json:"summary"`
	AlertsRaised     int                    `json:"alerts_raised"`
}

type ContainerResponse struct {
	ContainerID      string                  `json:"container_id"`
	PatientID        string                  `json:"patient_id"`
	Medication       string                  `json:"medication"`
	DoseAmount       float64                 `json:"dose_amount"`
	DoseUnit         string                  `json:"dose_unit"`
	DosingWindow     string                  `json:"dosing_window"`
	Timezone         string                  `json:"timezone"`
	Status           models.ContainerStatus  `json:"status"`
	ComplianceStatus models.ComplianceStatus `json:"compliance_status"`
	ConsumedAt       *time.Time              `json:"consumed_at,omitempty"`
}

// FromResult converts a verification result to an HTTP response.
func FromResult(result *service.VerificationResult) *VerifyScanResponse {
	reasons := result.FailureReasons
	if reasons == nil {
		reasons = []models.FailureReason{}
	}
	c := result.Container
	return &VerifyScanResponse{
		Verified:        result.Verified,
		FailureReasons:  reasons,
		PerFactorDetail: result.Factors,
		ContainerSummary: ContainerResponse{
			ContainerID:      c.ContainerID.String(),
			PatientID:        c.PatientID.String(),
			Medication:       c.Medication,
			DoseAmount:       c.DoseAmount,
			DoseUnit:         c.DoseUnit,
			DosingWindow:     c.Window,
			Timezone:         c.Timezone,
			Status:           c.Status,
			ComplianceStatus: c.ComplianceStatus,
			ConsumedAt:       c.ConsumedAt,
		},
		ScanAttemptID: result.ScanID.String(),
		Summary:       result.Summary,
		AlertsRaised:  result.AlertsRaised,
	}
}

// ScanAttemptResponse is one ledger entry as returned for evidentiary review.
type ScanAttemptResponse struct {
	ScanAttemptID    string                    `json:"scan_attempt_id"`
	ClaimedPatientID string                    `json:"claimed_patient_id"`
	PresentedAt      time.Time                 `json:"presented_at"`
	Location         *models.PresentedLocation `json:"location,omitempty"`
	Biometric        *models.BiometricCapture  `json:"biometric_capture,omitempty"`
	SealPhotoRef     string                    `json:"seal_photo_ref,omitempty"`
	Device           models.DeviceInfo         `json:"device_info"`
	Verified         bool                      `json:"verified"`
	FailureReasons   []models.FailureReason    `json:"failure_reasons"`
	PerFactorDetail  models.FactorResults      `json:"per_factor_detail"`
	RequestID        string                    `json:"request_id,omitempty"`
	RecordedAt       time.Time                 `json:"recorded_at"`
}

type ScanAttemptsResponse struct {
	ContainerID string                `json:"container_id"`
	Attempts    []ScanAttemptResponse `json:"attempts"`
}

func FromAttempts(containerID string, attempts []*models.ScanAttempt) *ScanAttemptsResponse {
	out := make([]ScanAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		reasons := a.FailureReasons
		if reasons == nil {
			reasons = []models.FailureReason{}
		}
		out = append(out, ScanAttemptResponse{
			ScanAttemptID:    a.ID.String(),
			ClaimedPatientID: a.ClaimedPatientID.String(),
			PresentedAt:      a.PresentedAt,
			Location:         a.Location,
			Biometric:        a.Biometric,
			SealPhotoRef:     a.SealPhotoRef,
			Device:           a.Device,
			Verified:         a.Verified,
			FailureReasons:   reasons,
			PerFactorDetail:  a.Factors,
			RequestID:        a.RequestID,
			RecordedAt:       a.RecordedAt,
		})
	}
	return &ScanAttemptsResponse{ContainerID: containerID, Attempts: out}
}
