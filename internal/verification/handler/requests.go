package handler

import (
	"strings"
	"time"

	"doseguard/internal/verification/models"
	"doseguard/internal/verification/service"
	id "doseguard/pkg/domain"
	dErrors "doseguard/pkg/domain-errors"
)

const (
	maxCredentialLength   = 512
	maxSealPhotoRefLength = 1024
	maxDeviceFieldLength  = 128
)

// VerifyScanRequest is the HTTP request body for POST /v1/verify-scan.
type VerifyScanRequest struct {
	Credential       string            `json:"credential"`
	ClaimedPatientID string            `json:"claimed_patient_id"`
	Location         *LocationRequest  `json:"location,omitempty"`
	Biometric        *BiometricRequest `json:"biometric_capture,omitempty"`
	SealPhotoRef     string            `json:"seal_photo_ref,omitempty"`
	Device           *DeviceRequest    `json:"device_info,omitempty"`

	// Parsed values (populated by Validate)
	parsedPatientID id.PatientID
}

type LocationRequest struct {
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty"`
}

type BiometricRequest struct {
	Score    *float64 `json:"score"`
	Liveness *bool    `json:"liveness,omitempty"`
}

type DeviceRequest struct {
	DeviceID   string     `json:"device_id,omitempty"`
	Platform   string     `json:"platform,omitempty"`
	AppVersion string     `json:"app_version,omitempty"`
	ReportedAt *time.Time `json:"reported_at,omitempty"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *VerifyScanRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.Credential) > maxCredentialLength {
		return dErrors.New(dErrors.CodeValidation, "credential is too long")
	}
	if len(r.SealPhotoRef) > maxSealPhotoRefLength {
		return dErrors.New(dErrors.CodeValidation, "seal_photo_ref is too long")
	}
	if r.Device != nil {
		if len(r.Device.DeviceID) > maxDeviceFieldLength || len(r.Device.Platform) > maxDeviceFieldLength ||
			len(r.Device.AppVersion) > maxDeviceFieldLength {
			return dErrors.New(dErrors.CodeValidation, "device_info fields must be at most 128 characters")
		}
	}

	// Required fields
	r.Credential = strings.TrimSpace(r.Credential)
	if r.Credential == "" {
		return dErrors.New(dErrors.CodeValidation, "credential is required")
	}
	r.ClaimedPatientID = strings.TrimSpace(r.ClaimedPatientID)
	if r.ClaimedPatientID == "" {
		return dErrors.New(dErrors.CodeValidation, "claimed_patient_id is required")
	}
	patientID, err := id.ParsePatientID(r.ClaimedPatientID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "claimed_patient_id must be a UUID")
	}
	r.parsedPatientID = patientID

	// Optional blocks are all-or-nothing
	if r.Location != nil && (r.Location.Latitude == nil || r.Location.Longitude == nil) {
		return dErrors.New(dErrors.CodeValidation, "location requires latitude and longitude")
	}
	if r.Biometric != nil && r.Biometric.Score == nil {
		return dErrors.New(dErrors.CodeValidation, "biometric_capture requires score")
	}

	r.SealPhotoRef = strings.TrimSpace(r.SealPhotoRef)
	return nil
}

// ToServiceRequest builds the domain request. device carries what the
// transport observed about the caller; body values take precedence.
func (r *VerifyScanRequest) ToServiceRequest(device models.DeviceInfo) service.VerifyRequest {
	req := service.VerifyRequest{
		Credential:       r.Credential,
		ClaimedPatientID: r.parsedPatientID,
		SealPhotoRef:     r.SealPhotoRef,
		Device:           device,
	}
	if r.Location != nil {
		req.Location = &models.PresentedLocation{
			Point:          models.Point{Latitude: *r.Location.Latitude, Longitude: *r.Location.Longitude},
			AccuracyMeters: r.Location.AccuracyMeters,
		}
	}
	if r.Biometric != nil {
		req.Biometric = &models.BiometricCapture{Score: *r.Biometric.Score, Liveness: r.Biometric.Liveness}
	}
	if r.Device != nil {
		if r.Device.DeviceID != "" {
			req.Device.DeviceID = strings.TrimSpace(r.Device.DeviceID)
		}
		req.Device.Platform = strings.TrimSpace(r.Device.Platform)
		req.Device.AppVersion = strings.TrimSpace(r.Device.AppVersion)
		req.Device.ReportedAt = r.Device.ReportedAt
	}
	return req
}
