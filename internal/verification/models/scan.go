package models

import (
	"time"

	id "doseguard/pkg/domain"
)

// FactorVerdict is the outcome of one verification factor.
type FactorVerdict string

const (
	VerdictPassed       FactorVerdict = "passed"
	VerdictFailed       FactorVerdict = "failed"
	VerdictNotAttempted FactorVerdict = "not_attempted"
	// VerdictUnavailable means the input needed to judge the factor was missing.
	VerdictUnavailable FactorVerdict = "unavailable"
	// VerdictNotEvaluated marks factors skipped by a pre-check short circuit.
	VerdictNotEvaluated FactorVerdict = "not_evaluated"
)

// FailureReason is the closed set of reasons a scan can fail.
type FailureReason string

const (
	ReasonWrongPatientScan    FailureReason = "wrong_patient_scan"
	ReasonLocationViolation   FailureReason = "location_violation"
	ReasonLocationUnavailable FailureReason = "location_unavailable"
	ReasonTimeViolation       FailureReason = "time_violation"
	ReasonBiometricFailure    FailureReason = "biometric_failure"
)

// AllFailureReasons lists every reason in reporting order.
var AllFailureReasons = []FailureReason{
	ReasonWrongPatientScan,
	ReasonLocationViolation,
	ReasonLocationUnavailable,
	ReasonTimeViolation,
	ReasonBiometricFailure,
}

func (r FailureReason) IsValid() bool {
	for _, known := range AllFailureReasons {
		if r == known {
			return true
		}
	}
	return false
}

// PresentedLocation is the device-reported position with optional accuracy.
type PresentedLocation struct {
	Point          Point    `json:"point"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty"`
}

// BiometricCapture is the pre-computed face similarity result from the device.
// Liveness is nil when the device did not run a liveness check.
type BiometricCapture struct {
	Score    float64 `json:"score"`
	Liveness *bool   `json:"liveness,omitempty"`
}

// DeviceInfo describes the scanning device. ReportedAt is the device clock and
// is kept for forensics only; verification uses the server receive time.
type DeviceInfo struct {
	DeviceID   string     `json:"device_id,omitempty"`
	Platform   string     `json:"platform,omitempty"`
	AppVersion string     `json:"app_version,omitempty"`
	ReportedAt *time.Time `json:"reported_at,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	OS         string     `json:"os,omitempty"`
	Browser    string     `json:"browser,omitempty"`
	Mobile     bool       `json:"mobile,omitempty"`
	ClientIP   string     `json:"client_ip,omitempty"`
}

// LocationCheck is the geofence factor result. NearestDistanceMeters is nil
// when no zone was available to measure against.
type LocationCheck struct {
	Verdict               FactorVerdict `json:"verdict"`
	WithinAnyZone         bool          `json:"within_any_zone"`
	NearestDistanceMeters *float64      `json:"nearest_distance_meters,omitempty"`
	MatchedZone           *Zone         `json:"matched_zone,omitempty"`
	ZonesEvaluated        int           `json:"zones_evaluated"`
}

// TimeCheck is the dosing window factor result.
type TimeCheck struct {
	Verdict        FactorVerdict `json:"verdict"`
	LocalTime      string        `json:"local_time,omitempty"`
	Timezone       string        `json:"timezone,omitempty"`
	Window         string        `json:"window,omitempty"`
	MinutesOutside int           `json:"minutes_outside"`
}

// BiometricCheck is the face match factor result.
type BiometricCheck struct {
	Verdict   FactorVerdict `json:"verdict"`
	Score     *float64      `json:"score,omitempty"`
	Threshold *float64      `json:"threshold,omitempty"`
	Liveness  *bool         `json:"liveness,omitempty"`
}

// FactorResults groups the per-factor detail of a scan.
type FactorResults struct {
	Location  LocationCheck  `json:"location"`
	Time      TimeCheck      `json:"time"`
	Biometric BiometricCheck `json:"biometric"`
}

// NotEvaluatedFactors is recorded when a pre-check stops the pipeline.
func NotEvaluatedFactors() FactorResults {
	return FactorResults{
		Location:  LocationCheck{Verdict: VerdictNotEvaluated},
		Time:      TimeCheck{Verdict: VerdictNotEvaluated},
		Biometric: BiometricCheck{Verdict: VerdictNotEvaluated},
	}
}

// ScanAttempt is an immutable ledger entry: the evidence of record for one
// verification attempt against a container.
type ScanAttempt struct {
	ID               id.ScanID
	ContainerID      id.ContainerID
	ClaimedPatientID id.PatientID
	Location         *PresentedLocation
	PresentedAt      time.Time
	Biometric        *BiometricCapture
	SealPhotoRef     string
	Device           DeviceInfo
	Factors          FactorResults
	Verified         bool
	FailureReasons   []FailureReason
	RequestID        string
	RecordedAt       time.Time
}

// HasReason reports whether the attempt failed for reason r.
func (s *ScanAttempt) HasReason(r FailureReason) bool {
	for _, got := range s.FailureReasons {
		if got == r {
			return true
		}
	}
	return false
}
