package service

import (
	"fmt"
	"strings"
	"time"

	"doseguard/internal/verification/biometric"
	"doseguard/internal/verification/geofence"
	"doseguard/internal/verification/models"
	"doseguard/internal/verification/window"
)

// Evidence is the reference data a scan is checked against.
type Evidence struct {
	Locations  []models.ReferenceLocation
	Exceptions []models.TravelException
	Enrollment *models.BiometricEnrollment
}

// Zones returns registered locations followed by travel exceptions.
func (e Evidence) Zones() []models.Zone {
	zones := make([]models.Zone, 0, len(e.Locations)+len(e.Exceptions))
	for _, loc := range e.Locations {
		zones = append(zones, loc.Zone())
	}
	for _, ex := range e.Exceptions {
		zones = append(zones, ex.Zone())
	}
	return zones
}

// Score is the evaluated state of one scan.
type Score struct {
	Factors  models.FactorResults
	Reasons  []models.FailureReason
	Verified bool
}

// EvaluateScan runs the three factor checks. presentedAt must already be in
// the container's local zone.
// This is pure domain logic - no I/O, no side effects.
func EvaluateScan(c *models.DoseContainer, req VerifyRequest, presentedAt time.Time, ev Evidence) Score {
	var point *models.Point
	if req.Location != nil {
		p := req.Location.Point
		point = &p
	}

	factors := models.FactorResults{
		Location:  geofence.Evaluate(point, ev.Zones()).Check(),
		Time:      window.Evaluate(window.MinuteOfDay(presentedAt), c.Window).Check(c.Window, timezoneName(c.Timezone)),
		Biometric: biometric.Evaluate(req.Biometric, ev.Enrollment).Check(),
	}
	return Score{
		Factors:  factors,
		Reasons:  FailureReasons(factors),
		Verified: Verified(factors),
	}
}

// Verified is the overall verdict: location and time must pass and the
// biometric check must not have failed.
func Verified(f models.FactorResults) bool {
	return f.Location.Verdict == models.VerdictPassed &&
		f.Time.Verdict == models.VerdictPassed &&
		biometric.Acceptable(f.Biometric.Verdict)
}

// FailureReasons lists one reason per failed factor in location, time,
// biometric order.
func FailureReasons(f models.FactorResults) []models.FailureReason {
	var reasons []models.FailureReason
	switch f.Location.Verdict {
	case models.VerdictUnavailable:
		reasons = append(reasons, models.ReasonLocationUnavailable)
	case models.VerdictFailed:
		reasons = append(reasons, models.ReasonLocationViolation)
	}
	if f.Time.Verdict == models.VerdictFailed {
		reasons = append(reasons, models.ReasonTimeViolation)
	}
	if !biometric.Acceptable(f.Biometric.Verdict) {
		reasons = append(reasons, models.ReasonBiometricFailure)
	}
	return reasons
}

// Summarize renders a one-line, human-readable account of the result.
func Summarize(score Score) string {
	if score.Verified {
		return "dose verified"
	}
	parts := make([]string, 0, len(score.Reasons))
	f := score.Factors
	for _, r := range score.Reasons {
		switch r {
		case models.ReasonLocationUnavailable:
			parts = append(parts, "no location reported")
		case models.ReasonLocationViolation:
			if f.Location.NearestDistanceMeters == nil {
				parts = append(parts, "no approved location on file")
			} else {
				parts = append(parts, fmt.Sprintf("%.0f m from nearest approved location", *f.Location.NearestDistanceMeters))
			}
		case models.ReasonTimeViolation:
			parts = append(parts, fmt.Sprintf("taken at %s, %d minutes outside window %s",
				f.Time.LocalTime, f.Time.MinutesOutside, f.Time.Window))
		case models.ReasonBiometricFailure:
			parts = append(parts, biometricSummary(f.Biometric))
		}
	}
	return "verification failed: " + strings.Join(parts, "; ")
}

func biometricSummary(b models.BiometricCheck) string {
	switch {
	case b.Liveness != nil && !*b.Liveness:
		return "liveness check failed"
	case b.Threshold == nil:
		return "no active biometric enrollment"
	case b.Score != nil && *b.Score < *b.Threshold:
		return fmt.Sprintf("face match %.1f below threshold %.1f", *b.Score, *b.Threshold)
	default:
		return "liveness check required"
	}
}
