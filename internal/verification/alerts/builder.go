package alerts

import (
	"fmt"
	"time"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
)

// Scan is everything the builder needs to describe a failed scan.
type Scan struct {
	Container *models.DoseContainer
	Attempt   *models.ScanAttempt
	// Zones are the geofences the location was checked against.
	Zones []models.Zone
}

// Build returns one alert per failure reason on the attempt, in the order the
// reasons were recorded. It performs no I/O.
func Build(policy Policy, scan Scan, now time.Time) []models.ComplianceAlert {
	out := make([]models.ComplianceAlert, 0, len(scan.Attempt.FailureReasons))
	for _, reason := range scan.Attempt.FailureReasons {
		category, ok := models.CategoryFor(reason)
		if !ok {
			continue
		}
		out = append(out, buildOne(policy.Rule(category), category, reason, scan, now))
	}
	return out
}

func buildOne(rule Rule, category models.AlertCategory, reason models.FailureReason, scan Scan, now time.Time) models.ComplianceAlert {
	attempt := scan.Attempt
	container := scan.Container
	factors := attempt.Factors

	a := models.ComplianceAlert{
		ID:                     id.NewAlertID(),
		ContainerID:            container.ID,
		ScanID:                 attempt.ID,
		PatientID:              container.PatientID,
		Category:               category,
		Reason:                 reason,
		Severity:               rule.Severity,
		ClinicalReviewRequired: rule.ClinicalReview,
		Status:                 models.AlertOpen,
		CreatedAt:              now,
		Context:                models.AlertContext{Medication: container.Medication},
	}

	var (
		minutesOutside int
		score          *float64
	)
	switch category {
	case models.AlertWrongPatient:
		a.Context.ExpectedPatientID = container.PatientID.String()
		a.Context.ClaimedPatientID = attempt.ClaimedPatientID.String()
		a.Description = fmt.Sprintf("container for patient %s scanned by patient %s", container.PatientID, attempt.ClaimedPatientID)

	case models.AlertLocationViolation:
		a.Context.ExpectedZones = scan.Zones
		a.Context.NearestDistanceMeters = factors.Location.NearestDistanceMeters
		if attempt.Location != nil {
			point := attempt.Location.Point
			a.Context.ActualLocation = &point
			a.Context.AccuracyMeters = attempt.Location.AccuracyMeters
		}
		a.Description = locationDescription(reason, factors.Location, len(scan.Zones))

	case models.AlertTimeViolation:
		minutesOutside = factors.Time.MinutesOutside
		a.Context.ExpectedWindow = factors.Time.Window
		a.Context.ActualLocalTime = factors.Time.LocalTime
		a.Context.Timezone = factors.Time.Timezone
		a.Context.MinutesOutside = &minutesOutside
		a.Description = fmt.Sprintf("dose taken at %s %s, %d minutes outside window %s",
			factors.Time.LocalTime, factors.Time.Timezone, minutesOutside, factors.Time.Window)

	case models.AlertBiometricFailure:
		score = factors.Biometric.Score
		a.Context.Score = factors.Biometric.Score
		a.Context.Threshold = factors.Biometric.Threshold
		a.Context.Liveness = factors.Biometric.Liveness
		a.Description = biometricDescription(factors.Biometric)
	}

	if rule.CallbackRequired(minutesOutside) {
		due := now.Add(time.Duration(rule.CallbackWithinHours) * time.Hour)
		a.CallbackRequired = true
		a.CallbackWithinHours = rule.CallbackWithinHours
		a.CallbackDueAt = &due
	}
	a.RegulatorReportable = rule.RegulatorReportable(score)
	return a
}

func locationDescription(reason models.FailureReason, check models.LocationCheck, zones int) string {
	switch {
	case reason == models.ReasonLocationUnavailable:
		return "no location reported with the scan"
	case zones == 0:
		return "no approved location on file for the patient"
	case check.NearestDistanceMeters != nil:
		return fmt.Sprintf("scanned %.0f m from the nearest approved location", *check.NearestDistanceMeters)
	default:
		return "scanned outside every approved location"
	}
}

func biometricDescription(check models.BiometricCheck) string {
	switch {
	case check.Liveness != nil && !*check.Liveness:
		return "liveness check failed"
	case check.Threshold == nil:
		return "biometric capture presented without an active enrollment"
	case check.Score != nil && *check.Score < *check.Threshold:
		return fmt.Sprintf("face match score %.1f below threshold %.1f", *check.Score, *check.Threshold)
	case check.Liveness == nil:
		return "liveness check required but not performed"
	default:
		return "biometric verification failed"
	}
}
