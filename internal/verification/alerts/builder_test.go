package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
)

func ptr[T any](v T) *T { return &v }

func failedScan(reasons ...models.FailureReason) Scan {
	container := &models.DoseContainer{
		ID:         id.NewContainerID(),
		PatientID:  id.NewPatientID(),
		Medication: "methadone",
		Window:     models.DosingWindow{StartMinute: 360, EndMinute: 660},
	}
	return Scan{
		Container: container,
		Attempt: &models.ScanAttempt{
			ID:               id.NewScanID(),
			ContainerID:      container.ID,
			ClaimedPatientID: container.PatientID,
			Location: &models.PresentedLocation{
				Point:          models.Point{Latitude: 40.758, Longitude: -73.9855},
				AccuracyMeters: ptr(15.0),
			},
			Factors: models.FactorResults{
				Location: models.LocationCheck{Verdict: models.VerdictFailed, NearestDistanceMeters: ptr(5400.0), ZonesEvaluated: 1},
				Time: models.TimeCheck{
					Verdict: models.VerdictFailed, LocalTime: "14:00", Timezone: "UTC",
					Window: "06:00-11:00", MinutesOutside: 180,
				},
				Biometric: models.BiometricCheck{Verdict: models.VerdictFailed, Score: ptr(42.0), Threshold: ptr(70.0), Liveness: ptr(true)},
			},
			FailureReasons: reasons,
		},
		Zones: []models.Zone{{ID: "home", Kind: models.ZoneHome, Center: models.Point{Latitude: 40.7128, Longitude: -74.006}, RadiusMeters: 150}},
	}
}

func TestBuild_OneAlertPerFailedFactor(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	scan := failedScan(models.ReasonLocationViolation, models.ReasonTimeViolation, models.ReasonBiometricFailure)

	got := Build(DefaultPolicy(), scan, now)
	require.Len(t, got, 3)

	location, tm, bio := got[0], got[1], got[2]

	assert.Equal(t, models.AlertLocationViolation, location.Category)
	assert.Equal(t, models.SeverityHigh, location.Severity)
	assert.Equal(t, scan.Zones, location.Context.ExpectedZones)
	assert.Equal(t, 5400.0, *location.Context.NearestDistanceMeters)
	assert.Equal(t, 15.0, *location.Context.AccuracyMeters)
	assert.Equal(t, now.Add(24*time.Hour), *location.CallbackDueAt)
	assert.Contains(t, location.Description, "5400 m")

	assert.Equal(t, models.AlertTimeViolation, tm.Category)
	assert.Equal(t, models.SeverityMedium, tm.Severity)
	assert.True(t, tm.CallbackRequired, "180 minutes outside exceeds the callback threshold")
	assert.Equal(t, 180, *tm.Context.MinutesOutside)
	assert.Equal(t, "06:00-11:00", tm.Context.ExpectedWindow)

	assert.Equal(t, models.AlertBiometricFailure, bio.Category)
	assert.Equal(t, models.SeverityCritical, bio.Severity)
	assert.True(t, bio.RegulatorReportable)
	assert.Equal(t, now.Add(4*time.Hour), *bio.CallbackDueAt)
	assert.Equal(t, "face match score 42.0 below threshold 70.0", bio.Description)

	for _, a := range got {
		assert.Equal(t, scan.Attempt.ID, a.ScanID)
		assert.Equal(t, scan.Container.ID, a.ContainerID)
		assert.Equal(t, models.AlertOpen, a.Status)
		assert.True(t, a.ClinicalReviewRequired)
		assert.Equal(t, "methadone", a.Context.Medication)
	}
}

func TestBuild_TimeWithinGraceHasNoCallback(t *testing.T) {
	scan := failedScan(models.ReasonTimeViolation)
	scan.Attempt.Factors.Time.MinutesOutside = 90

	got := Build(DefaultPolicy(), scan, time.Now())
	require.Len(t, got, 1)
	assert.False(t, got[0].CallbackRequired)
	assert.Nil(t, got[0].CallbackDueAt)
	assert.Zero(t, got[0].CallbackWithinHours)
}

func TestBuild_WrongPatient(t *testing.T) {
	scan := failedScan(models.ReasonWrongPatientScan)
	scan.Attempt.ClaimedPatientID = id.NewPatientID()
	scan.Attempt.Factors = models.NotEvaluatedFactors()

	got := Build(DefaultPolicy(), scan, time.Now())
	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, models.AlertWrongPatient, a.Category)
	assert.Equal(t, models.SeverityCritical, a.Severity)
	assert.True(t, a.RegulatorReportable)
	assert.Equal(t, scan.Container.PatientID.String(), a.Context.ExpectedPatientID)
	assert.Equal(t, scan.Attempt.ClaimedPatientID.String(), a.Context.ClaimedPatientID)
}

func TestBuild_LocationUnavailable(t *testing.T) {
	scan := failedScan(models.ReasonLocationUnavailable)
	scan.Attempt.Location = nil
	scan.Attempt.Factors.Location = models.LocationCheck{Verdict: models.VerdictUnavailable}

	got := Build(DefaultPolicy(), scan, time.Now())
	require.Len(t, got, 1)
	assert.Equal(t, models.AlertLocationViolation, got[0].Category)
	assert.Equal(t, models.ReasonLocationUnavailable, got[0].Reason)
	assert.Nil(t, got[0].Context.ActualLocation)
	assert.Equal(t, "no location reported with the scan", got[0].Description)
}

func TestBuild_BiometricDescriptions(t *testing.T) {
	tests := []struct {
		name  string
		check models.BiometricCheck
		want  string
	}{
		{"liveness false", models.BiometricCheck{Score: ptr(90.0), Threshold: ptr(70.0), Liveness: ptr(false)}, "liveness check failed"},
		{"no enrollment", models.BiometricCheck{Score: ptr(90.0)}, "biometric capture presented without an active enrollment"},
		{"liveness missing", models.BiometricCheck{Score: ptr(90.0), Threshold: ptr(70.0)}, "liveness check required but not performed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, biometricDescription(tt.check))
		})
	}
}

func TestBuild_NoReasonsNoAlerts(t *testing.T) {
	assert.Empty(t, Build(DefaultPolicy(), failedScan(), time.Now()))
}
