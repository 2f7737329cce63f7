package reference

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	"doseguard/pkg/platform/sentinel"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInMemoryStore_ActiveLocations(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	patient := id.NewPatientID()

	home := models.ReferenceLocation{ID: id.NewLocationID(), PatientID: patient, Kind: models.ZoneHome, RadiusMeters: 500, Active: true}
	retired := models.ReferenceLocation{ID: id.NewLocationID(), PatientID: patient, Kind: models.ZoneApprovedTravel, RadiusMeters: 500}
	other := models.ReferenceLocation{ID: id.NewLocationID(), PatientID: id.NewPatientID(), Kind: models.ZoneHome, RadiusMeters: 500, Active: true}
	for _, loc := range []models.ReferenceLocation{home, retired, other} {
		require.NoError(t, store.SaveLocation(ctx, loc))
	}

	got, err := store.ActiveLocations(ctx, patient)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, home.ID, got[0].ID)
}

func TestInMemoryStore_ApprovedTravelExceptions(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	patient := id.NewPatientID()

	approved := models.TravelException{
		ID: id.NewTravelExceptionID(), PatientID: patient, RadiusMeters: 1000,
		StartDate: date(2025, 3, 10), EndDate: date(2025, 3, 12), Approved: true,
	}
	pending := approved
	pending.ID = id.NewTravelExceptionID()
	pending.Approved = false
	require.NoError(t, store.SaveTravelException(ctx, approved))
	require.NoError(t, store.SaveTravelException(ctx, pending))

	tests := []struct {
		name string
		day  time.Time
		want int
	}{
		{"before range", date(2025, 3, 9), 0},
		{"first day", date(2025, 3, 10), 1},
		{"last day late evening", time.Date(2025, 3, 12, 23, 30, 0, 0, time.UTC), 1},
		{"after range", date(2025, 3, 13), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ApprovedTravelExceptions(ctx, patient, tt.day)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestInMemoryStore_ActiveEnrollment(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	patient := id.NewPatientID()

	_, err := store.ActiveEnrollment(ctx, patient)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.SaveEnrollment(ctx, models.BiometricEnrollment{PatientID: patient, Threshold: 70, Active: true}))
	got, err := store.ActiveEnrollment(ctx, patient)
	require.NoError(t, err)
	assert.Equal(t, 70.0, got.Threshold)

	require.NoError(t, store.SaveEnrollment(ctx, models.BiometricEnrollment{PatientID: patient, Threshold: 70}))
	_, err = store.ActiveEnrollment(ctx, patient)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
