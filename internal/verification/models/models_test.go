package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "doseguard/pkg/domain"
)

func TestContainerStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusIssued.IsTerminal())
	assert.True(t, StatusConsumed.IsTerminal())
	assert.True(t, StatusVoid.IsTerminal())
}

func TestDoseContainer_ApplyConsumption(t *testing.T) {
	c := DoseContainer{ID: id.NewContainerID(), Status: StatusIssued, ComplianceStatus: ComplianceUnknown}
	scanID := id.NewScanID()
	at := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	c.ApplyConsumption(Consumption{ScanID: scanID, ConsumedAt: at, Verified: false})

	assert.Equal(t, StatusConsumed, c.Status)
	assert.Equal(t, ComplianceNonCompliant, c.ComplianceStatus)
	require.NotNil(t, c.FinalScanID)
	assert.Equal(t, scanID, *c.FinalScanID)
	require.NotNil(t, c.VerificationOutcome)
	assert.False(t, *c.VerificationOutcome)
	assert.Equal(t, at, *c.ConsumedAt)
}

func TestDoseContainer_Location(t *testing.T) {
	c := DoseContainer{}
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	c.Timezone = "Not/AZone"
	_, err = c.Location()
	assert.Error(t, err)
}

func TestDosingWindow(t *testing.T) {
	w, err := NewDosingWindow(6*60, 11*60)
	require.NoError(t, err)
	assert.Equal(t, "06:00-11:00", w.String())

	_, err = NewDosingWindow(-1, 60)
	assert.Error(t, err)
	_, err = NewDosingWindow(0, 24*60)
	assert.Error(t, err)
}

func TestPoint_Validate(t *testing.T) {
	assert.NoError(t, Point{Latitude: 90, Longitude: -180}.Validate())
	assert.Error(t, Point{Latitude: 90.1}.Validate())
	assert.Error(t, Point{Longitude: 180.5}.Validate())
}

func TestTravelException_CoversDate(t *testing.T) {
	ex := TravelException{
		StartDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
	}
	tz := time.FixedZone("UTC-5", -5*3600)

	assert.True(t, ex.CoversDate(time.Date(2026, 7, 1, 0, 0, 0, 0, tz)), "start date is inclusive")
	assert.True(t, ex.CoversDate(time.Date(2026, 7, 3, 23, 59, 0, 0, tz)), "end date is inclusive")
	assert.False(t, ex.CoversDate(time.Date(2026, 6, 30, 23, 59, 0, 0, tz)))
	assert.False(t, ex.CoversDate(time.Date(2026, 7, 4, 0, 0, 0, 0, tz)))
}

func TestCategoryFor(t *testing.T) {
	for _, r := range AllFailureReasons {
		_, ok := CategoryFor(r)
		assert.True(t, ok, "reason %s has no alert category", r)
	}
	cat, _ := CategoryFor(ReasonLocationUnavailable)
	assert.Equal(t, AlertLocationViolation, cat)

	_, ok := CategoryFor(FailureReason("red_flag"))
	assert.False(t, ok)
}
