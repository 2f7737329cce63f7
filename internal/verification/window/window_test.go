package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doseguard/internal/verification/models"
)

func hm(h, m int) int { return h*60 + m }

func TestEvaluate_MorningWindow(t *testing.T) {
	w := models.DosingWindow{StartMinute: hm(6, 0), EndMinute: hm(11, 0)}

	tests := []struct {
		name    string
		minute  int
		verdict models.FactorVerdict
		outside int
	}{
		{"one hour early", hm(5, 0), models.VerdictFailed, 60},
		{"ninety minutes late", hm(12, 30), models.VerdictFailed, 90},
		{"start is inclusive", hm(6, 0), models.VerdictPassed, 0},
		{"end is inclusive", hm(11, 0), models.VerdictPassed, 0},
		{"mid window", hm(7, 0), models.VerdictPassed, 0},
		{"afternoon", hm(14, 0), models.VerdictFailed, 180},
		{"late evening measures to the end on the same day", hm(23, 0), models.VerdictFailed, 720},
		{"just after midnight", hm(0, 30), models.VerdictFailed, 330},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(tt.minute, w)
			assert.Equal(t, tt.verdict, res.Verdict)
			assert.Equal(t, tt.outside, res.MinutesOutside)
			assert.GreaterOrEqual(t, res.MinutesOutside, 0)
		})
	}
}

func TestEvaluate_SameDayDistanceDrivesCallback(t *testing.T) {
	w := models.DosingWindow{StartMinute: hm(1, 0), EndMinute: hm(10, 0)}

	res := Evaluate(hm(23, 30), w)
	assert.Equal(t, models.VerdictFailed, res.Verdict)
	assert.Equal(t, 810, res.MinutesOutside, "no wrap to the 01:00 start of the next day")

	res = Evaluate(hm(0, 30), w)
	assert.Equal(t, 30, res.MinutesOutside)
}

func TestEvaluate_WindowCrossingMidnight(t *testing.T) {
	w := models.DosingWindow{StartMinute: hm(22, 0), EndMinute: hm(2, 0)}

	assert.Equal(t, models.VerdictPassed, Evaluate(hm(23, 30), w).Verdict)
	assert.Equal(t, models.VerdictPassed, Evaluate(hm(0, 0), w).Verdict)
	assert.Equal(t, models.VerdictPassed, Evaluate(hm(2, 0), w).Verdict)

	res := Evaluate(hm(3, 0), w)
	assert.Equal(t, models.VerdictFailed, res.Verdict)
	assert.Equal(t, 60, res.MinutesOutside)

	res = Evaluate(hm(21, 15), w)
	assert.Equal(t, 45, res.MinutesOutside)
}

func TestEvaluateAt_ConvertsToContainerZone(t *testing.T) {
	w := models.DosingWindow{StartMinute: hm(6, 0), EndMinute: hm(11, 0)}
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 12:00 UTC is 08:00 in New York during daylight saving time.
	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	res := EvaluateAt(at, loc, w)
	assert.Equal(t, models.VerdictPassed, res.Verdict)
	assert.Equal(t, hm(8, 0), res.MinuteOfDay)

	res = EvaluateAt(at, time.UTC, w)
	assert.Equal(t, models.VerdictFailed, res.Verdict)
	assert.Equal(t, 60, res.MinutesOutside)
}

func TestResult_Check(t *testing.T) {
	w := models.DosingWindow{StartMinute: hm(6, 0), EndMinute: hm(11, 0)}
	check := Evaluate(hm(12, 30), w).Check(w, "UTC")
	assert.Equal(t, "12:30", check.LocalTime)
	assert.Equal(t, "06:00-11:00", check.Window)
	assert.Equal(t, 90, check.MinutesOutside)
}
