// Package window checks a consumption time against a container's dosing window.
package window

import (
	"time"

	"doseguard/internal/verification/models"
)

const minutesPerDay = 24 * 60

// Result is the outcome of a dosing window check.
type Result struct {
	Verdict        models.FactorVerdict
	MinuteOfDay    int
	MinutesOutside int
}

// MinuteOfDay reduces t to whole minutes since midnight in t's own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// EvaluateAt converts t into loc before checking it against w.
func EvaluateAt(t time.Time, loc *time.Location, w models.DosingWindow) Result {
	if loc != nil {
		t = t.In(loc)
	}
	return Evaluate(MinuteOfDay(t), w)
}

// Evaluate checks minute against the inclusive window w. Outside a same-day
// window, MinutesOutside is the distance to the nearer bound on that day's
// minute line. Only windows that cross midnight measure around the clock.
func Evaluate(minute int, w models.DosingWindow) Result {
	minute = ((minute % minutesPerDay) + minutesPerDay) % minutesPerDay
	res := Result{Verdict: models.VerdictPassed, MinuteOfDay: minute}
	if contains(w, minute) {
		return res
	}
	res.Verdict = models.VerdictFailed
	res.MinutesOutside = minutesOutside(w, minute)
	return res
}

func contains(w models.DosingWindow, minute int) bool {
	if w.StartMinute <= w.EndMinute {
		return minute >= w.StartMinute && minute <= w.EndMinute
	}
	return minute >= w.StartMinute || minute <= w.EndMinute
}

func minutesOutside(w models.DosingWindow, minute int) int {
	if w.StartMinute <= w.EndMinute {
		return min(abs(minute-w.StartMinute), abs(minute-w.EndMinute))
	}
	return min(clockDistance(minute, w.StartMinute), clockDistance(minute, w.EndMinute))
}

func abs(d int) int {
	if d < 0 {
		return -d
	}
	return d
}

func clockDistance(a, b int) int {
	d := abs(a - b)
	return min(d, minutesPerDay-d)
}

// Check converts r into its ledger form.
func (r Result) Check(w models.DosingWindow, tz string) models.TimeCheck {
	return models.TimeCheck{
		Verdict:        r.Verdict,
		LocalTime:      models.FormatMinuteOfDay(r.MinuteOfDay),
		Timezone:       tz,
		Window:         w.String(),
		MinutesOutside: r.MinutesOutside,
	}
}
