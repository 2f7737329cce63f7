// Package biometric turns a device-computed face similarity score into a verdict.
package biometric

import "doseguard/internal/verification/models"

// Result is the outcome of a biometric check. Threshold is nil when the
// patient has no active enrollment.
type Result struct {
	Verdict   models.FactorVerdict
	Score     *float64
	Threshold *float64
	Liveness  *bool
}

// Evaluate decides the biometric factor:
//   - no capture: not_attempted
//   - capture without an active enrollment: failed
//   - otherwise passed iff score >= threshold and liveness is not false
//
// An enrollment that requires liveness also fails captures with no liveness signal.
func Evaluate(capture *models.BiometricCapture, enrollment *models.BiometricEnrollment) Result {
	if capture == nil {
		return Result{Verdict: models.VerdictNotAttempted}
	}

	score := capture.Score
	res := Result{
		Verdict:  models.VerdictFailed,
		Score:    &score,
		Liveness: capture.Liveness,
	}
	if enrollment == nil || !enrollment.Active {
		return res
	}

	threshold := enrollment.Threshold
	res.Threshold = &threshold

	if capture.Liveness != nil && !*capture.Liveness {
		return res
	}
	if capture.Liveness == nil && enrollment.RequireLiveness {
		return res
	}
	if score >= threshold {
		res.Verdict = models.VerdictPassed
	}
	return res
}

// Check converts r into its ledger form.
func (r Result) Check() models.BiometricCheck {
	return models.BiometricCheck{
		Verdict:   r.Verdict,
		Score:     r.Score,
		Threshold: r.Threshold,
		Liveness:  r.Liveness,
	}
}

// Acceptable reports whether the verdict allows overall verification to pass.
// A skipped check is acceptable; an explicit failure is not.
func Acceptable(v models.FactorVerdict) bool {
	return v == models.VerdictPassed || v == models.VerdictNotAttempted
}
