// Package alerts turns failed scan factors into compliance alerts and makes
// sure every one of them is eventually stored.
package alerts

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"doseguard/internal/verification/models"
)

// Rule is the escalation applied to one alert category.
type Rule struct {
	Severity models.Severity
	// CallbackWithinHours is zero when no callback is required.
	CallbackWithinHours int
	// CallbackMinMinutesOutside gates the callback on time violations: the
	// callback is required only when the dose was more than this many minutes
	// outside the window. Zero means always.
	CallbackMinMinutesOutside int
	ClinicalReview            bool
	Reportable                bool
	// ReportableBelowScore marks the alert reportable when the biometric
	// score is below this value. Nil disables the check.
	ReportableBelowScore *float64
}

// CallbackRequired reports whether a clinician must call the patient back.
func (r Rule) CallbackRequired(minutesOutside int) bool {
	if r.CallbackWithinHours <= 0 {
		return false
	}
	return r.CallbackMinMinutesOutside == 0 || minutesOutside > r.CallbackMinMinutesOutside
}

// RegulatorReportable reports whether the alert goes to the regulator.
func (r Rule) RegulatorReportable(score *float64) bool {
	if r.Reportable {
		return true
	}
	return r.ReportableBelowScore != nil && score != nil && *score < *r.ReportableBelowScore
}

// Policy maps alert categories to their rules.
type Policy map[models.AlertCategory]Rule

// DefaultPolicy returns the built-in escalation rules.
func DefaultPolicy() Policy {
	lowScore := 50.0
	return Policy{
		models.AlertLocationViolation: {
			Severity:            models.SeverityHigh,
			CallbackWithinHours: 24,
			ClinicalReview:      true,
		},
		models.AlertTimeViolation: {
			Severity:                  models.SeverityMedium,
			CallbackWithinHours:       24,
			CallbackMinMinutesOutside: 120,
			ClinicalReview:            true,
		},
		models.AlertBiometricFailure: {
			Severity:             models.SeverityCritical,
			CallbackWithinHours:  4,
			ClinicalReview:       true,
			ReportableBelowScore: &lowScore,
		},
		models.AlertWrongPatient: {
			Severity:            models.SeverityCritical,
			CallbackWithinHours: 4,
			ClinicalReview:      true,
			Reportable:          true,
		},
	}
}

// Rule returns the rule for c. Unknown categories escalate as critical.
func (p Policy) Rule(c models.AlertCategory) Rule {
	if r, ok := p[c]; ok {
		return r
	}
	return Rule{Severity: models.SeverityCritical, ClinicalReview: true}
}

func (p Policy) Validate() error {
	var errs []error
	for category, rule := range p {
		if !rule.Severity.IsValid() {
			errs = append(errs, fmt.Errorf("%s: invalid severity %q", category, rule.Severity))
		}
		if rule.CallbackWithinHours < 0 {
			errs = append(errs, fmt.Errorf("%s: negative callback_within_hours", category))
		}
		if rule.CallbackMinMinutesOutside < 0 {
			errs = append(errs, fmt.Errorf("%s: negative callback_min_minutes_outside", category))
		}
	}
	return errors.Join(errs...)
}

type ruleOverride struct {
	Severity                  *models.Severity `yaml:"severity"`
	CallbackWithinHours       *int             `yaml:"callback_within_hours"`
	CallbackMinMinutesOutside *int             `yaml:"callback_min_minutes_outside"`
	ClinicalReview            *bool            `yaml:"clinical_review"`
	Reportable                *bool            `yaml:"reportable"`
	ReportableBelowScore      *float64         `yaml:"reportable_below_score"`
}

type policyFile struct {
	Categories map[models.AlertCategory]ruleOverride `yaml:"categories"`
}

// LoadPolicy reads overrides from a YAML file on top of DefaultPolicy. An
// empty path returns the defaults.
//
//	categories:
//	  time_violation:
//	    severity: high
//	    callback_min_minutes_outside: 60
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alert policy: %w", err)
	}
	return ParsePolicy(raw)
}

// ParsePolicy applies YAML overrides to DefaultPolicy.
func ParsePolicy(raw []byte) (Policy, error) {
	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse alert policy: %w", err)
	}

	policy := DefaultPolicy()
	for category, o := range file.Categories {
		if !knownCategory(category) {
			return nil, fmt.Errorf("unknown alert category %q", category)
		}
		rule := policy[category]
		if o.Severity != nil {
			rule.Severity = *o.Severity
		}
		if o.CallbackWithinHours != nil {
			rule.CallbackWithinHours = *o.CallbackWithinHours
		}
		if o.CallbackMinMinutesOutside != nil {
			rule.CallbackMinMinutesOutside = *o.CallbackMinMinutesOutside
		}
		if o.ClinicalReview != nil {
			rule.ClinicalReview = *o.ClinicalReview
		}
		if o.Reportable != nil {
			rule.Reportable = *o.Reportable
		}
		if o.ReportableBelowScore != nil {
			rule.ReportableBelowScore = o.ReportableBelowScore
		}
		policy[category] = rule
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid alert policy: %w", err)
	}
	return policy, nil
}

func knownCategory(c models.AlertCategory) bool {
	switch c {
	case models.AlertWrongPatient, models.AlertLocationViolation, models.AlertTimeViolation, models.AlertBiometricFailure:
		return true
	}
	return false
}
