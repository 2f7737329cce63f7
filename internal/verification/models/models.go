// Package models holds the verification domain types: dose containers, the
// reference data a scan is checked against, ledger entries and alerts.
package models

import (
	"fmt"
	"math"
	"time"

	id "doseguard/pkg/domain"
	dErrors "doseguard/pkg/domain-errors"
)

// ContainerStatus is the lifecycle state of a dose container.
type ContainerStatus string

const (
	StatusIssued   ContainerStatus = "issued"
	StatusConsumed ContainerStatus = "consumed"
	StatusVoid     ContainerStatus = "void"
)

// IsTerminal reports whether no transition may leave s.
func (s ContainerStatus) IsTerminal() bool {
	return s == StatusConsumed || s == StatusVoid
}

// ComplianceStatus is set once, when the container is consumed.
type ComplianceStatus string

const (
	ComplianceUnknown      ComplianceStatus = "unknown"
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceNonCompliant ComplianceStatus = "non_compliant"
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate rejects coordinates outside the valid lat/lon ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return dErrors.New(dErrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return dErrors.New(dErrors.CodeValidation, "longitude must be between -180 and 180")
	}
	return nil
}

const minutesPerDay = 24 * 60

// DosingWindow is an inclusive time-of-day range in minutes since local midnight.
// A window whose start is after its end crosses midnight.
type DosingWindow struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// NewDosingWindow validates both bounds.
func NewDosingWindow(startMinute, endMinute int) (DosingWindow, error) {
	w := DosingWindow{StartMinute: startMinute, EndMinute: endMinute}
	if err := w.Validate(); err != nil {
		return DosingWindow{}, err
	}
	return w, nil
}

func (w DosingWindow) Validate() error {
	if w.StartMinute < 0 || w.StartMinute >= minutesPerDay || w.EndMinute < 0 || w.EndMinute >= minutesPerDay {
		return dErrors.New(dErrors.CodeValidation, "dosing window bounds must be within a day")
	}
	return nil
}

func (w DosingWindow) String() string {
	return FormatMinuteOfDay(w.StartMinute) + "-" + FormatMinuteOfDay(w.EndMinute)
}

// FormatMinuteOfDay renders minutes since midnight as HH:MM.
func FormatMinuteOfDay(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// DoseContainer is a dispensed take-home dose tracked individually.
// Status moves issued -> consumed exactly once; consumed and void are terminal.
type DoseContainer struct {
	ID               id.ContainerID
	CredentialDigest string
	PatientID        id.PatientID
	Medication       string
	DoseAmount       float64
	DoseUnit         string
	Window           DosingWindow
	Timezone         string
	Status           ContainerStatus
	ComplianceStatus ComplianceStatus
	IssuedAt         time.Time

	ConsumedAt          *time.Time
	ConsumedLocation    *Point
	VerificationOutcome *bool
	FinalScanID         *id.ScanID
}

// Location resolves the container's reference time zone. Empty means UTC.
func (c *DoseContainer) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load container timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Consumption is the final-state record written when a container is consumed.
type Consumption struct {
	ScanID     id.ScanID
	ConsumedAt time.Time
	Location   *Point
	Verified   bool
}

// ApplyConsumption moves an issued container to consumed. Callers must have
// checked the status under the same lock or transaction.
func (c *DoseContainer) ApplyConsumption(record Consumption) {
	consumedAt := record.ConsumedAt
	verified := record.Verified
	scanID := record.ScanID

	c.Status = StatusConsumed
	c.ComplianceStatus = ComplianceNonCompliant
	if verified {
		c.ComplianceStatus = ComplianceCompliant
	}
	c.ConsumedAt = &consumedAt
	c.ConsumedLocation = record.Location
	c.VerificationOutcome = &verified
	c.FinalScanID = &scanID
}

// ZoneKind identifies where a geofence zone came from.
type ZoneKind string

const (
	ZoneHome            ZoneKind = "home"
	ZoneApprovedTravel  ZoneKind = "approved_travel"
	ZoneTravelException ZoneKind = "travel_exception"
)

// Zone is a circular geofence.
type Zone struct {
	ID           string   `json:"id"`
	Kind         ZoneKind `json:"kind"`
	Label        string   `json:"label,omitempty"`
	Center       Point    `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`
}

// ReferenceLocation is a registered place the patient may dose from.
type ReferenceLocation struct {
	ID           id.LocationID
	PatientID    id.PatientID
	Kind         ZoneKind
	Label        string
	Center       Point
	RadiusMeters float64
	Active       bool
}

func (l ReferenceLocation) Zone() Zone {
	return Zone{
		ID:           l.ID.String(),
		Kind:         l.Kind,
		Label:        l.Label,
		Center:       l.Center,
		RadiusMeters: l.RadiusMeters,
	}
}

// TravelException is a clinic-approved temporary zone valid for a range of
// calendar dates, inclusive at both ends.
type TravelException struct {
	ID           id.TravelExceptionID
	PatientID    id.PatientID
	Label        string
	Center       Point
	RadiusMeters float64
	StartDate    time.Time
	EndDate      time.Time
	Approved     bool
}

// CoversDate reports whether day's calendar date falls in the exception range.
// Only the year, month and day of each value are compared.
func (t TravelException) CoversDate(day time.Time) bool {
	d := civilDate(day)
	return !d.Before(civilDate(t.StartDate)) && !d.After(civilDate(t.EndDate))
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (t TravelException) Zone() Zone {
	return Zone{
		ID:           t.ID.String(),
		Kind:         ZoneTravelException,
		Label:        t.Label,
		Center:       t.Center,
		RadiusMeters: t.RadiusMeters,
	}
}

// BiometricEnrollment holds the patient's face-match acceptance threshold.
type BiometricEnrollment struct {
	PatientID       id.PatientID
	Threshold       float64
	RequireLiveness bool
	Active          bool
	EnrolledAt      time.Time
}
