// Package domain holds the typed identifiers shared by every module.
//
// Each ID wraps a uuid.UUID so the compiler rejects passing a PatientID where a
// ContainerID is expected. Parsing happens once at the trust boundary.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "doseguard/pkg/domain-errors"
)

type (
	ContainerID       uuid.UUID
	PatientID         uuid.UUID
	ScanID            uuid.UUID
	AlertID           uuid.UUID
	LocationID        uuid.UUID
	TravelExceptionID uuid.UUID
)

// maxIDLength bounds input before it reaches the uuid parser.
const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is too long")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return parsed, nil
}

func ParseContainerID(s string) (ContainerID, error) {
	u, err := parseUUID("container_id", s)
	return ContainerID(u), err
}

func ParsePatientID(s string) (PatientID, error) {
	u, err := parseUUID("patient_id", s)
	return PatientID(u), err
}

func ParseScanID(s string) (ScanID, error) {
	u, err := parseUUID("scan_id", s)
	return ScanID(u), err
}

func ParseAlertID(s string) (AlertID, error) {
	u, err := parseUUID("alert_id", s)
	return AlertID(u), err
}

func NewContainerID() ContainerID             { return ContainerID(uuid.New()) }
func NewPatientID() PatientID                 { return PatientID(uuid.New()) }
func NewScanID() ScanID                       { return ScanID(uuid.New()) }
func NewAlertID() AlertID                     { return AlertID(uuid.New()) }
func NewLocationID() LocationID               { return LocationID(uuid.New()) }
func NewTravelExceptionID() TravelExceptionID { return TravelExceptionID(uuid.New()) }

func (id ContainerID) String() string       { return uuid.UUID(id).String() }
func (id PatientID) String() string         { return uuid.UUID(id).String() }
func (id ScanID) String() string            { return uuid.UUID(id).String() }
func (id AlertID) String() string           { return uuid.UUID(id).String() }
func (id LocationID) String() string        { return uuid.UUID(id).String() }
func (id TravelExceptionID) String() string { return uuid.UUID(id).String() }

func (id ContainerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PatientID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ScanID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AlertID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id LocationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps IDs rendered as canonical UUID strings in JSON payloads.

func (id ContainerID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id PatientID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id ScanID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id AlertID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *ContainerID) UnmarshalText(b []byte) error {
	u, err := parseUUID("container_id", string(b))
	*id = ContainerID(u)
	return err
}

func (id *PatientID) UnmarshalText(b []byte) error {
	u, err := parseUUID("patient_id", string(b))
	*id = PatientID(u)
	return err
}

func (id *ScanID) UnmarshalText(b []byte) error {
	u, err := parseUUID("scan_id", string(b))
	*id = ScanID(u)
	return err
}

func (id *AlertID) UnmarshalText(b []byte) error {
	u, err := parseUUID("alert_id", string(b))
	*id = AlertID(u)
	return err
}
