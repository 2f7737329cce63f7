package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: the
	// record of what happened to a controlled-substance dose.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and forensics.
	// These feed into SIEM systems and alerting pipelines.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category    EventCategory `json:"category"`
	Timestamp   time.Time     `json:"timestamp"`
	Subject     string        `json:"subject"`
	Action      string        `json:"action"`
	PatientID   string        `json:"patient_id,omitempty"`
	ContainerID string        `json:"container_id,omitempty"`
	ScanID      string        `json:"scan_id,omitempty"`
	Decision    string        `json:"decision,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Severity    Severity      `json:"severity,omitempty"`
	IP          string        `json:"ip,omitempty"`
	DeviceID    string        `json:"device_id,omitempty"`
	RequestID   string        `json:"request_id,omitempty"`
}

// Store persists audit events. Implementations join the transaction carried
// by ctx when there is one.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type AuditEvent string

const (
	// Verification events
	EventScanRecorded      AuditEvent = "scan_recorded"
	EventContainerConsumed AuditEvent = "container_consumed"

	// Security events
	EventInvalidCredential AuditEvent = "invalid_credential_presented"
	EventPatientMismatch   AuditEvent = "patient_mismatch"
	EventReplayedContainer AuditEvent = "consumed_container_presented"
	EventVoidContainer     AuditEvent = "void_container_presented"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventScanRecorded:      CategoryCompliance,
	EventContainerConsumed: CategoryCompliance,

	EventInvalidCredential: CategorySecurity,
	EventPatientMismatch:   CategorySecurity,
	EventReplayedContainer: CategorySecurity,
	EventVoidContainer:     CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// ComplianceEvent records what happened to a dose. It must be persisted
// before the operation that caused it is acknowledged.
type ComplianceEvent struct {
	Timestamp   time.Time
	PatientID   string
	ContainerID string
	ScanID      string
	Action      AuditEvent
	Decision    string
	Reason      string
	RequestID   string
}

func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:    CategoryCompliance,
		Timestamp:   e.Timestamp,
		Subject:     e.ContainerID,
		Action:      string(e.Action),
		PatientID:   e.PatientID,
		ContainerID: e.ContainerID,
		ScanID:      e.ScanID,
		Decision:    e.Decision,
		Reason:      e.Reason,
		RequestID:   e.RequestID,
	}
}

// SecurityEvent captures security-relevant actions for SIEM and alerting.
// Events are processed asynchronously with buffering.
type SecurityEvent struct {
	Timestamp time.Time
	Subject   string // entity involved: container, patient or credential digest prefix
	Action    AuditEvent
	Reason    string
	IP        string
	DeviceID  string
	RequestID string
	Severity  Severity
}

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (e SecurityEvent) Category() EventCategory { return CategorySecurity }

func (e SecurityEvent) ToEvent() Event {
	return Event{
		Category:  CategorySecurity,
		Timestamp: e.Timestamp,
		Subject:   e.Subject,
		Action:    string(e.Action),
		Reason:    e.Reason,
		Severity:  e.Severity,
		IP:        e.IP,
		DeviceID:  e.DeviceID,
		RequestID: e.RequestID,
	}
}
