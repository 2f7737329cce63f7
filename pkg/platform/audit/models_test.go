package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEvent_Category(t *testing.T) {
	tests := map[AuditEvent]EventCategory{
		EventScanRecorded:          CategoryCompliance,
		EventContainerConsumed:     CategoryCompliance,
		EventInvalidCredential:     CategorySecurity,
		EventPatientMismatch:       CategorySecurity,
		EventReplayedContainer:     CategorySecurity,
		AuditEvent("health_check"): CategoryOperations,
	}
	for event, want := range tests {
		assert.Equal(t, want, event.Category(), string(event))
	}
}

func TestComplianceEvent_ToEvent(t *testing.T) {
	e := ComplianceEvent{ContainerID: "c", ScanID: "s", PatientID: "p", Action: EventScanRecorded, Decision: "rejected", Reason: "time_violation"}.ToEvent()
	assert.Equal(t, CategoryCompliance, e.Category)
	assert.Equal(t, "c", e.Subject)
	assert.Equal(t, "scan_recorded", e.Action)
	assert.Equal(t, "time_violation", e.Reason)
}
