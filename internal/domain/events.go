package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all audit event types.
type EventType string

const (
	EventScanInitiated   EventType = "trust.scan.initiated"
	EventScanAllowed     EventType = "trust.scan.allowed"
	EventScanBlocked     EventType = "trust.scan.blocked"
	EventMFARequired     EventType = "trust.scan.mfa_required"
	EventMFAVerified     EventType = "trust.scan.mfa_verified"
	EventMFAFailed       EventType = "trust.scan.mfa_failed"
	EventPolicyActivated EventType = "trust.policy.activated"
)

// AuditEvent is the payload handed to the audit sink. Recording is
// fire-and-forget: a sink failure never fails the access decision.
type AuditEvent struct {
	EventID    uuid.UUID       `json:"event_id"`
	Type       EventType       `json:"type"`
	UserID     uuid.UUID       `json:"user_id"`
	ScanID     string          `json:"scan_id,omitempty"`
	ResourceID uuid.UUID       `json:"resource_id,omitempty"`
	Decision   Decision        `json:"decision,omitempty"`
	TrustScore int             `json:"trust_score,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewAuditEvent builds an audit event with a fresh id and timestamp.
func NewAuditEvent(t EventType, userID uuid.UUID) AuditEvent {
	return AuditEvent{
		EventID:    uuid.New(),
		Type:       t,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}
