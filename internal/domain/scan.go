package domain

import (
	"time"

	"github.com/google/uuid"
)

// Decision is the outcome of a trust evaluation.
type Decision string

const (
	DecisionAllow       Decision = "allow"
	DecisionMFARequired Decision = "mfa_required"
	DecisionBlocked     Decision = "blocked"
)

// FactorCategory groups decision factors for presentation.
type FactorCategory string

const (
	CategoryDevice     FactorCategory = "device"
	CategoryNetwork    FactorCategory = "network"
	CategoryResource   FactorCategory = "resource"
	CategoryUser       FactorCategory = "user"
	CategoryBehavioral FactorCategory = "behavioral"
)

// FactorStatus is the per-factor verdict.
type FactorStatus string

const (
	FactorPass FactorStatus = "pass"
	FactorWarn FactorStatus = "warn"
	FactorFail FactorStatus = "fail"
)

// DecisionFactor is one scored dimension of an evaluation. Factors are
// produced fresh per evaluation and persisted only as part of a ScanResult,
// in evaluation order.
type DecisionFactor struct {
	Name     string         `json:"name"`
	Category FactorCategory `json:"category"`
	Status   FactorStatus   `json:"status"`
	Score    int            `json:"score"`
	Weight   int            `json:"weight"`
	Impact   float64        `json:"impact"`
	Details  string         `json:"details"`
}

// ScanResult is one access-evaluation attempt. The decision is computed at
// creation; after that the record only changes along the MFA verification
// transition. A scan belongs exclusively to the user who initiated it.
type ScanResult struct {
	ScanID         string           `json:"scan_id"`
	UserID         uuid.UUID        `json:"user_id"`
	DeviceID       uuid.UUID        `json:"device_id"`
	ResourceID     uuid.UUID        `json:"resource_id"`
	TrustScore     int              `json:"trust_score"`
	Decision       Decision         `json:"decision"`
	DecisionReason string           `json:"decision_reason"`
	Factors        []DecisionFactor `json:"factors"`
	MFARequired    bool             `json:"mfa_required"`
	MFAVerified    bool             `json:"mfa_verified"`
	MFAAttempts    int              `json:"mfa_attempts"`
	AccessGranted  bool             `json:"access_granted"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

// OwnedBy reports whether the scan belongs to the given user.
func (s *ScanResult) OwnedBy(userID uuid.UUID) bool {
	return s.UserID == userID
}

// AwaitingMFA reports whether the scan can accept an MFA verification:
// step-up was required and has not been completed yet.
func (s *ScanResult) AwaitingMFA() bool {
	return s.MFARequired && !s.MFAVerified
}
