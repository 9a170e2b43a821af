package domain

import (
	"time"

	"github.com/google/uuid"
)

// PolicyStatus is the lifecycle state of a scoring policy.
type PolicyStatus string

const (
	PolicyDraft    PolicyStatus = "draft"
	PolicyActive   PolicyStatus = "active"
	PolicyArchived PolicyStatus = "archived"
)

// Thresholds partition the 0-100 score range into decisions. A score at or
// above Allow grants direct access, at or above MFA requires step-up, and
// anything below MFA is blocked. Block is kept for admin display only.
type Thresholds struct {
	Allow int `json:"allow"`
	MFA   int `json:"mfa"`
	Block int `json:"block"`
}

// FactorWeights are percentages scaling each factor's raw score into its
// impact on the aggregate.
type FactorWeights struct {
	DeviceTrust         int `json:"device_trust"`
	NetworkSecurity     int `json:"network_security"`
	ResourceSensitivity int `json:"resource_sensitivity"`
	UserBehavior        int `json:"user_behavior"`
	TimeContext         int `json:"time_context"`
}

// DeviceScoring holds raw point values per device classification. Values may
// be negative.
type DeviceScoring struct {
	Managed     int `json:"managed"`
	Personal    int `json:"personal"`
	Unverified  int `json:"unverified"`
	Compromised int `json:"compromised"`
}

// NetworkScoring holds raw point values per network classification.
type NetworkScoring struct {
	Corporate int `json:"corporate"`
	Home      int `json:"home"`
	Public    int `json:"public"`
	VPN       int `json:"vpn"`
}

// ResourceMultipliers scale the final aggregate score by resource sensitivity.
type ResourceMultipliers struct {
	Standard float64 `json:"standard"`
	Elevated float64 `json:"elevated"`
	Critical float64 `json:"critical"`
}

// BehavioralRules are point penalties for anomalous behavior. Penalties are
// expressed as negative raw scores.
type BehavioralRules struct {
	NewDevicePenalty       int `json:"new_device_penalty"`
	UnusualLocationPenalty int `json:"unusual_location_penalty"`
	OffHoursPenalty        int `json:"off_hours_penalty"`
	RapidAccessPenalty     int `json:"rapid_access_penalty"`
}

// MFARules control when step-up is mandatory regardless of score.
type MFARules struct {
	AlwaysRequireForCritical  bool `json:"always_require_for_critical"`
	RequireForNewDevice       bool `json:"require_for_new_device"`
	RequireForUnusualLocation bool `json:"require_for_unusual_location"`
	RequireAfterDays          int  `json:"require_after_days"`
}

// PolicyConfig groups the scoring configuration of a policy. It is stored as
// a single scoring blob so that one evaluation always observes one consistent
// snapshot.
type PolicyConfig struct {
	Thresholds          Thresholds          `json:"thresholds"`
	FactorWeights       FactorWeights       `json:"factor_weights"`
	DeviceScoring       DeviceScoring       `json:"device_scoring"`
	NetworkScoring      NetworkScoring      `json:"network_scoring"`
	ResourceMultipliers ResourceMultipliers `json:"resource_multipliers"`
	BehavioralRules     BehavioralRules     `json:"behavioral_rules"`
	MFARules            MFARules            `json:"mfa_rules"`
}

// Policy is one versioned scoring policy. Exactly one policy is active at
// evaluation time; when multiple are active the most recently created wins.
type Policy struct {
	ID        uuid.UUID    `json:"id"`
	Version   int          `json:"version"`
	Name      string       `json:"name"`
	Status    PolicyStatus `json:"status"`
	Config    PolicyConfig `json:"config"`
	CreatedBy string       `json:"created_by,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// For returns the score multiplier for a resource sensitivity.
func (m ResourceMultipliers) For(s Sensitivity) float64 {
	switch s {
	case SensitivityElevated:
		return m.Elevated
	case SensitivityCritical:
		return m.Critical
	default:
		return m.Standard
	}
}
