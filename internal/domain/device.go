package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeviceType classifies how a device is provisioned.
type DeviceType string

const (
	DeviceManaged  DeviceType = "managed"
	DevicePersonal DeviceType = "personal"
)

// TrustLevel is the registry's standing assessment of a device.
type TrustLevel string

const (
	TrustTrusted     TrustLevel = "trusted"
	TrustUnverified  TrustLevel = "unverified"
	TrustCompromised TrustLevel = "compromised"
)

// Device is one registered device, identified by (user, fingerprint). It is
// created on the first scan carrying an unseen fingerprint and never deleted
// by the engine; last_seen_at and ip_address are refreshed on every scan.
type Device struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Fingerprint string     `json:"fingerprint"`
	DeviceType  DeviceType `json:"device_type"`
	TrustLevel  TrustLevel `json:"trust_level"`
	IsManaged   bool       `json:"is_managed"`
	Platform    string     `json:"platform,omitempty"`
	Browser     string     `json:"browser,omitempty"`
	IPAddress   string     `json:"ip_address,omitempty"`
	FirstSeenAt time.Time  `json:"first_seen_at"`
	LastSeenAt  time.Time  `json:"last_seen_at"`
}

// Age returns how long the device has been known at the given instant.
func (d *Device) Age(now time.Time) time.Duration {
	return now.Sub(d.FirstSeenAt)
}

// DefaultTrustLevel returns the trust level assigned to a device on first
// registration: trusted when managed, unverified otherwise.
func DefaultTrustLevel(managed bool) TrustLevel {
	if managed {
		return TrustTrusted
	}
	return TrustUnverified
}
