package domain

import (
	"fmt"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateSensitivity checks a resource sensitivity value.
func ValidateSensitivity(s Sensitivity) error {
	switch s {
	case SensitivityStandard, SensitivityElevated, SensitivityCritical:
		return nil
	}
	return fmt.Errorf("invalid sensitivity: %s", s)
}

// ValidatePolicyConfig checks a scoring configuration for internal
// consistency before it can be saved or activated.
func ValidatePolicyConfig(c PolicyConfig) error {
	t := c.Thresholds
	if t.Allow < 0 || t.Allow > 100 || t.MFA < 0 || t.MFA > 100 {
		return fmt.Errorf("thresholds must be within 0-100")
	}
	if t.Allow < t.MFA {
		return fmt.Errorf("allow threshold (%d) must be >= mfa threshold (%d)", t.Allow, t.MFA)
	}
	if t.MFA < t.Block {
		return fmt.Errorf("mfa threshold (%d) must be >= block threshold (%d)", t.MFA, t.Block)
	}

	w := c.FactorWeights
	for name, v := range map[string]int{
		"device_trust":         w.DeviceTrust,
		"network_security":     w.NetworkSecurity,
		"resource_sensitivity": w.ResourceSensitivity,
		"user_behavior":        w.UserBehavior,
		"time_context":         w.TimeContext,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("factor weight %s must be within 0-100, got %d", name, v)
		}
	}

	m := c.ResourceMultipliers
	if m.Standard <= 0 || m.Elevated <= 0 || m.Critical <= 0 {
		return fmt.Errorf("resource multipliers must be positive")
	}

	return nil
}
