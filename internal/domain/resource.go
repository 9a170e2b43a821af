package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sensitivity classifies how protected a resource is.
type Sensitivity string

const (
	SensitivityStandard Sensitivity = "standard"
	SensitivityElevated Sensitivity = "elevated"
	SensitivityCritical Sensitivity = "critical"
)

// Resource is a protected target of an access request. Immutable during
// evaluation.
type Resource struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Sensitivity  Sensitivity `json:"sensitivity"`
	MFARequired  bool        `json:"mfa_required"`
	AllowedRoles []string    `json:"allowed_roles"`
	CreatedAt    time.Time   `json:"created_at"`
}

// RoleAllowed reports whether the given role may request access. An empty
// allowed-roles list means the resource is open to any authenticated role.
func (r *Resource) RoleAllowed(role string) bool {
	if len(r.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}
