package auth

// Role constants referenced by resource allowed-roles lists.
const (
	RoleUser       = "user"
	RoleEngineer   = "engineer"
	RoleAnalyst    = "analyst"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// AllRoles returns all valid roles.
func AllRoles() []string {
	return []string{RoleUser, RoleEngineer, RoleAnalyst, RoleAdmin, RoleSuperAdmin}
}

// ValidRole reports whether the given role is known.
func ValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}
