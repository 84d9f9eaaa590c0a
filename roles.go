package auth

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the closed set of roles a user can hold. Roles are only ever
// compared for equality.
type Role string

const (
	// RoleAdmin can reach every admin route
	RoleAdmin Role = "Admin"
	// RoleUser is the default role for self registered accounts
	RoleUser Role = "User"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Is reports whether r equals the required role.
func (r Role) Is(required Role) bool {
	return r.IsValid() && r == required
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{RoleAdmin, RoleUser}
}

// ParseRole parses a role name case-insensitively.
func ParseRole(roleStr string) (Role, bool) {
	for _, r := range GetAllRoles() {
		if strings.EqualFold(string(r), strings.TrimSpace(roleStr)) {
			return r, true
		}
	}
	return Role(roleStr), false
}

// UnmarshalJSON rejects unknown roles so a decoded claim can never carry one.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	role, ok := ParseRole(s)
	if !ok {
		return fmt.Errorf("unknown role %q", s)
	}
	*r = role
	return nil
}
