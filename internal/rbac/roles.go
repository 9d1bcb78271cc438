package rbac

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the closed set of console roles. Keep these stable; the API sends
// them verbatim in the user profile.
type Role string

const (
	RoleManager       Role = "MANAGER"
	RoleSupervisor    Role = "SUPERVISOR"
	RoleSales         Role = "SALES"
	RoleServiceCenter Role = "SERVICE_CENTER"
)

// Console landing paths.
const (
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
	PathProducts  = "/products"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleManager, RoleSupervisor, RoleSales, RoleServiceCenter}
}

func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleSupervisor, RoleSales, RoleServiceCenter:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole accepts any case and surrounding whitespace.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("rbac: unknown role %q", s)
	}
	return r, nil
}

// DefaultLanding is where a role lands after login or after being turned away
// from a page it may not see.
func DefaultLanding(r Role) string {
	if r == RoleManager {
		return PathDashboard
	}
	return PathProducts
}

// UnmarshalJSON normalizes case so "manager" and "MANAGER" decode alike.
// Unknown values are kept; the guard treats them as matching no allow list.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = Role(strings.ToUpper(strings.TrimSpace(s)))
	return nil
}
