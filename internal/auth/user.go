package auth

import (
	"garansi-console/internal/rbac"
	"garansi-console/pkg/utils"
)

// User is the profile returned by the login endpoint. It is replaced only by
// a fresh login.
type User struct {
	ID    utils.FlexID `json:"id"`
	Name  string       `json:"name"`
	Phone string       `json:"phone"`
	Role  rbac.Role    `json:"role"`
}
