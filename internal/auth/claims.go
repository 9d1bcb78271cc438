package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the subset of the API token payload the console reads. The API
// remains the only party that verifies signatures.
type Claims struct {
	jwt.RegisteredClaims

	UserID any    `json:"id,omitempty"`
	Role   string `json:"role,omitempty"`
}
