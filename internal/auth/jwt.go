package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Inspect decodes the token payload without verifying its signature.
func Inspect(token string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// ExpiresAt returns the token's exp claim. ok is false when the token cannot
// be decoded or carries no exp.
func ExpiresAt(token string) (time.Time, bool) {
	claims, err := Inspect(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// TokenExpired reports whether the token's exp lies before now.
//
// Tokens that fail to decode or have no exp are reported as not expired; the
// API still rejects them if they are bad, and the pipeline then clears them.
func TokenExpired(token string, now time.Time) bool {
	exp, ok := ExpiresAt(token)
	if !ok {
		return false
	}
	return exp.Before(now)
}
