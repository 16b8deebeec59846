// Package auth provides authentication helpers for the PrepXL SDK.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims encodes JWT claims embedded into session-bound access tokens.
//
// This is a DTO matching the server's access token contract. The SDK keeps
// this struct local so no server-side module has to be imported.
type Claims struct {
	AccountID string `json:"uid"`
	SessionID string `json:"sid"`
	ProjectID string `json:"pid,omitempty"`
	TokenType string `json:"typ,omitempty"`

	jwt.RegisteredClaims
}

// ErrTokenExpired is returned by ParseClaims for a structurally valid but
// expired token.
var ErrTokenExpired = errors.New("sdk/auth: token expired")

// ParseClaims decodes a session JWT without verifying its signature. The
// backend is the trust boundary; clients only need the embedded identifiers
// and the expiry for local bookkeeping (e.g. scheduling a refresh).
func ParseClaims(token string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, err
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}
