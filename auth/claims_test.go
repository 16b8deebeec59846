package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseClaims(t *testing.T) {
	token := signToken(t, Claims{
		AccountID: "acct-1",
		SessionID: "sess-1",
		ProjectID: "proj-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	})

	claims, err := ParseClaims(token)
	if err != nil {
		t.Fatalf("parse claims: %v", err)
	}
	if claims.AccountID != "acct-1" || claims.SessionID != "sess-1" || claims.ProjectID != "proj-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseClaimsExpired(t *testing.T) {
	token := signToken(t, Claims{
		AccountID: "acct-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	claims, err := ParseClaims(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	// Claims are still returned for callers that want the identifiers.
	if claims.AccountID != "acct-1" {
		t.Fatalf("expected claims alongside expiry error, got %+v", claims)
	}
}

func TestParseClaimsMalformed(t *testing.T) {
	if _, err := ParseClaims("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
