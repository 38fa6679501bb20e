// Package jwtx signs and verifies the EdDSA bearer tokens accepted by the
// admin API.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAdminTokenTTL is the lifetime handed out by the admin CLI when the
// operator does not ask for something else.
const DefaultAdminTokenTTL = 24 * time.Hour

// Admin API scopes.
const (
	ScopeAdminRead  = "admin:read"
	ScopeAdminWrite = "admin:write"
)

// Claims are the bearer-token claims accepted by the admin API.
type Claims struct {
	jwt.RegisteredClaims

	// Permission Scopes "admin:read admin:write"
	Scopes []string `json:"scopes,omitempty"`
}

// NewAdminClaims builds claims for an operator token valid from now for ttl.
func NewAdminClaims(subject string, scopes []string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        newJTI(),
		},
		Scopes: scopes,
	}
}

func newJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// HasScope reports whether the claims carry scope s.
func (c Claims) HasScope(s string) bool {
	return slices.Contains(c.Scopes, s)
}

// checkIssuer enforces expected unless it is empty.
func (c Claims) checkIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// checkAudience requires at least one of expected, unless expected is empty.
func (c Claims) checkAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}
