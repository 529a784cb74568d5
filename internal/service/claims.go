package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prepflow/prepflow-go/internal/domain/identity"
)

// AccessClaims is the subset of access-token claims the client inspects
// locally: who the token is for, which role it is scoped to, and when it
// expires. The client holds no verification keys, so the signature is not
// checked; authorization stays a server concern.
type AccessClaims struct {
	Role   identity.Role `json:"role"`
	FirmID string        `json:"firm_id,omitempty"`
	jwt.RegisteredClaims
}

// ParseAccessClaims decodes the claims of an access token without verifying
// its signature.
func ParseAccessClaims(token string) (AccessClaims, error) {
	if token == "" {
		return AccessClaims{}, errors.New("access token is empty")
	}

	var claims AccessClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// ExpiresAt returns the token expiry, zero when the claim is absent.
func (c AccessClaims) ExpiresAt() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// ExpiresWithin reports whether the token expires inside the window. Callers
// may use this as a renewal hint; the gateway still recovers from a late 401.
func (c AccessClaims) ExpiresWithin(window time.Duration) bool {
	exp := c.ExpiresAt()
	if exp.IsZero() {
		return false
	}
	return time.Until(exp) < window
}
