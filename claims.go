package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the verified payload of a token as seen by handlers
type AuthClaims interface {
	Subject() string
	Role() Role
	HasRole(role Role) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. The field set is
// closed: subject, role and the registered timestamps.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserRole Role `json:"role"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim, the user's email
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Role returns the role copied into the token at issuance
func (c *JWTClaims) Role() Role {
	return c.UserRole
}

// HasRole checks if the token carries exactly the given role
func (c *JWTClaims) HasRole(role Role) bool {
	return c.UserRole.Is(role)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
