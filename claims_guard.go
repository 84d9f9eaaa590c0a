package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// AccessDeniedFunc observes role mismatches, e.g. for auditing.
type AccessDeniedFunc func(c *fiber.Ctx, claims AuthClaims, required Role)

// RoleGuard only lets requests through whose injected claims carry
// required. It must run after the jwtware middleware. Missing claims are an
// authentication failure, a role mismatch is an authorization failure.
func RoleGuard(contextKey string, required Role, onDenied AccessDeniedFunc) fiber.Handler {
	if contextKey == "" {
		contextKey = "user"
	}
	denied := forbiddenFor(required)

	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromLocals(c, contextKey)
		if !ok {
			return ErrUnableToMapClaims
		}
		if !claims.HasRole(required) {
			if onDenied != nil {
				onDenied(c, claims, required)
			}
			return denied
		}
		return c.Next()
	}
}

// ClaimsFromLocals reads claims stored by the jwtware middleware.
func ClaimsFromLocals(c *fiber.Ctx, contextKey string) (AuthClaims, bool) {
	if contextKey == "" {
		contextKey = "user"
	}
	claims, ok := c.Locals(contextKey).(AuthClaims)
	return claims, ok && claims != nil
}

// UserFromLocals reads a user resolved by the jwtware middleware.
func UserFromLocals(c *fiber.Ctx, identityKey string) (*User, bool) {
	if identityKey == "" {
		identityKey = "identity"
	}
	user, ok := c.Locals(identityKey).(*User)
	return user, ok && user != nil
}

func forbiddenFor(required Role) *goerrors.Error {
	e := ErrForbidden.Clone()
	e.Message = fmt.Sprintf("%s access required", required)
	return e.WithMetadata(map[string]any{"required_role": string(required)})
}
