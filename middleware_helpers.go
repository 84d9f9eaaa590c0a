package auth

import (
	"context"

	"github.com/goliatone/go-authgate/middleware/jwtware"
)

// JWTValidatorAdapter exposes a TokenValidator to jwtware, which only knows
// about subjects.
func JWTValidatorAdapter(v TokenValidator) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(tokenString string) (jwtware.AuthClaims, error) {
		claims, err := v.Validate(tokenString)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}

// ContextEnricherAdapter adapts jwtware.AuthClaims to auth.AuthClaims and
// stores them in the standard context for downstream guard usage.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}

// IdentityEnricherAdapter stores a resolved *User in the standard context.
func IdentityEnricherAdapter(c context.Context, identity any) context.Context {
	user, ok := identity.(*User)
	if !ok {
		return c
	}
	return WithContext(c, user)
}

// IdentityResolverAdapter resolves the claims subject through the
// authenticator. A missing record is an authentication failure here because
// the caller asked for an identity the token no longer backs.
func IdentityResolverAdapter(a Authenticator) func(context.Context, jwtware.AuthClaims) (any, error) {
	return func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
		authClaims, ok := claims.(AuthClaims)
		if !ok {
			return nil, ErrUnableToMapClaims
		}
		user, err := a.IdentityFromClaims(ctx, authClaims)
		if err != nil {
			return nil, err
		}
		return user, nil
	}
}
