package auth

import (
	"context"
)

type ctxKey int

const (
	identityCtxKey ctxKey = iota
	claimsCtxKey
)

// WithContext stores the resolved registry user on ctx.
func WithContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, identityCtxKey, user)
}

// FromContext returns the user stored by WithContext. A nil user is reported
// as absent.
func FromContext(ctx context.Context) (*User, bool) {
	user, _ := ctx.Value(identityCtxKey).(*User)
	return user, user != nil
}

// WithClaimsContext stores verified token claims on ctx.
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims returns the claims stored by WithClaimsContext.
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	claims, _ := ctx.Value(claimsCtxKey).(AuthClaims)
	return claims, claims != nil
}

// HasRole reports whether the claims on ctx carry exactly role.
func HasRole(ctx context.Context, role Role) bool {
	if claims, ok := GetClaims(ctx); ok {
		return claims.HasRole(role)
	}
	return false
}
