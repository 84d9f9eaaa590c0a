package auth

// TokenValidator turns a raw token into verified claims. The middleware only
// depends on this, so the signing implementation can be swapped in tests.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}
