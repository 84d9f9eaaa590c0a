package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const signingKeyInfo = "authgate jwt hs256"

// TokenService issues and validates signed session tokens
type TokenService interface {
	Issue(subject string, role Role) (string, error)
	Generate(identity Identity) (string, error)
	TokenValidator
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration time.Duration
	issuer          string
	now             func() time.Time
	logger          Logger
}

// TokenServiceOption customizes a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger used for validation diagnostics.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService creates a new TokenService instance. The HS256 key is
// derived from secret and salt, so rotating either invalidates every token.
func NewTokenService(secret, salt string, tokenExpiration time.Duration, issuer string, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	if secret == "" {
		return nil, goerrors.New("signing secret is required", goerrors.CategoryBadInput).WithTextCode("CONFIG_SECRET")
	}
	if salt == "" {
		return nil, goerrors.New("signing salt is required", goerrors.CategoryBadInput).WithTextCode("CONFIG_SALT")
	}
	if tokenExpiration <= 0 {
		return nil, goerrors.New("token expiration must be positive", goerrors.CategoryBadInput).WithTextCode("CONFIG_EXPIRATION")
	}

	key, err := deriveSigningKey(secret, salt)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive signing key")
	}

	ts := &TokenServiceImpl{
		signingKey:      key,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		now:             time.Now,
		logger:          defLogger{},
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// NewTokenServiceFromConfig builds a token service from a loaded Config.
func NewTokenServiceFromConfig(cfg Config, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	return NewTokenService(
		cfg.GetSigningKey(),
		cfg.GetSalt(),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		opts...,
	)
}

func deriveSigningKey(secret, salt string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(signingKeyInfo))
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Issue creates a token for subject carrying role, valid for the configured
// expiration window.
func (ts *TokenServiceImpl) Issue(subject string, role Role) (string, error) {
	if subject == "" {
		return "", goerrors.New("token subject must not be empty", goerrors.CategoryBadInput)
	}
	if !role.IsValid() {
		return "", goerrors.New(fmt.Sprintf("cannot issue token for role %q", role), goerrors.CategoryBadInput)
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.tokenExpiration)),
			ID:        uuid.NewString(),
		},
		UserRole: role,
	}

	return ts.SignClaims(claims)
}

// Generate issues a token for identity using its email as subject
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	if identity == nil {
		return "", ErrIdentityNotFound
	}
	return ts.Issue(identity.Email(), identity.Role())
}

// SignClaims signs the claims with the derived key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses a token string, checking the signature before expiry, and
// returns structured claims. Expired tokens yield ErrTokenExpired, anything
// else ErrTokenMalformed.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			ts.logger.Debug("TokenService validate rejected expired token")
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("TokenService validate rejected token", "error", err)
		return nil, withCause(ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.Subject() == "" || !claims.UserRole.IsValid() {
		return nil, ErrTokenMalformed.Clone().WithMetadata(map[string]any{"reason": "missing subject or role"})
	}

	return claims, nil
}

// Expiration returns the configured token lifetime
func (ts *TokenServiceImpl) Expiration() time.Duration {
	return ts.tokenExpiration
}
