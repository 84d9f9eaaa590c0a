package auth

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes are stable identifiers safe to expose to clients.
const (
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeValidation         = "VALIDATION_FAILED"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodePasswordMismatch   = "PASSWORD_MISMATCH"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeUnauthorized       = "UNAUTHORIZED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	TextCodeClaimsMissing      = "CLAIMS_MISSING"
	TextCodeInternal           = "INTERNAL"
)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrValidation wraps malformed or missing input fields
var ErrValidation = goerrors.New("invalid request payload", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateEmail is returned when registering an email twice
var ErrDuplicateEmail = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrMismatchedHashAndPassword is the hasher result for a wrong password
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is the only login failure clients ever see
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnauthorized is the uniform response for any token problem
var ErrUnauthorized = goerrors.New("unauthorized", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired token signature verified but exp has passed
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed token failed structural or signature checks
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden caller is authenticated but lacks the required role
var ErrForbidden = goerrors.New("access denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrUserNotFound registry lookup miss
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryAuth).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from the request context
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithTextCode(TextCodeClaimsMissing).
	WithCode(goerrors.CodeUnauthorized)

// HasTextCode reports whether any rich error in err's chain carries code.
func HasTextCode(err error, code string) bool {
	for err != nil {
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) {
			return false
		}
		if richErr.TextCode == code {
			return true
		}
		err = richErr.Source
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if HasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if HasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsAuthError reports whether err should be answered with the uniform 401.
func IsAuthError(err error) bool {
	var richErr *goerrors.Error
	return goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryAuth
}

// StatusFor maps any error to the HTTP status the transport should use.
// Errors without a rich code are internal.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code != 0 {
		return richErr.Code
	}
	return http.StatusInternalServerError
}

// withCause returns a copy of base that wraps cause and keeps base's status
// and text code.
func withCause(base *goerrors.Error, cause error) *goerrors.Error {
	out := base.Clone()
	out.Source = cause
	return out
}

// internalError wraps err as a 500 with message.
func internalError(err error, message string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(TextCodeInternal).
		WithCode(goerrors.CodeInternal)
}
