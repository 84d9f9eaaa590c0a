package auth_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/goliatone/go-authgate"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      auth.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Wrapped token expired error",
			err:      fmt.Errorf("validate: %w", auth.ErrTokenExpired),
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      auth.ErrTokenMalformed,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured malformed error",
			err:      auth.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "Wrapped library error",
			err:      goerrors.Wrap(errors.New("signature is invalid"), goerrors.CategoryAuth, "token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Expired is not malformed",
			err:      auth.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsMalformedError(tt.err))
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", auth.ErrValidation, http.StatusBadRequest},
		{"duplicate", auth.ErrDuplicateEmail, http.StatusConflict},
		{"credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired", auth.ErrTokenExpired, http.StatusUnauthorized},
		{"forbidden", auth.ErrForbidden, http.StatusForbidden},
		{"not found", auth.ErrUserNotFound, http.StatusNotFound},
		{"wrapped", fmt.Errorf("outer: %w", auth.ErrDuplicateEmail), http.StatusConflict},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"rich without code", goerrors.New("no code", goerrors.CategoryOperation), http.StatusInternalServerError},
		{"explicit code", goerrors.New("teapot", goerrors.CategoryInternal).WithCode(http.StatusTeapot), http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.StatusFor(tt.err))
		})
	}
}

func TestHasTextCode(t *testing.T) {
	clone := auth.ErrDuplicateEmail.Clone().WithMetadata(map[string]any{"email": "a@x.com"})

	assert.True(t, auth.HasTextCode(clone, auth.TextCodeDuplicateEmail))
	assert.False(t, auth.HasTextCode(clone, auth.TextCodeValidation))
	assert.Nil(t, auth.ErrDuplicateEmail.Metadata, "sentinel metadata must stay untouched")

	outer := goerrors.Wrap(fmt.Errorf("insert: %w", clone), goerrors.CategoryInternal, "register failed")
	assert.True(t, auth.HasTextCode(outer, auth.TextCodeDuplicateEmail))

	assert.False(t, auth.HasTextCode(nil, auth.TextCodeDuplicateEmail))
	assert.False(t, auth.HasTextCode(errors.New("plain"), auth.TextCodeDuplicateEmail))
}

func TestValidateErrorsCarryTextCodes(t *testing.T) {
	ts := newTokenService(t)

	_, err := ts.Validate("not-a-token")
	require.Error(t, err)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeTokenMalformed))
	assert.True(t, auth.IsMalformedError(err))
	assert.Equal(t, http.StatusUnauthorized, auth.StatusFor(err))

	var richErr *goerrors.Error
	if assert.ErrorAs(t, err, &richErr) {
		assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
		assert.NotNil(t, richErr.Source)
	}
}

func TestWrapKeepsSource(t *testing.T) {
	cause := errors.New("disk on fire")
	wrapped := goerrors.Wrap(cause, goerrors.CategoryInternal, "lookup failed")

	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, http.StatusInternalServerError, auth.StatusFor(wrapped))
	assert.False(t, auth.IsAuthError(wrapped))
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, auth.IsAuthError(auth.ErrUnauthorized))
	assert.True(t, auth.IsAuthError(auth.ErrInvalidCredentials))
	assert.False(t, auth.IsAuthError(auth.ErrForbidden))
	assert.False(t, auth.IsAuthError(errors.New("token is expired")))
	assert.True(t, auth.IsAuthError(fmt.Errorf("login: %w", auth.ErrInvalidCredentials)))
}
