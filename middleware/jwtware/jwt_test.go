package jwtware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authgate/middleware/jwtware"
)

type testClaims struct {
	sub string
}

func (c testClaims) Subject() string { return c.sub }

type ctxKey struct{}

var errBadToken = errors.New("token is malformed")

// validator accepts exactly one token string
func validator(valid string) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(tokenString string) (jwtware.AuthClaims, error) {
		if tokenString != valid {
			return nil, errBadToken
		}
		return testClaims{sub: "alice@x.com"}, nil
	})
}

func newApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(jwtware.AuthClaims)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		out := fiber.Map{"sub": claims.Subject()}
		if id := c.Locals("identity"); id != nil {
			out["identity"] = id
		}
		if v, ok := c.UserContext().Value(ctxKey{}).(string); ok {
			out["ctx"] = v
		}
		return c.JSON(out)
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, header string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(body) == 0 {
		return resp.StatusCode, out
	}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(body, &out))
		return resp.StatusCode, out
	}
	out["raw"] = string(body)
	return resp.StatusCode, out
}

func TestJWTWare_BasicHeaderExtraction(t *testing.T) {
	app := newApp(jwtware.Config{TokenValidator: validator("good")})

	status, body := doGet(t, app, "Bearer good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alice@x.com", body["sub"])

	status, body = doGet(t, app, "bearer good")
	assert.Equal(t, fiber.StatusOK, status, "scheme is case insensitive")
	assert.Equal(t, "alice@x.com", body["sub"])
}

func TestJWTWare_RejectsWithUniformBody(t *testing.T) {
	app := newApp(jwtware.Config{TokenValidator: validator("good")})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic good"},
		{name: "scheme only", header: "Bearer "},
		{name: "no separator", header: "Bearergood"},
		{name: "malformed token", header: "Bearer malformed.token.structure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doGet(t, app, tt.header)
			assert.Equal(t, fiber.StatusUnauthorized, status)
			assert.Equal(t, "unauthorized", body["error"])
		})
	}
}

func TestJWTWare_ErrorHandlerReceivesCause(t *testing.T) {
	var got []error
	app := newApp(jwtware.Config{
		TokenValidator: validator("good"),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			got = append(got, err)
			return c.SendStatus(fiber.StatusUnauthorized)
		},
	})

	status, body := doGet(t, app, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["raw"])
	status, _ = doGet(t, app, "Bearer other")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	require.Len(t, got, 2)
	assert.ErrorIs(t, got[0], jwtware.ErrJWTMissingOrMalformed)
	assert.ErrorIs(t, got[1], errBadToken)
}

func TestJWTWare_IdentityResolver(t *testing.T) {
	t.Run("stores resolved identity", func(t *testing.T) {
		app := newApp(jwtware.Config{
			TokenValidator: validator("good"),
			IdentityResolver: func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
				return "record:" + claims.Subject(), nil
			},
		})

		status, body := doGet(t, app, "Bearer good")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "record:alice@x.com", body["identity"])
	})

	t.Run("unresolved identity short circuits", func(t *testing.T) {
		handlerRan := false
		app := fiber.New()
		app.Get("/protected", jwtware.New(jwtware.Config{
			TokenValidator: validator("good"),
			IdentityResolver: func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
				return nil, errors.New("gone")
			},
		}), func(c *fiber.Ctx) error {
			handlerRan = true
			return c.SendStatus(fiber.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer good")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.False(t, handlerRan)
	})
}

func TestJWTWare_ContextEnricher(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: validator("good"),
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			return context.WithValue(ctx, ctxKey{}, claims.Subject())
		},
	})

	status, body := doGet(t, app, "Bearer good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alice@x.com", body["ctx"])
}

func TestJWTWare_ValidationListenerCanReject(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: validator("good"),
		ValidationListeners: []jwtware.ValidationListener{
			nil,
			func(c *fiber.Ctx, claims jwtware.AuthClaims) error {
				return errors.New("listener refused")
			},
		},
	})

	status, _ := doGet(t, app, "Bearer good")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestJWTWare_CustomTokenLookup(t *testing.T) {
	app := fiber.New()
	app.Get("/protected", jwtware.New(jwtware.Config{
		TokenValidator: validator("good"),
		TokenLookup:    "header:X-Token,query:auth_token,cookie:jwt",
		AuthScheme:     "Token",
	}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		name   string
		target string
		build  func(r *http.Request)
		status int
	}{
		{
			name:   "custom header",
			build:  func(r *http.Request) { r.Header.Set("X-Token", "Token good") },
			status: fiber.StatusNoContent,
		},
		{
			name:   "query",
			target: "/protected?auth_token=good",
			status: fiber.StatusNoContent,
		},
		{
			name:   "query with wrong token",
			target: "/protected?auth_token=bad",
			status: fiber.StatusUnauthorized,
		},
		{
			name:   "cookie",
			build:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: "good"}) },
			status: fiber.StatusNoContent,
		},
		{
			name:   "default header ignored",
			build:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			status: fiber.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.target
			if target == "" {
				target = "/protected"
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.build != nil {
				tt.build(req)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestJWTWare_FilterSkipsAuth(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: validator("good"),
		Filter:         func(c *fiber.Ctx) bool { return true },
	})

	// the handler itself fails without claims, which proves the filter ran
	status, body := doGet(t, app, "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", body["raw"])
}

func TestGetDefaultConfig(t *testing.T) {
	t.Run("requires a validator", func(t *testing.T) {
		assert.Panics(t, func() { jwtware.GetDefaultConfig() })
	})

	t.Run("fills defaults", func(t *testing.T) {
		cfg := jwtware.GetDefaultConfig(jwtware.Config{TokenValidator: validator("x")})
		assert.Equal(t, "user", cfg.ContextKey)
		assert.Equal(t, "identity", cfg.IdentityKey)
		assert.Equal(t, "header:Authorization", cfg.TokenLookup)
		assert.Equal(t, "Bearer", cfg.AuthScheme)
		assert.NotNil(t, cfg.ErrorHandler)
		assert.NotNil(t, cfg.SuccessHandler)
	})
}
