package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-authgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleGuard(t *testing.T) {
	tests := []struct {
		name       string
		claims     auth.AuthClaims
		required   auth.Role
		wantStatus int
		wantDenied bool
	}{
		{"admin allowed", &auth.JWTClaims{UserRole: auth.RoleAdmin}, auth.RoleAdmin, http.StatusNoContent, false},
		{"user allowed", &auth.JWTClaims{UserRole: auth.RoleUser}, auth.RoleUser, http.StatusNoContent, false},
		{"user denied", &auth.JWTClaims{UserRole: auth.RoleUser}, auth.RoleAdmin, http.StatusForbidden, true},
		{"admin denied on user route", &auth.JWTClaims{UserRole: auth.RoleAdmin}, auth.RoleUser, http.StatusForbidden, true},
		{"no claims", nil, auth.RoleUser, http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			denied := false
			app := fiber.New(fiber.Config{
				ErrorHandler: func(c *fiber.Ctx, err error) error {
					return c.SendStatus(auth.StatusFor(err))
				},
			})
			app.Get("/",
				func(c *fiber.Ctx) error {
					if tt.claims != nil {
						c.Locals("user", tt.claims)
					}
					return c.Next()
				},
				auth.RoleGuard("", tt.required, func(_ *fiber.Ctx, claims auth.AuthClaims, required auth.Role) {
					denied = true
					assert.Equal(t, tt.required, required)
				}),
				func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) },
			)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantDenied, denied)
		})
	}
}

func TestProtectedRouteStoresClaimsAndIdentity(t *testing.T) {
	s := newTestServer(t, true)
	httpAuth := auth.NewHTTPAuthenticator(s.auther, testSettings())

	app := fiber.New(fiber.Config{ErrorHandler: httpAuth.ErrorHandler})
	app.Get("/me", httpAuth.ProtectedRoute(true), func(c *fiber.Ctx) error {
		claims, okClaims := auth.ClaimsFromLocals(c, "")
		user, okUser := auth.UserFromLocals(c, "")
		ctxUser, okCtx := auth.FromContext(c.UserContext())
		if !okClaims || !okUser || !okCtx || !auth.HasRole(c.UserContext(), auth.RoleAdmin) {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"sub": claims.Subject(), "id": user.ID, "ctx_id": ctxUser.ID})
	})

	token, err := s.tokens.Issue("admin@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "admin@example.com", body["sub"])
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, float64(1), body["ctx_id"])
}

func TestJWTValidatorAdapter(t *testing.T) {
	ts := newTokenService(t)
	token, err := ts.Issue("alice@x.com", auth.RoleUser)
	require.NoError(t, err)

	v := auth.JWTValidatorAdapter(ts)
	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", claims.Subject())

	claims, err = v.Validate("bogus")
	assert.Nil(t, claims)
	assert.True(t, auth.IsMalformedError(err))
}
