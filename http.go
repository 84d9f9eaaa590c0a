package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-authgate/middleware/jwtware"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Fields any    `json:"fields,omitempty"`
}

// RouteAuthenticator wires the token middleware and role guards for fiber
// routes and renders every error with a stable status.
type RouteAuthenticator struct {
	auth             *Auther
	validator        TokenValidator
	cfg              Config
	Logger           Logger
	AuthErrorHandler fiber.ErrorHandler
	ErrorHandler     fiber.ErrorHandler
}

func NewHTTPAuthenticator(auther *Auther, cfg Config) *RouteAuthenticator {
	a := &RouteAuthenticator{
		auth:      auther,
		validator: auther.TokenService(),
		cfg:       cfg,
		Logger:    auther.logger,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a
}

// ProtectedRoute returns the jwtware middleware. With resolveIdentity set the
// registry record behind the token is loaded and stored for the handler.
func (a *RouteAuthenticator) ProtectedRoute(resolveIdentity bool) fiber.Handler {
	cfg := jwtware.Config{
		ErrorHandler:    a.AuthErrorHandler,
		TokenValidator:  JWTValidatorAdapter(a.validator),
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextEnricher: ContextEnricherAdapter,
	}
	if resolveIdentity {
		cfg.IdentityResolver = IdentityResolverAdapter(a.auth)
		cfg.IdentityEnricher = IdentityEnricherAdapter
	}
	return jwtware.New(cfg)
}

// RequireRole guards a route with the role check, auditing every denial.
func (a *RouteAuthenticator) RequireRole(role Role) fiber.Handler {
	return RoleGuard(a.cfg.GetContextKey(), role, func(c *fiber.Ctx, claims AuthClaims, required Role) {
		a.Logger.Info("Access denied",
			"subject", claims.Subject(),
			"role", string(claims.Role()),
			"required_role", string(required),
			"path", c.Path(),
		)
		a.auth.RecordAccessDenied(c.UserContext(), claims, required, c.Path())
	})
}

// defaultAuthErrHandler logs the real reason and answers with one uniform
// 401 so callers cannot tell an expired token from a forged one.
func (a *RouteAuthenticator) defaultAuthErrHandler(c *fiber.Ctx, err error) error {
	reason := "invalid"
	switch {
	case errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
		reason = "missing"
	case IsTokenExpiredError(err):
		reason = "expired"
	case errors.Is(err, jwtware.ErrIdentityUnresolved):
		reason = "unresolved"
	case IsMalformedError(err):
		reason = "malformed"
	}

	a.Logger.Info("Authentication error", "reason", reason, "error", err, "path", c.Path())
	a.auth.RecordTokenRejected(c.UserContext(), reason, c.Path())

	return a.ErrorHandler(c, ErrUnauthorized)
}

// defaultErrHandler renders any error returned by a handler. It also serves
// as the fiber app ErrorHandler.
func (a *RouteAuthenticator) defaultErrHandler(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: fiberErr.Message})
		}
		richErr = internalError(err, "An unexpected server error occurred")
	}

	status := StatusFor(richErr)
	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("Request failed", "error", err, "path", c.Path())
	} else {
		a.Logger.Debug("Request rejected",
			"status", status,
			"error", richErr.Message,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
	}

	body := ErrorResponse{Error: richErr.Message, Code: richErr.TextCode}
	if status >= fiber.StatusInternalServerError {
		body.Error = "internal server error"
	}
	if IsAuthError(richErr) {
		// token and credential failures all look the same from outside
		body = authFailureBody(richErr)
	}
	if fields, ok := richErr.Metadata["fields"]; ok {
		body.Fields = fields
	}

	return c.Status(status).JSON(body)
}

func authFailureBody(err *goerrors.Error) ErrorResponse {
	if HasTextCode(err, TextCodeInvalidCredentials) {
		return ErrorResponse{Error: ErrInvalidCredentials.Message, Code: ErrInvalidCredentials.TextCode}
	}
	return ErrorResponse{Error: ErrUnauthorized.Message, Code: ErrUnauthorized.TextCode}
}
