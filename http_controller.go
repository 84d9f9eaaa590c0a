package auth

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

type AuthControllerRoutes struct {
	Login          string
	Register       string
	Admin          string
	AdminDashboard string
	UserProfile    string
	Health         string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Routes *AuthControllerRoutes
	Auther *Auther
	HTTP   *RouteAuthenticator
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerRoutes overrides the default paths.
func WithControllerRoutes(routes AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Routes = &routes
		return c
	}
}

// WithControllerDebug logs request payloads at debug level.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(auther *Auther, httpAuth *RouteAuthenticator, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: auther.logger,
		Auther: auther,
		HTTP:   httpAuth,
		Routes: &AuthControllerRoutes{
			Login:          "/login",
			Register:       "/register",
			Admin:          "/admin",
			AdminDashboard: "/admin/dashboard",
			UserProfile:    "/user/profile",
			Health:         "/healthz",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// RegisterAuthRoutes mounts the public and protected routes on app.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	h := controller.HTTP

	app.Get(controller.Routes.Health, controller.Health)
	app.Post(controller.Routes.Register, controller.RegistrationCreate)
	app.Post(controller.Routes.Login, controller.LoginPost)

	// /admin returns the whole record so it resolves the user up front;
	// the other two work from the claims alone
	app.Get(controller.Routes.Admin,
		h.ProtectedRoute(true),
		h.RequireRole(RoleAdmin),
		controller.AdminShow,
	)
	app.Get(controller.Routes.AdminDashboard,
		h.ProtectedRoute(false),
		h.RequireRole(RoleAdmin),
		controller.AdminDashboard,
	)
	app.Get(controller.Routes.UserProfile,
		h.ProtectedRoute(false),
		h.RequireRole(RoleUser),
		controller.UserProfile,
	)
}

func (a *AuthController) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	var payload RegisterUserMessage
	if err := c.BodyParser(&payload); err != nil {
		return withCause(ErrValidation, err)
	}

	if a.Debug {
		a.Logger.Debug("Register payload", "email", payload.Email, "first_name", payload.FirstName, "last_name", payload.LastName)
	}

	user, err := a.Auther.Register(c.UserContext(), payload)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(NewRegisteredUser(user))
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	var payload LoginMessage
	if err := c.BodyParser(&payload); err != nil {
		return withCause(ErrValidation, err)
	}

	if a.Debug {
		a.Logger.Debug("Login payload", "email", payload.Email)
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(LoginResponse{Token: token})
}

// AdminShow returns the resolved admin record
func (a *AuthController) AdminShow(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c, "")
	if !ok {
		return ErrIdentityNotFound
	}
	return c.JSON(user)
}

// AdminDashboard returns the registry aggregation
func (a *AuthController) AdminDashboard(c *fiber.Ctx) error {
	dashboard, err := a.Auther.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dashboard)
}

// UserProfile returns the caller's own profile, 404 if it vanished
func (a *AuthController) UserProfile(c *fiber.Ctx) error {
	claims, ok := GetClaims(c.UserContext())
	if !ok {
		return ErrUnableToMapClaims
	}

	profile, err := a.Auther.Profile(c.UserContext(), claims)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return err
		}
		return internalError(err, "failed to load profile")
	}
	return c.JSON(profile)
}
