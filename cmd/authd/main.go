// authd serves the registration, login and role protected routes over HTTP.
//
// Configuration comes from an optional YAML file (--config) overridden by
// environment variables (JWT_SECRET, JWT_SALT, JWT_EXPIRATION and friends,
// see auth.LoadSettings). The process refuses to start without a secret, a
// salt and an expiration.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	auth "github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/activitymap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, addr, activityLog string
	var debug bool

	flagSet := pflag.NewFlagSet("authd", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&addr, "addr", "", "listen address, overrides config and AUTH_ADDR")
	flagSet.StringVar(&activityLog, "activity-log", "", "append audit events as JSON lines to this file")
	flagSet.BoolVar(&debug, "debug", false, "development logging")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	logger, err := newLogger(debug)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	settings, err := auth.LoadSettings(configPath, os.Getenv)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if addr != "" {
		settings.Addr = addr
	}

	authLogger := auth.NewZapLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	users := auth.NewMemoryUsers()
	if settings.Admin.Seed {
		admin, err := auth.SeedUser(ctx, users, auth.BcryptHasher{}, auth.User{
			Email:     settings.Admin.Email,
			FirstName: settings.Admin.FirstName,
			LastName:  settings.Admin.LastName,
			Role:      auth.RoleAdmin,
		}, settings.Admin.Password)
		if err != nil {
			logger.Fatal("Failed to seed admin", zap.Error(err))
		}
		logger.Info("Seeded admin account", zap.String("email", admin.Email), zap.Int("id", admin.ID))
	}

	tokens, err := auth.NewTokenServiceFromConfig(settings, auth.WithTokenLogger(authLogger))
	if err != nil {
		logger.Fatal("Failed to create token service", zap.Error(err))
	}

	sink := auth.NewLoggerActivitySink(authLogger)
	if activityLog != "" {
		f, err := os.OpenFile(activityLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			logger.Fatal("Failed to open activity log", zap.Error(err))
		}
		defer f.Close()
		sink = auth.NewMultiActivitySink(sink, activitymap.NewWriterSink(f))
	}

	auther := auth.NewAuthenticator(users, tokens).
		WithLogger(authLogger).
		WithActivitySink(sink)

	httpAuth := auth.NewHTTPAuthenticator(auther, settings)

	app := fiber.New(fiber.Config{
		AppName:               "authd",
		DisableStartupMessage: true,
		ErrorHandler:          httpAuth.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	controller := auth.NewAuthController(auther, httpAuth, auth.WithControllerDebug(debug))
	auth.RegisterAuthRoutes(app, controller)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", zap.String("addr", settings.Addr))
		return app.Listen(settings.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
