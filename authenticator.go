package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type Auther struct {
	users        Users
	provider     IdentityProvider
	register     *RegisterUserHandler
	tokenService TokenService
	logger       Logger
	activitySink ActivitySink
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, tokenService TokenService) *Auther {
	return &Auther{
		users:        users,
		provider:     NewUserProvider(users),
		register:     NewRegisterUserHandler(users, BcryptHasher{}),
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	if up, ok := s.provider.(*UserProvider); ok {
		up.WithLogger(s.logger)
	}
	return s
}

// WithIdentityProvider replaces the credential verifier.
func (s *Auther) WithIdentityProvider(provider IdentityProvider) *Auther {
	if provider != nil {
		s.provider = provider
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Users returns the registry backing this Authenticator
func (s *Auther) Users() Users {
	return s.users
}

// Register validates msg, hashes the password and inserts a User-role account.
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	user, err := s.register.Execute(ctx, msg)
	if err != nil {
		s.logger.Info("Register failed", "email", NormalizeEmail(msg.Email), "error", err)
		s.emit(ctx, ActivityEvent{
			EventType: ActivityEventRegisterFailure,
			Subject:   NormalizeEmail(msg.Email),
			Metadata:  map[string]any{"error": err.Error()},
		})
		return nil, err
	}

	s.emit(ctx, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		Subject:   user.Email,
		UserID:    user.ID,
		Role:      user.Role,
	})
	return user, nil
}

// Login verifies the credentials and issues a token. Every credential
// failure collapses into ErrInvalidCredentials.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	if err := (LoginMessage{Email: email, Password: password}).Validate(); err != nil {
		return "", err
	}

	user, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.emit(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Subject:   NormalizeEmail(email),
			Metadata:  map[string]any{"error": err.Error()},
		})
		if HasTextCode(err, TextCodePasswordMismatch) || goerrors.IsNotFound(err) {
			return "", ErrInvalidCredentials
		}
		s.logger.Error("Login verify identity error", "error", err)
		return "", err
	}

	if user == nil {
		s.logger.Error("Login identity is nil")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(NewIdentityFromUser(user))
	if err != nil {
		s.logger.Error("Login failed to issue token", "user_id", user.ID, "error", err)
		s.emit(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Subject:   user.Email,
			UserID:    user.ID,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return "", err
	}

	s.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Subject:   user.Email,
		UserID:    user.ID,
		Role:      user.Role,
	})

	return token, nil
}

// IdentityFromClaims resolves the registry record behind verified claims.
func (s *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (*User, error) {
	if claims == nil {
		return nil, ErrUnableToMapClaims
	}
	user, err := s.provider.FindIdentityByIdentifier(ctx, claims.Subject())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return user, nil
}

// Dashboard aggregates a registry snapshot for admins.
func (s *Auther) Dashboard(ctx context.Context) (DashboardResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return DashboardResponse{}, err
	}
	out := DashboardResponse{
		UserCount: len(users),
		Users:     make([]UserSummary, 0, len(users)),
	}
	for i := range users {
		out.Users = append(out.Users, users[i].Summary())
	}
	return out, nil
}

// Profile returns the caller's own record; a vanished account is
// ErrUserNotFound rather than an auth failure.
func (s *Auther) Profile(ctx context.Context, claims AuthClaims) (UserSummary, error) {
	if claims == nil {
		return UserSummary{}, ErrUnableToMapClaims
	}
	user, err := s.users.FindByEmail(ctx, claims.Subject())
	if err != nil {
		return UserSummary{}, err
	}
	return user.Summary(), nil
}

// RecordAccessDenied emits an audit event for a role mismatch.
func (s *Auther) RecordAccessDenied(ctx context.Context, claims AuthClaims, required Role, path string) {
	event := ActivityEvent{
		EventType: ActivityEventAccessDenied,
		Metadata:  map[string]any{"required_role": string(required), "path": path},
	}
	if claims != nil {
		event.Subject = claims.Subject()
		event.Role = claims.Role()
	}
	s.emit(ctx, event)
}

// RecordTokenRejected emits an audit event for a failed token check. The
// reason is for the audit trail only.
func (s *Auther) RecordTokenRejected(ctx context.Context, reason, path string) {
	s.emit(ctx, ActivityEvent{
		EventType: ActivityEventTokenRejected,
		Metadata:  map[string]any{"reason": reason, "path": path},
	})
}

func (s *Auther) emit(ctx context.Context, event ActivityEvent) {
	emitActivity(ctx, s.activitySink, s.logger, event)
}
