package auth

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused
const maxPasswordBytes = 72

type RegisterUserMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Normalize trims names and canonicalizes the email.
func (e RegisterUserMessage) Normalize() RegisterUserMessage {
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.Email = NormalizeEmail(e.Email)
	return e
}

// Validate checks every field is present and the email is well formed.
func (e RegisterUserMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.FirstName, validation.Required),
		validation.Field(&e.LastName, validation.Required),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.By(notBlank), validation.By(passwordLength)),
	)
	return validationError(err)
}

// LoginMessage is the login payload
type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e LoginMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required),
		validation.Field(&e.Password, validation.Required),
	)
	return validationError(err)
}

// notBlank rejects values made only of whitespace, which Required accepts.
func notBlank(value any) error {
	s, _ := value.(string)
	if s != "" && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func passwordLength(value any) error {
	s, _ := value.(string)
	if len(s) > maxPasswordBytes {
		return errors.New("must be at most 72 bytes")
	}
	return nil
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return withCause(ErrValidation, err).WithMetadata(map[string]any{"fields": fields})
	}
	return withCause(ErrValidation, err)
}

// RegisterUserHandler turns a registration message into a registry record
type RegisterUserHandler struct {
	repo   Users
	hasher PasswordAuthenticator
}

func NewRegisterUserHandler(repo Users, hasher PasswordAuthenticator) *RegisterUserHandler {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &RegisterUserHandler{repo: repo, hasher: hasher}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	event = event.Normalize()
	if err := event.Validate(); err != nil {
		return nil, err
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			return nil, richErr
		}
		return nil, internalError(err, "failed to hash password")
	}

	// self registration never grants admin
	return h.repo.Insert(ctx, &User{
		Email:        event.Email,
		FirstName:    event.FirstName,
		LastName:     event.LastName,
		PasswordHash: hash,
		Role:         RoleUser,
	})
}
