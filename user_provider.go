package auth

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// UserProvider verifies credentials against the registry
type UserProvider struct {
	store  Users
	hasher PasswordAuthenticator
	logger Logger

	dummyOnce sync.Once
	dummyHash string
}

var _ IdentityProvider = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		hasher: BcryptHasher{},
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = normalizeLogger(l)
	return u
}

func (u *UserProvider) WithHasher(h PasswordAuthenticator) *UserProvider {
	if h != nil {
		u.hasher = h
	}
	return u
}

// VerifyIdentity will find the user and compare the password. Unknown emails
// and wrong passwords both return ErrMismatchedHashAndPassword, and both pay
// for one bcrypt comparison.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*User, error) {
	user, err := u.store.FindByEmail(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			_ = u.hasher.ComparePasswordAndHash(password, u.fallbackHash())
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		u.logger.Debug("password verification failed", "user_id", user.ID)
		return nil, ErrMismatchedHashAndPassword
	}

	return user, nil
}

// FindIdentityByIdentifier looks a user up by email
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return u.store.FindByEmail(ctx, identifier)
}

func (u *UserProvider) fallbackHash() string {
	u.dummyOnce.Do(func() {
		h, err := u.hasher.HashPassword("authgate-unknown-account")
		if err != nil {
			u.logger.Error("failed to build fallback hash", "error", err)
			return
		}
		u.dummyHash = h
	})
	return u.dummyHash
}
