package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Users is the shared user registry. Implementations must be safe for
// concurrent use and must never hand out references into their own storage.
type Users interface {
	Insert(ctx context.Context, user *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) int
}

type memoryUsers struct {
	mu      sync.RWMutex
	byEmail map[string]*User
	nextID  int
	now     func() time.Time
}

var _ Users = (*memoryUsers)(nil)

// NewMemoryUsers returns an in-memory registry. Ids start at 1.
func NewMemoryUsers() Users {
	return &memoryUsers{
		byEmail: make(map[string]*User),
		nextID:  1,
		now:     time.Now,
	}
}

// Insert stores a copy of user under a fresh id. Email is normalized and must
// be unique; the check and the write happen under one exclusive lock.
func (r *memoryUsers) Insert(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, ErrValidation
	}
	if err := ctx.Err(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled during user insert")
	}

	record := user.Clone()
	record.Email = NormalizeEmail(record.Email)
	if record.Email == "" {
		return nil, ErrValidation
	}
	if !record.Role.IsValid() {
		record.Role = RoleUser
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[record.Email]; exists {
		return nil, ErrDuplicateEmail
	}

	record.ID = r.nextID
	r.nextID++
	r.byEmail[record.Email] = record

	return record.Clone(), nil
}

// FindByEmail returns a copy of the user registered under email.
func (r *memoryUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled during user lookup")
	}

	key := NormalizeEmail(email)

	r.mu.RLock()
	user, ok := r.byEmail[key]
	var out *User
	if ok {
		out = user.Clone()
	}
	r.mu.RUnlock()

	if !ok {
		return nil, ErrUserNotFound
	}
	return out, nil
}

// List returns a snapshot ordered by id. Serialization happens after the
// lock is released.
func (r *memoryUsers) List(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled during user listing")
	}

	r.mu.RLock()
	out := make([]User, 0, len(r.byEmail))
	for _, u := range r.byEmail {
		out = append(out, *u)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryUsers) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}

// SeedUser hashes password and inserts an account with the given role. It is
// meant for startup fixtures such as the bootstrap admin.
func SeedUser(ctx context.Context, users Users, hasher PasswordAuthenticator, user User, password string) (*User, error) {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	hash, err := hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	return users.Insert(ctx, &user)
}
