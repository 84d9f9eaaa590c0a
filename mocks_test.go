package auth_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-authgate"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret = "test-signing-secret"
	testSalt   = "test-salt"
)

func TestMain(m *testing.M) {
	// keep bcrypt fast, the cost itself is covered in bcrypt_test.go
	auth.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*auth.User, error) {
	args := m.Called(ctx, identifier, password)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// recordingSink collects every activity event
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Types() []auth.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

func (r *recordingSink) Last(eventType auth.ActivityEventType) (auth.ActivityEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].EventType == eventType {
			return r.events[i], true
		}
	}
	return auth.ActivityEvent{}, false
}

func nopLogger() auth.Logger {
	return auth.NewZapLogger(zap.NewNop())
}

func testSettings() *auth.Settings {
	s := auth.DefaultSettings()
	s.JWT.Secret = testSecret
	s.JWT.Salt = testSalt
	s.JWT.Expiration = auth.Duration(time.Hour)
	s.Admin.Seed = true
	s.Admin.Password = "adminpassword"
	return s
}

func newTokenService(t *testing.T, opts ...auth.TokenServiceOption) *auth.TokenServiceImpl {
	t.Helper()
	opts = append([]auth.TokenServiceOption{auth.WithTokenLogger(nopLogger())}, opts...)
	ts, err := auth.NewTokenServiceFromConfig(testSettings(), opts...)
	require.NoError(t, err)
	return ts
}

func registerMsg(email string) auth.RegisterUserMessage {
	return auth.RegisterUserMessage{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     email,
		Password:  "s3cret-pass",
	}
}
