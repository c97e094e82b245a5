package auth_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-auth-gate"
)

// MockUserDirectory implements auth.UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

// MockTwoFactorConfirmations implements auth.TwoFactorConfirmations
type MockTwoFactorConfirmations struct {
	mock.Mock
}

func (m *MockTwoFactorConfirmations) FindByUserID(ctx context.Context, userID string) (*auth.TwoFactorConfirmation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TwoFactorConfirmation), args.Error(1)
}

func (m *MockTwoFactorConfirmations) Create(ctx context.Context, record *auth.TwoFactorConfirmation) (*auth.TwoFactorConfirmation, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TwoFactorConfirmation), args.Error(1)
}

func (m *MockTwoFactorConfirmations) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (auth.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (auth.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.Identity), args.Error(1)
}

// recordingSink captures activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) EventTypes() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.EventType)
	}
	return types
}

// testIdentity is a static auth.Identity
type testIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func (t testIdentity) ID() string       { return t.id }
func (t testIdentity) Username() string { return t.username }
func (t testIdentity) Email() string    { return t.email }
func (t testIdentity) Role() string     { return t.role }

// testConfig is a static auth.Config
type testConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
	loginRoute      string
	errorRoute      string
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey == "" {
		return "test-signing-key"
	}
	return c.signingKey
}

func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetContextKey() string    { return "jwt" }

func (c testConfig) GetTokenExpiration() int {
	if c.tokenExpiration == 0 {
		return 24
	}
	return c.tokenExpiration
}

func (c testConfig) GetExtendedTokenDuration() int { return 72 }
func (c testConfig) GetTokenLookup() string        { return "cookie:jwt" }
func (c testConfig) GetAuthScheme() string         { return "Bearer" }

func (c testConfig) GetIssuer() string {
	if c.issuer == "" {
		return "test-issuer"
	}
	return c.issuer
}

func (c testConfig) GetAudience() []string {
	if c.audience == nil {
		return []string{"test-audience"}
	}
	return c.audience
}

func (c testConfig) GetLoginRoute() string {
	if c.loginRoute == "" {
		return "/login"
	}
	return c.loginRoute
}

func (c testConfig) GetErrorRoute() string {
	if c.errorRoute == "" {
		return "/auth/error"
	}
	return c.errorRoute
}
