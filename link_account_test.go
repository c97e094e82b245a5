package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-auth-gate"
)

// stubUsers overrides only the calls the link handler makes; everything else
// panics through the embedded nil interface.
type stubUsers struct {
	auth.Users

	mu         sync.Mutex
	stamps     map[uuid.UUID][]time.Time
	registered []*auth.User
	failWith   error
}

func newStubUsers() *stubUsers {
	return &stubUsers{stamps: map[uuid.UUID][]time.Time{}}
}

func (s *stubUsers) MarkEmailVerifiedTx(_ context.Context, _ bun.IDB, id uuid.UUID, at time.Time) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return nil, s.failWith
	}

	s.stamps[id] = append(s.stamps[id], at)
	return &auth.User{ID: id, EmailVerifiedAt: &at}, nil
}

func (s *stubUsers) RegisterTx(_ context.Context, _ bun.IDB, user *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return nil, s.failWith
	}

	s.registered = append(s.registered, user)
	return user, nil
}

func (s *stubUsers) stampsFor(id uuid.UUID) []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.stamps[id]...)
}

type stubLinkedAccounts struct {
	auth.LinkedAccounts

	mu       sync.Mutex
	upserted []*auth.LinkedAccount
}

func (s *stubLinkedAccounts) UpsertTx(_ context.Context, _ bun.IDB, account *auth.LinkedAccount) (*auth.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, account)
	return account, nil
}

func (s *stubLinkedAccounts) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.upserted)
}

type stubRepoManager struct {
	users  *stubUsers
	linked *stubLinkedAccounts
}

func newStubRepoManager() *stubRepoManager {
	return &stubRepoManager{
		users:  newStubUsers(),
		linked: &stubLinkedAccounts{},
	}
}

func (m *stubRepoManager) Validate() error { return nil }
func (m *stubRepoManager) MustValidate()   {}

func (m *stubRepoManager) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(context.Context, bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *stubRepoManager) Users() auth.Users                                   { return m.users }
func (m *stubRepoManager) TwoFactorConfirmations() auth.TwoFactorConfirmations { return nil }
func (m *stubRepoManager) LinkedAccounts() auth.LinkedAccounts                 { return m.linked }

func TestAccountLinkStampsVerification(t *testing.T) {
	repo := newStubRepoManager()
	sink := &recordingSink{}

	linkedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	handler := auth.NewAccountLinkHandler(repo).
		WithActivitySink(sink).
		WithClock(func() time.Time { return linkedAt })

	userID := uuid.New()
	err := handler.Execute(context.Background(), auth.AccountLinkedMessage{
		UserID:            userID.String(),
		Provider:          "google",
		ProviderAccountID: "g-123",
		Email:             "pepe@example.com",
	})
	require.NoError(t, err)

	stamps := repo.users.stampsFor(userID)
	require.Len(t, stamps, 1)
	assert.Equal(t, linkedAt, stamps[0])

	assert.Equal(t, 1, repo.linked.count())

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, auth.ActivityEventAccountLinked, events[0].EventType)
	assert.Equal(t, "google", events[0].Metadata["provider"])
}

func TestAccountLinkRestampIsHarmless(t *testing.T) {
	repo := newStubRepoManager()
	handler := auth.NewAccountLinkHandler(repo)

	userID := uuid.New()
	msg := auth.AccountLinkedMessage{
		UserID:            userID.String(),
		Provider:          "github",
		ProviderAccountID: "gh-77",
	}

	require.NoError(t, handler.Execute(context.Background(), msg))
	require.NoError(t, handler.Execute(context.Background(), msg))

	// linking twice stamps twice; each stamp is a full overwrite, so the
	// account simply stays verified
	assert.Len(t, repo.users.stampsFor(userID), 2)
	assert.Equal(t, 2, repo.linked.count())
}

func TestAccountLinkWithoutProviderStillStamps(t *testing.T) {
	repo := newStubRepoManager()
	handler := auth.NewAccountLinkHandler(repo)

	userID := uuid.New()
	err := handler.Execute(context.Background(), auth.AccountLinkedMessage{
		UserID: userID.String(),
	})
	require.NoError(t, err)

	assert.Len(t, repo.users.stampsFor(userID), 1)
	assert.Equal(t, 0, repo.linked.count())
}

func TestAccountLinkInvalidUserID(t *testing.T) {
	repo := newStubRepoManager()
	handler := auth.NewAccountLinkHandler(repo)

	err := handler.Execute(context.Background(), auth.AccountLinkedMessage{
		UserID: "not-a-uuid",
	})
	require.Error(t, err)
}

func TestAccountLinkUnknownUser(t *testing.T) {
	repo := newStubRepoManager()
	repo.users.failWith = notFoundErr()

	handler := auth.NewAccountLinkHandler(repo)

	err := handler.Execute(context.Background(), auth.AccountLinkedMessage{
		UserID: uuid.NewString(),
	})
	require.Error(t, err)
}

func TestAccountLinkCancelledContext(t *testing.T) {
	repo := newStubRepoManager()
	handler := auth.NewAccountLinkHandler(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, auth.AccountLinkedMessage{UserID: uuid.NewString()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")

	assert.Empty(t, repo.users.stampsFor(uuid.Nil))
}
