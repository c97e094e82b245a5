package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-gate"
)

func TestRegisterUserHandler(t *testing.T) {
	repo := newStubRepoManager()
	handler := auth.NewRegisterUserHandler(repo)

	err := handler.Execute(context.Background(), auth.RegisterUserMessage{
		Email:    "pepe@example.com",
		Password: "sup3r-s3cret",
		Role:     string(auth.RoleMember),
	})
	require.NoError(t, err)

	require.Len(t, repo.users.registered, 1)
	created := repo.users.registered[0]

	// username derives from the email local part when not provided
	assert.Equal(t, "pepe", created.Username)
	assert.Equal(t, "pepe@example.com", created.Email)
	assert.Equal(t, auth.RoleMember, created.Role)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "sup3r-s3cret", created.PasswordHash)

	// registration never pre-verifies the email
	assert.Nil(t, created.EmailVerifiedAt)
	assert.False(t, created.IsEmailVerified())
}

func TestRegisterUserHandlerKeepsExplicitUsername(t *testing.T) {
	repo := newStubRepoManager()
	handler := auth.NewRegisterUserHandler(repo)

	err := handler.Execute(context.Background(), auth.RegisterUserMessage{
		Username: "elpepe",
		Email:    "pepe@example.com",
		Password: "sup3r-s3cret",
	})
	require.NoError(t, err)

	require.Len(t, repo.users.registered, 1)
	assert.Equal(t, "elpepe", repo.users.registered[0].Username)
}

func TestRegisterUserHandlerDeterministicID(t *testing.T) {
	repo := newStubRepoManager()
	handler := auth.NewRegisterUserHandler(repo)

	msg := auth.RegisterUserMessage{
		Email:     "pepe@example.com",
		Password:  "sup3r-s3cret",
		UseHashid: true,
	}

	require.NoError(t, handler.Execute(context.Background(), msg))
	require.NoError(t, handler.Execute(context.Background(), msg))

	require.Len(t, repo.users.registered, 2)
	assert.Equal(t, repo.users.registered[0].ID, repo.users.registered[1].ID)
}

func TestRegisterUserHandlerEmptyPassword(t *testing.T) {
	repo := newStubRepoManager()
	handler := auth.NewRegisterUserHandler(repo)

	err := handler.Execute(context.Background(), auth.RegisterUserMessage{
		Email: "pepe@example.com",
	})
	require.Error(t, err)
	assert.Empty(t, repo.users.registered)
}

func TestRegisterUserHandlerCancelledContext(t *testing.T) {
	repo := newStubRepoManager()
	handler := auth.NewRegisterUserHandler(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    "pepe@example.com",
		Password: "sup3r-s3cret",
	})
	require.Error(t, err)
	assert.Empty(t, repo.users.registered)
}
