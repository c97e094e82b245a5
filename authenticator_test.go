package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-gate"
)

func newTestAuther(provider auth.IdentityProvider, directory auth.UserDirectory, confirmations auth.TwoFactorConfirmations) *auth.Auther {
	return auth.NewAuthenticator(provider, directory, confirmations, testConfig{})
}

func TestLoginHappyPath(t *testing.T) {
	provider := new(MockIdentityProvider)
	directory := new(MockUserDirectory)
	confirmations := new(MockTwoFactorConfirmations)
	sink := &recordingSink{}

	user := newGateUser(true, false)
	user.Role = auth.RoleMember
	identity := testIdentity{id: user.ID.String(), username: user.Username, email: user.Email, role: string(user.Role)}

	provider.On("VerifyIdentity", mock.Anything, user.Email, "secret").Return(identity, nil)
	directory.On("FindUserByID", mock.Anything, user.ID.String()).Return(user, nil)

	auther := newTestAuther(provider, directory, confirmations).WithActivitySink(sink)

	token, err := auther.Login(context.Background(), user.Email, "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auther.TokenService().Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject())
	assert.Equal(t, string(auth.RoleMember), claims.Role())

	types := sink.EventTypes()
	require.NotEmpty(t, types)
	assert.Equal(t, auth.ActivityEventLoginSuccess, types[len(types)-1])
}

func TestLoginBadCredentials(t *testing.T) {
	provider := new(MockIdentityProvider)
	directory := new(MockUserDirectory)
	confirmations := new(MockTwoFactorConfirmations)

	provider.On("VerifyIdentity", mock.Anything, "pepe@example.com", "wrong").
		Return(nil, auth.ErrMismatchedHashAndPassword)

	auther := newTestAuther(provider, directory, confirmations)

	_, err := auther.Login(context.Background(), "pepe@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)

	// the gate never runs when credential verification fails
	directory.AssertNotCalled(t, "FindUserByID", mock.Anything, mock.Anything)
}

func TestLoginDeniedByGateIsOpaque(t *testing.T) {
	provider := new(MockIdentityProvider)
	directory := new(MockUserDirectory)
	confirmations := new(MockTwoFactorConfirmations)

	// valid password but the account email was never verified
	user := newGateUser(false, false)
	identity := testIdentity{id: user.ID.String(), email: user.Email}

	provider.On("VerifyIdentity", mock.Anything, user.Email, "secret").Return(identity, nil)
	directory.On("FindUserByID", mock.Anything, user.ID.String()).Return(user, nil)

	auther := newTestAuther(provider, directory, confirmations)

	_, err := auther.Login(context.Background(), user.Email, "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrSignInDenied)
}

func TestLoginTwoFactorFlow(t *testing.T) {
	provider := new(MockIdentityProvider)
	directory := new(MockUserDirectory)
	confirmations := new(MockTwoFactorConfirmations)

	user := newGateUser(true, true)
	identity := testIdentity{id: user.ID.String(), email: user.Email}
	confirmation := auth.NewTwoFactorConfirmation(user.ID)

	provider.On("VerifyIdentity", mock.Anything, user.Email, "secret").Return(identity, nil)
	directory.On("FindUserByID", mock.Anything, user.ID.String()).Return(user, nil)
	confirmations.On("FindByUserID", mock.Anything, user.ID.String()).Return(confirmation, nil).Once()
	confirmations.On("Delete", mock.Anything, confirmation.ID).Return(nil).Once()
	// second attempt finds no confirmation left
	confirmations.On("FindByUserID", mock.Anything, user.ID.String()).Return(nil, notFoundErr())

	auther := newTestAuther(provider, directory, confirmations)

	token, err := auther.Login(context.Background(), user.Email, "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// the confirmation was single use; the same credentials now deny
	_, err = auther.Login(context.Background(), user.Email, "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrSignInDenied)
}

func TestLoginFederated(t *testing.T) {
	provider := new(MockIdentityProvider)
	directory := new(MockUserDirectory)
	confirmations := new(MockTwoFactorConfirmations)

	// federated principals skip account-state checks, unverified email included
	user := newGateUser(false, false)
	identity := testIdentity{id: user.ID.String(), email: user.Email}

	providerTokens := auth.NewTokenService([]byte("provider-key"), 1, "https://accounts.example.com", nil, nil)
	providerToken, err := providerTokens.Mint(context.Background(), identity)
	require.NoError(t, err)

	provider.On("FindIdentityByIdentifier", mock.Anything, user.ID.String()).Return(identity, nil)
	directory.On("FindUserByID", mock.Anything, user.ID.String()).Return(user, nil)

	auther := newTestAuther(provider, directory, confirmations).
		WithTokenValidator(auth.TokenValidatorFunc(providerTokens.Validate))

	token, err := auther.LoginFederated(context.Background(), providerToken, &auth.LinkedAccount{
		UserID:            user.ID,
		Provider:          "google",
		ProviderAccountID: "g-123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auther.TokenService().Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject())
}

func TestLoginFederatedRejectsBadProviderToken(t *testing.T) {
	provider := new(MockIdentityProvider)
	directory := new(MockUserDirectory)
	confirmations := new(MockTwoFactorConfirmations)

	providerTokens := auth.NewTokenService([]byte("provider-key"), 1, "https://accounts.example.com", nil, nil)

	auther := newTestAuther(provider, directory, confirmations).
		WithTokenValidator(auth.TokenValidatorFunc(providerTokens.Validate))

	_, err := auther.LoginFederated(context.Background(), "garbage", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrSignInDenied)

	provider.AssertNotCalled(t, "FindIdentityByIdentifier", mock.Anything, mock.Anything)
}

func TestLoginFederatedWithoutValidator(t *testing.T) {
	provider := new(MockIdentityProvider)
	directory := new(MockUserDirectory)
	confirmations := new(MockTwoFactorConfirmations)

	auther := newTestAuther(provider, directory, confirmations)

	_, err := auther.LoginFederated(context.Background(), "token", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrSignInDenied)
}

func TestSessionFromToken(t *testing.T) {
	provider := new(MockIdentityProvider)
	directory := new(MockUserDirectory)
	confirmations := new(MockTwoFactorConfirmations)

	user := newGateUser(true, false)
	user.Role = auth.RoleAdmin
	identity := testIdentity{id: user.ID.String(), email: user.Email}

	provider.On("VerifyIdentity", mock.Anything, user.Email, "secret").Return(identity, nil)
	directory.On("FindUserByID", mock.Anything, user.ID.String()).Return(user, nil)

	auther := newTestAuther(provider, directory, confirmations)

	token, err := auther.Login(context.Background(), user.Email, "secret")
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), session.GetUserID())
	assert.Equal(t, string(auth.RoleAdmin), session.GetUserRole())
	assert.Equal(t, "test-issuer", session.GetIssuer())

	userUUID, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, userUUID)
	assert.True(t, auth.HasUserUUID(session))
}

func TestSessionFromTokenRejectsTampering(t *testing.T) {
	provider := new(MockIdentityProvider)
	directory := new(MockUserDirectory)
	confirmations := new(MockTwoFactorConfirmations)

	auther := newTestAuther(provider, directory, confirmations)

	_, err := auther.SessionFromToken("tampered.token.value")
	require.Error(t, err)
}
