package auth_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-auth-gate"
)

func TestSignInDeniedShape(t *testing.T) {
	assert.Equal(t, goerrors.CategoryAuth, auth.ErrSignInDenied.Category)
	assert.Equal(t, "SIGN_IN_DENIED", auth.ErrSignInDenied.TextCode)

	// the opaque denial reveals nothing about which check failed
	assert.NotContains(t, auth.ErrSignInDenied.Message, "email")
	assert.NotContains(t, auth.ErrSignInDenied.Message, "factor")
}

func TestInternalDenialReasonsAreDistinct(t *testing.T) {
	assert.NotEqual(t, auth.ErrEmailNotVerified.TextCode, auth.ErrTwoFactorRequired.TextCode)
	assert.Equal(t, goerrors.CategoryAuth, auth.ErrEmailNotVerified.Category)
	assert.Equal(t, goerrors.CategoryAuth, auth.ErrTwoFactorRequired.Category)
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(errors.New("token is expired by 3s")))
	assert.False(t, auth.IsTokenExpiredError(nil))
	assert.False(t, auth.IsTokenExpiredError(errors.New("boom")))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, auth.IsMalformedError(nil))
	assert.False(t, auth.IsMalformedError(errors.New("boom")))
}
