package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// ErrMismatchedHashAndPassword wrong password for identity
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// ErrTooManyLoginAttempts user exceeded the attempt budget inside the
// cooldown window
var ErrTooManyLoginAttempts = errors.New("too many login attempts")

// ErrSignInDenied is the single opaque error every gate denial collapses to
// at the user-visible boundary. Which check failed is deliberately not
// recoverable from this error, to avoid account enumeration.
var ErrSignInDenied = goerrors.New("sign in denied", goerrors.CategoryAuth).
	WithTextCode("SIGN_IN_DENIED").
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailNotVerified credentials sign-in attempted before the account email
// was verified. Internal denial reason, never surfaced past the boundary.
var ErrEmailNotVerified = goerrors.New("account email is not verified", goerrors.CategoryAuth).
	WithTextCode("EMAIL_NOT_VERIFIED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTwoFactorRequired two-factor is enabled but no confirmation was
// consumable for this attempt. Internal denial reason.
var ErrTwoFactorRequired = goerrors.New("two factor confirmation required", goerrors.CategoryAuth).
	WithTextCode("TWO_FACTOR_REQUIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrImmutableClaimMutation is returned when the enrichment stage tampers
// with identity claims it is not allowed to change.
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode("IMMUTABLE_CLAIM_MUTATION")

// ErrTokenExpired is returned for tokens past their expiry
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens we cannot parse or verify
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
