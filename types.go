package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetUserRole() string
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// UserDirectory is the authoritative read-side store for principals. The gate
// and the enrichment pipeline re-read on every decision point and never cache
// results across calls.
type UserDirectory interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
}

// TwoFactorConfirmations stores single-use proof that a second factor was
// satisfied for the current sign-in attempt.
//
// Delete must be exclusive at the storage layer: when concurrent callers race
// to consume the same confirmation, exactly one observes success and every
// other caller gets a not-found error. The gate holds no lock of its own and
// relies on this contract for the single-use invariant.
type TwoFactorConfirmations interface {
	FindByUserID(ctx context.Context, userID string) (*TwoFactorConfirmation, error)
	Create(ctx context.Context, record *TwoFactorConfirmation) (*TwoFactorConfirmation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LinkedAccounts stores external provider identities linked to local users.
type LinkedAccounts interface {
	FindByProviderID(ctx context.Context, provider, providerAccountID string) (*LinkedAccount, error)
	FindByUserID(ctx context.Context, userID string) ([]*LinkedAccount, error)
	Upsert(ctx context.Context, account *LinkedAccount) (*LinkedAccount, error)
	UpsertTx(ctx context.Context, tx bun.IDB, account *LinkedAccount) (*LinkedAccount, error)
	DeleteByUserAndProvider(ctx context.Context, userID, provider string) error
}

// SignInDecider is the hook the host framework invokes after credentials have
// been validated and before a session is established.
type SignInDecider interface {
	Authorize(ctx context.Context, attempt SignInAttempt) (Decision, error)
}

// TokenEnricher is the injection stage of the enrichment pipeline, run on
// every token mint and refresh.
type TokenEnricher interface {
	Enrich(ctx context.Context, claims *JWTClaims) (*JWTClaims, error)
}

// SessionProjector is the projection stage, run on every session
// materialization.
type SessionProjector interface {
	Project(claims AuthClaims, session *SessionObject) *SessionObject
}

// TokenService signs, validates, and refreshes identity tokens.
type TokenService interface {
	Mint(ctx context.Context, identity Identity) (string, error)
	Refresh(ctx context.Context, raw string) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(raw string) (AuthClaims, error)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	GetExtendedSession() bool
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetExtendedTokenDuration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetLoginRoute() string
	GetErrorRoute() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
