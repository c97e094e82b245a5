package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// TokenEnricherFunc adapts a function into a TokenEnricher.
type TokenEnricherFunc func(ctx context.Context, claims *JWTClaims) (*JWTClaims, error)

// Enrich satisfies the TokenEnricher interface.
func (f TokenEnricherFunc) Enrich(ctx context.Context, claims *JWTClaims) (*JWTClaims, error) {
	if f == nil {
		return claims, nil
	}
	return f(ctx, claims)
}

type noopTokenEnricher struct{}

func (noopTokenEnricher) Enrich(_ context.Context, claims *JWTClaims) (*JWTClaims, error) {
	return claims, nil
}

func normalizeTokenEnricher(e TokenEnricher) TokenEnricher {
	if e == nil {
		return noopTokenEnricher{}
	}
	return e
}

// RoleEnricher is the injection stage of the enrichment pipeline. On every
// token mint and refresh it re-reads the principal's current role from the
// directory and stamps it on the token, making role claims self-healing
// rather than trusting whatever a previous mint cached.
//
// It is idempotent and value-in/value-out: the input claims are never
// mutated. A token without a subject, or whose subject no longer resolves to
// a principal, passes through unchanged. A token may legitimately reference a
// since-deleted principal during a grace window; invalidating it here is a
// policy change, not a bug fix.
type RoleEnricher struct {
	directory UserDirectory
	logger    Logger
}

var _ TokenEnricher = (*RoleEnricher)(nil)

// NewRoleEnricher returns the injection stage backed by the given directory.
func NewRoleEnricher(directory UserDirectory) *RoleEnricher {
	return &RoleEnricher{
		directory: directory,
		logger:    defLogger{},
	}
}

func (e *RoleEnricher) WithLogger(logger Logger) *RoleEnricher {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Enrich implements TokenEnricher.
func (e *RoleEnricher) Enrich(ctx context.Context, claims *JWTClaims) (*JWTClaims, error) {
	if claims == nil || claims.Subject() == "" {
		// nothing to enrich yet
		return claims, nil
	}

	user, err := e.directory.FindUserByID(ctx, claims.Subject())
	if err != nil {
		if !goerrors.IsNotFound(err) {
			// Enrichment never aborts token issuance or session
			// materialization; the token stays under-enriched.
			e.logger.Warn("role enrichment skipped, directory unavailable", "subject", claims.Subject(), "error", err)
		}
		return claims, nil
	}

	out := claims.clone()
	out.UserRole = string(user.Role)
	return out, nil
}

// SessionProjectorFunc adapts a function into a SessionProjector.
type SessionProjectorFunc func(claims AuthClaims, session *SessionObject) *SessionObject

// Project satisfies the SessionProjector interface.
func (f SessionProjectorFunc) Project(claims AuthClaims, session *SessionObject) *SessionObject {
	if f == nil {
		return session
	}
	return f(claims, session)
}

// ProjectSession is the projection stage of the enrichment pipeline: it
// copies the token's subject and role into the session's user view. It never
// fails: fields missing from the token are simply left unset on the session,
// and a session without a user substructure passes through untouched. The
// input session is not mutated.
func ProjectSession(claims AuthClaims, session *SessionObject) *SessionObject {
	if session == nil {
		return nil
	}

	out := session.clone()
	if claims == nil || out.User == nil {
		return out
	}

	if sub := claims.UserID(); sub != "" {
		out.User.ID = sub
	}

	if role := claims.Role(); role != "" {
		out.User.Role = role
	}

	return out
}

var _ SessionProjector = SessionProjectorFunc(nil)

// DefaultSessionProjector exposes ProjectSession through the SessionProjector
// interface for hook registration.
func DefaultSessionProjector() SessionProjector {
	return SessionProjectorFunc(func(claims AuthClaims, session *SessionObject) *SessionObject {
		return ProjectSession(claims, session)
	})
}
