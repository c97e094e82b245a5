package auth

import (
	"context"
	"reflect"
	"time"
)

// Auther wires the credentials collaborator, the sign-in gate, and the token
// service into the full login flow: verify credentials, gate the attempt,
// mint an enriched token.
type Auther struct {
	provider       IdentityProvider
	gate           SignInDecider
	tokenService   TokenService
	tokenValidator TokenValidator
	logger         Logger
	activitySink   ActivitySink
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Auther. The directory is shared by the gate
// and the enrichment pipeline so both always observe the same authority.
func NewAuthenticator(provider IdentityProvider, directory UserDirectory, confirmations TwoFactorConfirmations, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	).WithEnricher(NewRoleEnricher(directory))

	return &Auther{
		provider:     provider,
		gate:         NewSignInGate(directory, confirmations),
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	if gate, ok := s.gate.(*SignInGate); ok {
		gate.WithActivitySink(s.activitySink)
	}
	return s
}

// WithSignInDecider replaces the default gate.
func (s *Auther) WithSignInDecider(gate SignInDecider) *Auther {
	if gate != nil {
		s.gate = gate
	}
	return s
}

// WithTokenValidator sets a custom token validator for externally issued
// federated tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login runs the credentials path end to end. Every internal failure past
// credential verification collapses to ErrSignInDenied so the caller cannot
// tell which check failed.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      ErrIdentityNotFound.Error(),
		})
		return "", ErrIdentityNotFound
	}

	attempt := SignInAttempt{
		UserID: identity.ID(),
		Method: MethodCredentials,
	}

	decision, err := s.gate.Authorize(ctx, attempt)
	if err != nil || !decision.Allowed() {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"error":      ErrSignInDenied.Message,
		})
		return "", ErrSignInDenied
	}

	token, err := s.tokenService.Mint(ctx, identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
	})

	return token, nil
}

// LoginFederated exchanges a provider-issued ID token for a first-party
// session token. The provider assertion is validated first; the gate then
// runs with the federated method, which imposes no additional account checks.
func (s *Auther) LoginFederated(ctx context.Context, rawProviderToken string, account *LinkedAccount) (string, error) {
	if s.tokenValidator == nil {
		s.logger.Error("LoginFederated called without a token validator")
		return "", ErrSignInDenied
	}

	claims, err := s.tokenValidator.Validate(rawProviderToken)
	if err != nil {
		s.logger.Error("LoginFederated provider token rejected", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"method": string(MethodFederated),
			"error":  err.Error(),
		})
		return "", ErrSignInDenied
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, claims.Subject())
	if err != nil {
		s.logger.Error("LoginFederated identity lookup failed", "error", err)
		return "", ErrSignInDenied
	}

	attempt := SignInAttempt{
		UserID:  identity.ID(),
		Account: account,
		Method:  MethodFederated,
	}

	decision, err := s.gate.Authorize(ctx, attempt)
	if err != nil || !decision.Allowed() {
		return "", ErrSignInDenied
	}

	token, err := s.tokenService.Mint(ctx, identity)
	if err != nil {
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"method": string(MethodFederated),
	})

	return token, nil
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity by identifier: %s", err)
		return nil, err
	}

	return identity, nil
}

// SessionFromToken validates a raw token and materializes the per-request
// session view through the projection stage.
func (s Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "user",
	}
}
