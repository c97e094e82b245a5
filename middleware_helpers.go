package auth

import (
	"context"

	"github.com/goliatone/go-router"

	"github.com/goliatone/go-auth-gate/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter adapts jwtware.AuthClaims to auth.AuthClaims and stores
// the claims in the standard context for downstream guard usage.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	return WithClaimsContext(c, authClaims)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}

// NewTokenMiddleware wires the authenticator's token service into the jwtware
// middleware so protected routes validate the same tokens Login mints.
func (a *Auther) NewTokenMiddleware(opts Config, config ...jwtware.Config) router.MiddlewareFunc {
	var cfg jwtware.Config
	if len(config) > 0 {
		cfg = config[0]
	}

	cfg.TokenValidator = jwtwareValidator{service: a.tokenService}
	if cfg.SigningKey.Key == nil && cfg.KeyFunc == nil && len(cfg.JWKSetURLs) == 0 {
		cfg.SigningKey = jwtware.SigningKey{
			JWTAlg: opts.GetSigningMethod(),
			Key:    []byte(opts.GetSigningKey()),
		}
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = opts.GetContextKey()
	}
	if cfg.TokenLookup == "" {
		cfg.TokenLookup = opts.GetTokenLookup()
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = opts.GetAuthScheme()
	}
	if cfg.ContextEnricher == nil {
		cfg.ContextEnricher = ContextEnricherAdapter
	}

	return jwtware.New(cfg)
}

// jwtwareValidator adapts the auth TokenService to the jwtware validator contract.
type jwtwareValidator struct {
	service TokenService
}

func (v jwtwareValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
