package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenServiceImpl implements the TokenService interface. Mint and Refresh
// both run the injection stage of the enrichment pipeline before signing, so
// every issued token carries the directory's current view of the role.
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	enricher        TokenEnricher
	logger          Logger
}

var _ TokenService = (*TokenServiceImpl)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		enricher:        noopTokenEnricher{},
		logger:          logger,
	}
}

// WithEnricher configures the injection stage run on mint and refresh.
func (ts *TokenServiceImpl) WithEnricher(enricher TokenEnricher) *TokenServiceImpl {
	ts.enricher = normalizeTokenEnricher(enricher)
	return ts
}

// Mint creates a signed token for the identity. The subject claim is set
// here; the role claim comes from the enrichment stage, not from the caller.
func (ts *TokenServiceImpl) Mint(ctx context.Context, identity Identity) (string, error) {
	if identity == nil {
		return "", goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	claims := ts.newClaims(identity.ID())

	enriched, err := ts.runEnrichment(ctx, claims)
	if err != nil {
		return "", err
	}

	return ts.SignClaims(enriched)
}

// Refresh validates a token and re-issues it with a fresh expiry. The
// injection stage runs again so the role claim is re-read from the directory
// instead of being copied forward.
func (ts *TokenServiceImpl) Refresh(ctx context.Context, raw string) (string, error) {
	validated, err := ts.Validate(raw)
	if err != nil {
		return "", err
	}

	prior, ok := validated.(*JWTClaims)
	if !ok {
		return "", ErrUnableToDecodeSession
	}

	claims := ts.newClaims(prior.Subject())
	claims.UserRole = prior.UserRole
	claims.Metadata = prior.Metadata

	enriched, err := ts.runEnrichment(ctx, claims)
	if err != nil {
		return "", err
	}

	return ts.SignClaims(enriched)
}

// runEnrichment runs the injection stage and verifies it only touched the
// claims it owns. Identity claims (sub, iss, aud, iat, exp, uid) must survive
// enrichment byte for byte.
func (ts *TokenServiceImpl) runEnrichment(ctx context.Context, claims *JWTClaims) (*JWTClaims, error) {
	snapshot := captureImmutableClaims(claims)

	enriched, err := normalizeTokenEnricher(ts.enricher).Enrich(ctx, claims)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to enrich token claims")
	}
	if enriched == nil {
		enriched = claims
	}

	if err := snapshot.validate(enriched); err != nil {
		ts.logger.Error("TokenService enrichment mutated an immutable claim", "error", err)
		return nil, err
	}

	return enriched, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrUnableToDecodeSession
}

func (ts *TokenServiceImpl) newClaims(subject string) *JWTClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
		UID: subject,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
