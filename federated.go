package auth

import (
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// FederatedValidator validates ID tokens minted by external identity
// providers against their published JWK sets. It sits at the trust boundary
// of the federated sign-in path: once the provider assertion checks out, the
// gate imposes no further account-state checks (federated providers are
// trusted to have verified identity themselves).
type FederatedValidator struct {
	issuer   string
	audience []string
	jwks     *keyfunc.MultipleJWKS
	logger   Logger
}

var _ TokenValidator = (*FederatedValidator)(nil)

// NewFederatedValidator builds a validator that refreshes provider keys from
// the given JWK Set URLs in the background.
func NewFederatedValidator(jwksURLs []string, issuer string, audience []string) (*FederatedValidator, error) {
	if len(jwksURLs) == 0 {
		return nil, goerrors.New("at least one JWK Set URL is required", goerrors.CategoryBadInput)
	}

	logger := defLogger{}

	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Warn("federated JWK set refresh failed: %v", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	m := make(map[string]keyfunc.Options, len(jwksURLs))
	for _, url := range jwksURLs {
		m[url] = opts
	}

	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch federated JWK sets")
	}

	return &FederatedValidator{
		issuer:   issuer,
		audience: audience,
		jwks:     multi,
		logger:   logger,
	}, nil
}

func (v *FederatedValidator) WithLogger(logger Logger) *FederatedValidator {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Validate implements TokenValidator for provider-issued tokens.
func (v *FederatedValidator) Validate(raw string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}
	if len(v.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &JWTClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		v.logger.Error("federated token rejected", "error", err)
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrUnableToDecodeSession
	}

	return claims, nil
}
