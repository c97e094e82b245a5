package auth

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// LoginRequest is the credentials payload the HTTP boundary binds.
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

var _ LoginPayload = LoginRequest{}

// GetIdentifier will return the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession will return whether the session should be extended
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RouteAuthenticator binds the gate and token issuance to the host web
// framework: it turns login payloads into session cookies and collapses every
// denial into a redirect to the configured error page. Which check failed is
// never visible at this boundary.
type RouteAuthenticator struct {
	auth                   Authenticator
	cfg                    Config
	cookieDuration         time.Duration
	extendedCookieDuration time.Duration
	Logger                 Logger
	ErrorHandler           func(c router.Context, err error) error
}

// NewHTTPAuthenticator creates a RouteAuthenticator bound to the given
// authenticator and config.
func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	extendedCookieDuration := cookieDuration
	if cfg.GetExtendedTokenDuration() > 0 {
		extendedCookieDuration = time.Duration(cfg.GetExtendedTokenDuration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:                    cfg,
		auth:                   auther,
		Logger:                 defLogger{},
		cookieDuration:         cookieDuration,
		extendedCookieDuration: extendedCookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a RouteAuthenticator) GetExtendedCookieDuration() time.Duration {
	return a.extendedCookieDuration
}

// Login verifies the payload, runs the full gated login flow, and sets the
// session cookie on success.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) error {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	duration := a.cookieDuration
	if payload.GetExtendedSession() {
		duration = a.extendedCookieDuration
	}

	a.setCookieToken(ctx, token, duration)
	return nil
}

// LoginPost is the form/JSON endpoint for credential sign-ins.
func (a *RouteAuthenticator) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload"))
	}

	if err := a.Login(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Redirect("/", http.StatusSeeOther)
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

// SessionFromRequest extracts and validates the session cookie, returning the
// materialized session view.
func (a *RouteAuthenticator) SessionFromRequest(ctx router.Context) (Session, error) {
	raw := ctx.Cookies(a.cfg.GetContextKey())
	if raw == "" {
		return nil, ErrUnableToFindSession
	}

	return a.auth.SessionFromToken(raw)
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// defaultErrHandler sends every auth failure to the configured error page
// with the same generic redirect, and everything else to the login page.
func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "An unexpected authentication error").
			WithCode(goerrors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error, redirecting",
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}

	target := a.cfg.GetErrorRoute()
	if target == "" {
		target = a.cfg.GetLoginRoute()
	}
	if target == "" {
		target = "/auth/error"
	}

	return c.Redirect(target, statusCode)
}
