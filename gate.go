package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// AuthMethod tags how a sign-in attempt was authenticated.
type AuthMethod string

const (
	// MethodCredentials is the first-party password based provider.
	MethodCredentials AuthMethod = "credentials"
	// MethodFederated covers any external identity provider.
	MethodFederated AuthMethod = "federated"
)

// MethodFromProvider maps a provider tag onto an AuthMethod. Anything that is
// not the first-party credentials provider counts as federated.
func MethodFromProvider(provider string) AuthMethod {
	if provider == string(MethodCredentials) {
		return MethodCredentials
	}
	return MethodFederated
}

// Decision is the gate outcome. There is no partial or soft deny.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// Allowed reports whether the decision grants the sign-in.
func (d Decision) Allowed() bool {
	return d == DecisionAllow
}

// SignInAttempt is the input the host framework hands the gate once
// credentials have been validated and a candidate principal is known.
type SignInAttempt struct {
	// UserID is the candidate principal id.
	UserID string
	// Account is the provider account involved in this attempt, when any.
	Account *LinkedAccount
	// Method distinguishes credentials from federated sign-ins.
	Method AuthMethod
}

// SignInGate decides pass/fail for a sign-in attempt given the authentication
// method and account state. It holds no locks and no cache: account state is
// re-read from the directory on every attempt, and the confirmation store's
// exclusive delete is the sole arbiter when concurrent attempts race over the
// same confirmation.
type SignInGate struct {
	directory     UserDirectory
	confirmations TwoFactorConfirmations
	logger        Logger
	activitySink  ActivitySink
}

var _ SignInDecider = (*SignInGate)(nil)

// NewSignInGate returns a gate backed by the given collaborators.
func NewSignInGate(directory UserDirectory, confirmations TwoFactorConfirmations) *SignInGate {
	return &SignInGate{
		directory:     directory,
		confirmations: confirmations,
		logger:        defLogger{},
		activitySink:  noopActivitySink{},
	}
}

func (g *SignInGate) WithLogger(logger Logger) *SignInGate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithActivitySink configures an ActivitySink for emitting gate events.
func (g *SignInGate) WithActivitySink(sink ActivitySink) *SignInGate {
	g.activitySink = normalizeActivitySink(sink)
	return g
}

// Authorize runs the ordered, short-circuiting gate checks.
//
// The returned error is non-nil only for collaborator failures (directory or
// confirmation store unreachable, confirmation delete failed); it always
// accompanies DecisionDeny, never a silent allow. Denials for account-state
// reasons return (DecisionDeny, nil); the reason is logged and emitted to the
// activity sink but deliberately kept out of the return value.
func (g *SignInGate) Authorize(ctx context.Context, attempt SignInAttempt) (Decision, error) {
	// Federated providers already assert verified identity; the gate imposes
	// no additional check for them.
	if attempt.Method != MethodCredentials {
		g.emit(ctx, ActivityEventSignInAllowed, attempt.UserID, map[string]any{
			"method": string(attempt.Method),
		})
		return DecisionAllow, nil
	}

	user, err := g.directory.FindUserByID(ctx, attempt.UserID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return g.deny(ctx, attempt, "unknown_principal", nil)
		}
		return g.deny(ctx, attempt, "directory_unavailable",
			goerrors.Wrap(err, goerrors.CategoryInternal, "sign in gate failed to read user directory"))
	}

	if !user.IsEmailVerified() {
		return g.deny(ctx, attempt, "email_not_verified", nil)
	}

	if !user.IsTwoFactorEnabled {
		g.emit(ctx, ActivityEventSignInAllowed, attempt.UserID, nil)
		return DecisionAllow, nil
	}

	confirmation, err := g.confirmations.FindByUserID(ctx, user.ID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return g.deny(ctx, attempt, "two_factor_missing", nil)
		}
		return g.deny(ctx, attempt, "confirmation_store_unavailable",
			goerrors.Wrap(err, goerrors.CategoryInternal, "sign in gate failed to read confirmation store"))
	}

	// Single-use consumption. The delete must complete before we return
	// allow so a crash between decision and cleanup can never leave a
	// reusable confirmation behind a granted session. A not-found result
	// means a concurrent attempt consumed it first: that attempt won, this
	// one denies.
	if err := g.confirmations.Delete(ctx, confirmation.ID); err != nil {
		if goerrors.IsNotFound(err) {
			return g.deny(ctx, attempt, "two_factor_already_consumed", nil)
		}
		return g.deny(ctx, attempt, "confirmation_delete_failed",
			goerrors.Wrap(err, goerrors.CategoryInternal, "sign in gate failed to consume confirmation"))
	}

	g.emit(ctx, ActivityEventTwoFactorConsumed, attempt.UserID, map[string]any{
		"confirmation_id": confirmation.ID.String(),
	})
	g.emit(ctx, ActivityEventSignInAllowed, attempt.UserID, nil)

	return DecisionAllow, nil
}

// Allowed collapses the gate outcome to the single opaque denial the
// user-visible boundary is permitted to see. Callers that need the decision
// detail (auditing, tests) use Authorize directly.
func (g *SignInGate) Allowed(ctx context.Context, attempt SignInAttempt) error {
	decision, err := g.Authorize(ctx, attempt)
	if err != nil || !decision.Allowed() {
		return ErrSignInDenied
	}
	return nil
}

func (g *SignInGate) deny(ctx context.Context, attempt SignInAttempt, reason string, cause error) (Decision, error) {
	if cause != nil {
		g.logger.Error("sign in denied", "user_id", attempt.UserID, "reason", reason, "error", cause)
	} else {
		g.logger.Info("sign in denied", "user_id", attempt.UserID, "reason", reason)
	}

	meta := map[string]any{"reason": reason}
	if denial := denialError(reason); denial != nil {
		meta["code"] = denial.TextCode
	}
	if cause != nil {
		meta["error"] = cause.Error()
	}
	g.emit(ctx, ActivityEventSignInDenied, attempt.UserID, meta)

	return DecisionDeny, cause
}

// denialError maps account-state denial reasons onto the error catalog. The
// mapped error is recorded in the audit trail only; Authorize still returns
// (DecisionDeny, nil) for these so the reason never leaks to callers.
func denialError(reason string) *goerrors.Error {
	switch reason {
	case "email_not_verified":
		return ErrEmailNotVerified
	case "two_factor_missing", "two_factor_already_consumed":
		return ErrTwoFactorRequired
	}
	return nil
}

func (g *SignInGate) emit(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(g.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: userID, Type: "user"},
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		g.logger.Warn("activity sink record error: %v", err)
	}
}
