package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountLinkedMessage describes a completed link between an external
// provider identity and a local user. Emitted by the provider handshake,
// which is outside this package.
type AccountLinkedMessage struct {
	UserID            string         `json:"user_id" doc:"Local user the account was linked to."`
	Provider          string         `json:"provider" doc:"External provider tag."`
	ProviderAccountID string         `json:"provider_account_id" doc:"Provider-side account id."`
	Email             string         `json:"email,omitempty" doc:"Email asserted by the provider."`
	ProfileData       map[string]any `json:"profile_data,omitempty"`
}

func (e AccountLinkedMessage) Type() string { return "auth.account.linked" }

// AccountLinkHandler reacts to account-linked events: it persists the linked
// account and stamps the user's email verification timestamp. A provider that
// completed its own verification and handed us the account vouches for the
// email, so re-linking simply re-stamps; repeated stamping breaks no
// invariant. The handler runs independently of the sign-in gate.
type AccountLinkHandler struct {
	repo         RepositoryManager
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

// NewAccountLinkHandler returns a handler bound to the repository manager.
func NewAccountLinkHandler(repo RepositoryManager) *AccountLinkHandler {
	return &AccountLinkHandler{
		repo:         repo,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (h *AccountLinkHandler) WithLogger(logger Logger) *AccountLinkHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink configures an ActivitySink for link events.
func (h *AccountLinkHandler) WithActivitySink(sink ActivitySink) *AccountLinkHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

// WithClock injects a custom clock (useful for tests).
func (h *AccountLinkHandler) WithClock(clock func() time.Time) *AccountLinkHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *AccountLinkHandler) Execute(ctx context.Context, event AccountLinkedMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account link")
	default:
		return h.execute(ctx, event)
	}
}

func (h *AccountLinkHandler) execute(ctx context.Context, event AccountLinkedMessage) error {
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "account link event carries an invalid user id")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	stampedAt := h.now()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if event.Provider != "" && event.ProviderAccountID != "" {
			account := &LinkedAccount{
				UserID:            userID,
				Provider:          event.Provider,
				ProviderAccountID: event.ProviderAccountID,
				Email:             event.Email,
				ProfileData:       event.ProfileData,
			}

			if _, err := h.repo.LinkedAccounts().UpsertTx(ctx, tx, account); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist linked account")
			}
		}

		if _, err := h.repo.Users().MarkEmailVerifiedTx(ctx, tx, userID, stampedAt); err != nil {
			if goerrors.IsNotFound(err) {
				return goerrors.Wrap(err, goerrors.CategoryNotFound, "account link event references an unknown user")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email as verified")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account link transaction failed")
	}

	h.emit(ctx, event, stampedAt)

	return nil
}

func (h *AccountLinkHandler) emit(ctx context.Context, event AccountLinkedMessage, stampedAt time.Time) {
	sink := normalizeActivitySink(h.activitySink)
	record := ActivityEvent{
		EventType: ActivityEventAccountLinked,
		Actor:     ActorRef{ID: event.UserID, Type: "user"},
		UserID:    event.UserID,
		Metadata: map[string]any{
			"provider":          event.Provider,
			"email_verified_at": stampedAt,
		},
		OccurredAt: stampedAt,
	}

	if err := sink.Record(ctx, record); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
