package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type linkedAccounts struct {
	db *bun.DB
}

var _ LinkedAccounts = (*linkedAccounts)(nil)

// NewLinkedAccountsRepository returns a store for external provider accounts.
func NewLinkedAccountsRepository(db *bun.DB) LinkedAccounts {
	return &linkedAccounts{db: db}
}

func (r *linkedAccounts) FindByProviderID(ctx context.Context, provider, providerAccountID string) (*LinkedAccount, error) {
	record := &LinkedAccount{}
	err := r.db.NewSelect().
		Model(record).
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"provider":            provider,
					"provider_account_id": providerAccountID,
				})
		}
		return nil, err
	}

	return record, nil
}

func (r *linkedAccounts) FindByUserID(ctx context.Context, userID string) ([]*LinkedAccount, error) {
	var records []*LinkedAccount
	err := r.db.NewSelect().
		Model(&records).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return []*LinkedAccount{}, nil
		}
		return nil, err
	}

	return records, nil
}

func (r *linkedAccounts) Upsert(ctx context.Context, account *LinkedAccount) (*LinkedAccount, error) {
	return r.UpsertTx(ctx, r.db, account)
}

func (r *linkedAccounts) UpsertTx(ctx context.Context, tx bun.IDB, account *LinkedAccount) (*LinkedAccount, error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := time.Now()
	account.UpdatedAt = &now

	_, err := tx.NewInsert().
		Model(account).
		On("CONFLICT (provider, provider_account_id) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("email = EXCLUDED.email").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("token_expires_at = EXCLUDED.token_expires_at").
		Set("profile_data = EXCLUDED.profile_data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *linkedAccounts) DeleteByUserAndProvider(ctx context.Context, userID, provider string) error {
	_, err := r.db.NewDelete().
		Model((*LinkedAccount)(nil)).
		Where("user_id = ? AND provider = ?", userID, provider).
		Exec(ctx)
	return err
}
