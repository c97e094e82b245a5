package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type twoFactorConfirmations struct {
	db *bun.DB
}

var _ TwoFactorConfirmations = (*twoFactorConfirmations)(nil)

// NewTwoFactorConfirmationsRepository returns a store for single-use
// two-factor confirmations.
func NewTwoFactorConfirmationsRepository(db *bun.DB) TwoFactorConfirmations {
	return &twoFactorConfirmations{db: db}
}

func (r *twoFactorConfirmations) FindByUserID(ctx context.Context, userID string) (*TwoFactorConfirmation, error) {
	record := &TwoFactorConfirmation{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"user_id": userID})
		}
		return nil, err
	}

	return record, nil
}

func (r *twoFactorConfirmations) Create(ctx context.Context, record *TwoFactorConfirmation) (*TwoFactorConfirmation, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := r.db.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Delete consumes a confirmation. The single DELETE statement is the
// exclusive arbiter under concurrency: the database executes it atomically,
// so when callers race over the same id exactly one sees a row removed and
// every other caller gets not-found. Callers must treat not-found as "someone
// else consumed it", not as success.
func (r *twoFactorConfirmations) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*TwoFactorConfirmation)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}
