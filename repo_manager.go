package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	TwoFactorConfirmations() TwoFactorConfirmations
	LinkedAccounts() LinkedAccounts
}

type mngr struct {
	db             *bun.DB
	users          Users
	confirmations  TwoFactorConfirmations
	linkedAccounts LinkedAccounts
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:             db,
		users:          NewUsersRepository(db),
		confirmations:  NewTwoFactorConfirmationsRepository(db),
		linkedAccounts: NewLinkedAccountsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.confirmations == nil {
		return errors.New("repository confirmations should be initialized")
	}

	if m.linkedAccounts == nil {
		return errors.New("repository linkedAccounts should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) TwoFactorConfirmations() TwoFactorConfirmations {
	return m.confirmations
}

func (m mngr) LinkedAccounts() LinkedAccounts {
	return m.linkedAccounts
}
