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
	Roles() Roles
	Permissions() Permissions
	// NewUnitOfWork returns a fresh, unstarted unit of work
	NewUnitOfWork() UnitOfWork
}

type mngr struct {
	db          *bun.DB
	logger      Logger
	users       Users
	roles       Roles
	permissions Permissions
}

type RepositoryManagerOption func(*mngr)

func WithRepositoryLogger(logger Logger) RepositoryManagerOption {
	return func(m *mngr) {
		m.logger = logger
	}
}

func NewRepositoryManager(db *bun.DB, opts ...RepositoryManagerOption) RepositoryManager {
	m := &mngr{
		db:          db,
		logger:      defLogger{},
		users:       NewUsersRepository(db),
		roles:       NewRolesRepository(db),
		permissions: NewPermissionsRepository(db),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	m.logger = resolveLogger(m.logger)

	return m
}

func (m *mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a database")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	if m.permissions == nil {
		return errors.New("repository permissions should be initialized")
	}

	return nil
}

func (m *mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *mngr) Users() Users {
	return m.users
}

func (m *mngr) Roles() Roles {
	return m.roles
}

func (m *mngr) Permissions() Permissions {
	return m.permissions
}

func (m *mngr) NewUnitOfWork() UnitOfWork {
	return NewUnitOfWork(m.db, WithUnitOfWorkLogger(m.logger))
}
