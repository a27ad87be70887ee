package auth

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// UnitOfWork scopes a group of repository calls to a single transaction.
// An instance is good for one Start/Complete cycle.
type UnitOfWork interface {
	Start(ctx context.Context) error
	// DB returns the transaction handle repositories should bind to
	DB() (bun.IDB, error)
	// Complete runs work inside the transaction, commits on success and
	// rolls back on error or panic. The transaction is released either way.
	Complete(ctx context.Context, work TxWork) error
}

type uowState int

const (
	uowIdle uowState = iota
	uowStarted
	uowDone
)

type unitOfWork struct {
	mu     sync.Mutex
	db     *bun.DB
	opts   *sql.TxOptions
	logger Logger
	tx     *bun.Tx
	state  uowState
}

type UnitOfWorkOption func(*unitOfWork)

func WithUnitOfWorkLogger(logger Logger) UnitOfWorkOption {
	return func(u *unitOfWork) {
		u.logger = logger
	}
}

func WithTxOptions(opts *sql.TxOptions) UnitOfWorkOption {
	return func(u *unitOfWork) {
		u.opts = opts
	}
}

func NewUnitOfWork(db *bun.DB, opts ...UnitOfWorkOption) UnitOfWork {
	u := &unitOfWork{
		db: db,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}

	u.logger = resolveLogger(u.logger)

	return u
}

func (u *unitOfWork) Start(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != uowIdle {
		return goerrors.New("unit of work already started", goerrors.CategoryOperation).
			WithTextCode("UNIT_OF_WORK_STARTED")
	}

	tx, err := u.db.BeginTx(ctx, u.opts)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to begin transaction")
	}

	u.tx = &tx
	u.state = uowStarted

	return nil
}

func (u *unitOfWork) DB() (bun.IDB, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != uowStarted || u.tx == nil {
		return nil, NewError(KindNotStarted, nil)
	}

	return u.tx, nil
}

func (u *unitOfWork) Complete(ctx context.Context, work TxWork) error {
	tx, err := u.take()
	if err != nil {
		return err
	}

	finished := false
	defer func() {
		if finished {
			return
		}
		if r := recover(); r != nil {
			u.rollback(tx, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	if err := work(ctx, tx); err != nil {
		finished = true
		u.rollback(tx, err)
		return err
	}

	finished = true
	if err := tx.Commit(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to commit transaction")
	}

	return nil
}

// take hands the transaction over to a single Complete call
func (u *unitOfWork) take() (*bun.Tx, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != uowStarted || u.tx == nil {
		return nil, NewError(KindNotStarted, nil)
	}

	tx := u.tx
	u.tx = nil
	u.state = uowDone

	return tx, nil
}

func (u *unitOfWork) rollback(tx *bun.Tx, cause error) {
	if err := tx.Rollback(); err != nil {
		u.logger.Error("unit of work rollback failed", "error", err, "cause", cause)
	}
}

// Complete runs work in the unit of work and returns its result once the
// transaction has been committed.
func Complete[T any](ctx context.Context, uow UnitOfWork, work func(ctx context.Context, tx bun.IDB) (T, error)) (T, error) {
	var out T

	err := uow.Complete(ctx, func(ctx context.Context, tx bun.IDB) error {
		res, err := work(ctx, tx)
		if err != nil {
			return err
		}
		out = res
		return nil
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return out, nil
}
