package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type codeModel interface {
	GetID() uuid.UUID
	SetID(id uuid.UUID)
	GetCode() string
}

// CodeRepository stores records identified by a unique upper-cased code
type CodeRepository[T codeModel] interface {
	GetByCode(ctx context.Context, code string) (T, error)
	GetByCodeTx(ctx context.Context, tx bun.IDB, code string) (T, error)
	Create(ctx context.Context, record T) (T, error)
	CreateTx(ctx context.Context, tx bun.IDB, record T) (T, error)
	List(ctx context.Context) ([]T, error)
	ListTx(ctx context.Context, tx bun.IDB) ([]T, error)
}

type Roles = CodeRepository[*Role]

type Permissions = CodeRepository[*Permission]

type codes[T codeModel] struct {
	repository.Repository[T]
	db *bun.DB
}

func NewRolesRepository(db *bun.DB) Roles {
	return newCodeRepository(db, func() *Role { return &Role{} })
}

func NewPermissionsRepository(db *bun.DB) Permissions {
	return newCodeRepository(db, func() *Permission { return &Permission{} })
}

func newCodeRepository[T codeModel](db *bun.DB, newRecord func() T) *codes[T] {
	repo := repository.NewRepository[T](db, repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID: func(record T) uuid.UUID {
			return record.GetID()
		},
		SetID: func(record T, id uuid.UUID) {
			record.SetID(id)
		},
		GetIdentifier: func() string {
			return "code"
		},
	})

	return &codes[T]{
		Repository: repo,
		db:         db,
	}
}

func (c *codes[T]) GetByCode(ctx context.Context, code string) (T, error) {
	return c.GetByCodeTx(ctx, c.db, code)
}

func (c *codes[T]) GetByCodeTx(ctx context.Context, tx bun.IDB, code string) (T, error) {
	return c.Repository.GetByIdentifierTx(ctx, tx, normalizeCode(code))
}

func (c *codes[T]) Create(ctx context.Context, record T) (T, error) {
	return c.CreateTx(ctx, c.db, record)
}

func (c *codes[T]) CreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	if record.GetID() == uuid.Nil {
		record.SetID(uuid.New())
	}
	return c.Repository.CreateTx(ctx, tx, record)
}

func (c *codes[T]) List(ctx context.Context) ([]T, error) {
	return c.ListTx(ctx, c.db)
}

func (c *codes[T]) ListTx(ctx context.Context, tx bun.IDB) ([]T, error) {
	var records []T
	if err := tx.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.code ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *Role) GetID() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.ID
}

func (r *Role) SetID(id uuid.UUID) {
	if r != nil {
		r.ID = id
	}
}

func (r *Role) GetCode() string {
	if r == nil {
		return ""
	}
	return normalizeCode(r.Code)
}

func (p *Permission) GetID() uuid.UUID {
	if p == nil {
		return uuid.Nil
	}
	return p.ID
}

func (p *Permission) SetID(id uuid.UUID) {
	if p != nil {
		p.ID = id
	}
}

func (p *Permission) GetCode() string {
	if p == nil {
		return ""
	}
	return normalizeCode(p.Code)
}
