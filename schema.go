package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterModels registers the m2m join models. It must run before any
// query that loads Roles or Permissions.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*UserRole)(nil), (*UserPermission)(nil))
}

// CreateSchema creates the tables used by the service if they are missing
func CreateSchema(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*User)(nil),
		(*Role)(nil),
		(*Permission)(nil),
		(*UserRole)(nil),
		(*UserPermission)(nil),
	}

	for _, model := range models {
		q := db.NewCreateTable().Model(model).IfNotExists()
		switch model.(type) {
		case *UserRole:
			q = q.ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
				ForeignKey(`("role_id") REFERENCES "auth_roles" ("id") ON DELETE CASCADE`)
		case *UserPermission:
			q = q.ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
				ForeignKey(`("permission_id") REFERENCES "auth_permissions" ("id") ON DELETE CASCADE`)
		}
		if _, err := q.Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create schema")
		}
	}

	return nil
}
