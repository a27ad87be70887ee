package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"golang.org/x/sync/errgroup"
)

// SeedResult holds the stored records for every seeded code
type SeedResult struct {
	Roles       []*Role
	Permissions []*Permission
}

// Seeder makes sure the predefined roles and permissions exist
type Seeder struct {
	repo        RepositoryManager
	logger      Logger
	roles       []string
	permissions []string
}

type SeederOption func(*Seeder)

func WithSeederLogger(logger Logger) SeederOption {
	return func(s *Seeder) {
		s.logger = logger
	}
}

// WithSeedCodes overrides the role and permission codes to seed
func WithSeedCodes(roles, permissions []string) SeederOption {
	return func(s *Seeder) {
		s.roles = roles
		s.permissions = permissions
	}
}

func NewSeeder(repo RepositoryManager, opts ...SeederOption) *Seeder {
	s := &Seeder{
		repo:        repo,
		roles:       PredefinedRoles,
		permissions: PredefinedPermissions,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.logger = resolveLogger(s.logger)

	return s
}

// Seed upserts every code by lookup. It is safe to run concurrently with
// itself and on every startup.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	res := &SeedResult{
		Roles:       make([]*Role, len(s.roles)),
		Permissions: make([]*Permission, len(s.permissions)),
	}

	g, ctx := errgroup.WithContext(ctx)

	for i, code := range s.roles {
		g.Go(func() error {
			role, err := ensureCode(ctx, s.repo.Roles(), &Role{Code: normalizeCode(code)})
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed role "+code)
			}
			res.Roles[i] = role
			return nil
		})
	}

	for i, code := range s.permissions {
		g.Go(func() error {
			permission, err := ensureCode(ctx, s.repo.Permissions(), &Permission{Code: normalizeCode(code)})
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed permission "+code)
			}
			res.Permissions[i] = permission
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("seeded roles and permissions", "roles", len(res.Roles), "permissions", len(res.Permissions))

	return res, nil
}

func ensureCode[T codeModel](ctx context.Context, repo CodeRepository[T], record T) (T, error) {
	code := record.GetCode()

	found, err := repo.GetByCode(ctx, code)
	if err == nil {
		return found, nil
	}

	if !repository.IsRecordNotFound(err) {
		return found, err
	}

	created, err := repo.Create(ctx, record)
	if err == nil {
		return created, nil
	}

	// lost a race with another seeder, the row is there now
	if _, ok := uniqueViolation(err); ok {
		return repo.GetByCode(ctx, code)
	}

	return created, err
}
