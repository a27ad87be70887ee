package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RoleRef points at a role either by code or by an already loaded record
type RoleRef struct {
	code string
	role *Role
}

// RoleByCode references a stored role by its code
func RoleByCode(code string) RoleRef {
	return RoleRef{code: normalizeCode(code)}
}

// ResolvedRole wraps a role that was already loaded
func ResolvedRole(role *Role) RoleRef {
	return RoleRef{role: role}
}

func (r RoleRef) Code() string {
	if r.role != nil {
		return r.role.Code
	}
	return r.code
}

// RoleService attaches and detaches roles on users
type RoleService struct {
	repo   RepositoryManager
	logger Logger
}

type RoleServiceOption func(*RoleService)

func WithRoleServiceLogger(logger Logger) RoleServiceOption {
	return func(s *RoleService) {
		s.logger = logger
	}
}

func NewRoleService(repo RepositoryManager, opts ...RoleServiceOption) *RoleService {
	s := &RoleService{
		repo: repo,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.logger = resolveLogger(s.logger)

	return s
}

// ResolveTx returns the stored role for ref
func (s *RoleService) ResolveTx(ctx context.Context, tx bun.IDB, ref RoleRef) (*Role, error) {
	if ref.role != nil {
		return ref.role, nil
	}

	role, err := s.repo.Roles().GetByCodeTx(ctx, tx, ref.code)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewError(KindRoleNotFound, err).
				WithMetadata(map[string]any{"code": ref.code})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read role")
	}

	return role, nil
}

// AddRoleTx attaches the role to the user. Attaching a role the user
// already holds is a no-op.
func (s *RoleService) AddRoleTx(ctx context.Context, tx bun.IDB, user *User, ref RoleRef) (*Role, error) {
	role, err := s.ResolveTx(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	if user.HasRole(role) {
		return role, nil
	}

	user.Roles = append(user.Roles, role)
	if err := s.repo.Users().SaveRolesTx(ctx, tx, user); err != nil {
		user.Roles = user.Roles[:len(user.Roles)-1]
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save user roles")
	}

	s.logger.Debug("role attached", "user", user.Username, "role", role.Code)

	return role, nil
}

// RemoveRoleTx detaches the role from the user
func (s *RoleService) RemoveRoleTx(ctx context.Context, tx bun.IDB, user *User, ref RoleRef) (*Role, error) {
	role, err := s.ResolveTx(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	idx := user.roleIndex(role)
	if idx < 0 {
		return role, nil
	}

	previous := user.Roles
	user.Roles = append(append([]*Role{}, previous[:idx]...), previous[idx+1:]...)
	if err := s.repo.Users().SaveRolesTx(ctx, tx, user); err != nil {
		user.Roles = previous
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save user roles")
	}

	s.logger.Debug("role detached", "user", user.Username, "role", role.Code)

	return role, nil
}

func (s *RoleService) AddRole(ctx context.Context, user *User, ref RoleRef) (*Role, error) {
	var role *Role
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		role, err = s.AddRoleTx(ctx, tx, user, ref)
		return err
	})
	return role, err
}

func (s *RoleService) RemoveRole(ctx context.Context, user *User, ref RoleRef) (*Role, error) {
	var role *Role
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		role, err = s.RemoveRoleTx(ctx, tx, user, ref)
		return err
	})
	return role, err
}

// CreateRole stores a new role, failing if the code is taken
func (s *RoleService) CreateRole(ctx context.Context, code string, description *string) (*Role, error) {
	var role *Role
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		role, err = s.CreateRoleTx(ctx, tx, code, description)
		return err
	})
	return role, err
}

func (s *RoleService) CreateRoleTx(ctx context.Context, tx bun.IDB, code string, description *string) (*Role, error) {
	code = normalizeCode(code)

	if _, err := s.repo.Roles().GetByCodeTx(ctx, tx, code); err == nil {
		return nil, NewError(KindAuthRoleAlreadyExists, nil).
			WithMetadata(map[string]any{"code": code})
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read role")
	}

	role, err := s.repo.Roles().CreateTx(ctx, tx, &Role{Code: code, Description: description})
	if err != nil {
		return nil, translateCodeCreateError(err, KindAuthRoleAlreadyExists)
	}

	return role, nil
}

// FindAll lists stored roles ordered by code
func (s *RoleService) FindAll(ctx context.Context) ([]*Role, error) {
	return s.repo.Roles().List(ctx)
}

// ReadByRef resolves ref in its own transaction
func (s *RoleService) ReadByRef(ctx context.Context, ref RoleRef) (*Role, error) {
	var role *Role
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		role, err = s.ResolveTx(ctx, tx, ref)
		return err
	})
	return role, err
}
