package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// PermissionRef points at a permission either by code or by an already
// loaded record
type PermissionRef struct {
	code       string
	permission *Permission
}

func PermissionByCode(code string) PermissionRef {
	return PermissionRef{code: normalizeCode(code)}
}

func ResolvedPermission(permission *Permission) PermissionRef {
	return PermissionRef{permission: permission}
}

func (r PermissionRef) Code() string {
	if r.permission != nil {
		return r.permission.Code
	}
	return r.code
}

// PermissionService attaches, detaches and checks permissions on users
type PermissionService struct {
	repo   RepositoryManager
	logger Logger
}

type PermissionServiceOption func(*PermissionService)

func WithPermissionServiceLogger(logger Logger) PermissionServiceOption {
	return func(s *PermissionService) {
		s.logger = logger
	}
}

func NewPermissionService(repo RepositoryManager, opts ...PermissionServiceOption) *PermissionService {
	s := &PermissionService{
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

func (s *PermissionService) ResolveTx(ctx context.Context, tx bun.IDB, ref PermissionRef) (*Permission, error) {
	if ref.permission != nil {
		return ref.permission, nil
	}

	permission, err := s.repo.Permissions().GetByCodeTx(ctx, tx, ref.code)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewError(KindPermissionNotFound, err).
				WithMetadata(map[string]any{"code": ref.code})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read permission")
	}

	return permission, nil
}

func (s *PermissionService) AddPermissionTx(ctx context.Context, tx bun.IDB, user *User, ref PermissionRef) (*Permission, error) {
	permission, err := s.ResolveTx(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	if user.HasPermission(permission) {
		return permission, nil
	}

	user.Permissions = append(user.Permissions, permission)
	if err := s.repo.Users().SavePermissionsTx(ctx, tx, user); err != nil {
		user.Permissions = user.Permissions[:len(user.Permissions)-1]
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save user permissions")
	}

	s.logger.Debug("permission attached", "user", user.Username, "permission", permission.Code)

	return permission, nil
}

func (s *PermissionService) RemovePermissionTx(ctx context.Context, tx bun.IDB, user *User, ref PermissionRef) (*Permission, error) {
	permission, err := s.ResolveTx(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	idx := user.permissionIndex(permission)
	if idx < 0 {
		return permission, nil
	}

	previous := user.Permissions
	user.Permissions = append(append([]*Permission{}, previous[:idx]...), previous[idx+1:]...)
	if err := s.repo.Users().SavePermissionsTx(ctx, tx, user); err != nil {
		user.Permissions = previous
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save user permissions")
	}

	s.logger.Debug("permission detached", "user", user.Username, "permission", permission.Code)

	return permission, nil
}

func (s *PermissionService) AddPermission(ctx context.Context, user *User, ref PermissionRef) (*Permission, error) {
	var permission *Permission
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		permission, err = s.AddPermissionTx(ctx, tx, user, ref)
		return err
	})
	return permission, err
}

func (s *PermissionService) RemovePermission(ctx context.Context, user *User, ref PermissionRef) (*Permission, error) {
	var permission *Permission
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		permission, err = s.RemovePermissionTx(ctx, tx, user, ref)
		return err
	})
	return permission, err
}

func (s *PermissionService) CreatePermission(ctx context.Context, code string, description *string) (*Permission, error) {
	var permission *Permission
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		permission, err = s.CreatePermissionTx(ctx, tx, code, description)
		return err
	})
	return permission, err
}

func (s *PermissionService) CreatePermissionTx(ctx context.Context, tx bun.IDB, code string, description *string) (*Permission, error) {
	code = normalizeCode(code)

	if _, err := s.repo.Permissions().GetByCodeTx(ctx, tx, code); err == nil {
		return nil, NewError(KindAuthPermissionAlreadyExists, nil).
			WithMetadata(map[string]any{"code": code})
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read permission")
	}

	permission, err := s.repo.Permissions().CreateTx(ctx, tx, &Permission{Code: code, Description: description})
	if err != nil {
		return nil, translateCodeCreateError(err, KindAuthPermissionAlreadyExists)
	}

	return permission, nil
}

func (s *PermissionService) FindAll(ctx context.Context) ([]*Permission, error) {
	return s.repo.Permissions().List(ctx)
}

func (s *PermissionService) ReadByRef(ctx context.Context, ref PermissionRef) (*Permission, error) {
	var permission *Permission
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		permission, err = s.ResolveTx(ctx, tx, ref)
		return err
	})
	return permission, err
}

// IsAuthorized reports whether the stored permission set of user includes
// ref. An unknown permission code is never granted.
func (s *PermissionService) IsAuthorized(ctx context.Context, user *User, ref PermissionRef) (bool, error) {
	if user == nil {
		return false, nil
	}

	stored, err := s.repo.Users().GetByID(ctx, user.ID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return false, NewError(KindUserNotFound, err)
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read user")
	}

	code := ref.Code()
	for _, p := range stored.Permissions {
		if p != nil && p.Code == code {
			return true, nil
		}
	}

	return false, nil
}
