package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// LoginResult is returned by a successful Login
type LoginResult struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}

type Auther struct {
	repo         RepositoryManager
	passwords    PasswordAuthenticator
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	return &Auther{
		repo:         repo,
		passwords:    bcryptPasswords{},
		tokenService: NewTokenService(opts, defLogger{}),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = resolveLogger(logger)
	return s
}

func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

func (s *Auther) WithPasswordAuthenticator(p PasswordAuthenticator) *Auther {
	if p != nil {
		s.passwords = p
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Authenticate checks the credentials and the account state. Unknown
// usernames fail with UserNotFound and wrong passwords with
// InvalidCredentials. Unverified accounts are rejected before banned ones.
func (s *Auther) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.Users().GetByUsername(ctx, username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("authenticate unknown user", "username", username)
			return nil, NewError(KindUserNotFound, err)
		}
		s.logger.Error("authenticate lookup error", "username", username, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	if err := s.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("authenticate password mismatch", "username", username)
		return nil, err
	}

	if !user.VerifiedEmail {
		return nil, NewError(KindUserNotVerified, nil)
	}

	if !user.Active {
		s.logger.Warn("authenticate banned user", "username", username)
		return nil, NewError(KindUserIsBanned, nil)
	}

	return user, nil
}

func (s *Auther) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokenService.SignAccess(user)
	if err != nil {
		s.logger.Error("Login sign access token error", "error", err)
		return nil, err
	}

	s.logger.Info("user logged in", "id", user.ID, "username", user.Username)

	return &LoginResult{
		User:        user,
		AccessToken: token,
	}, nil
}

// CurrentUser loads the account an access token was issued for. Accounts
// banned after the token was signed are rejected.
func (s *Auther) CurrentUser(ctx context.Context, claims *TokenClaims) (*User, error) {
	if claims == nil || claims.User == "" {
		return nil, NewError(KindUserNotFound, nil)
	}

	user, err := s.repo.Users().GetByUsername(ctx, claims.User)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewError(KindUserNotFound, err)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	if !user.Active {
		return nil, NewError(KindUserIsBanned, nil)
	}

	return user, nil
}

// ListUsers returns every stored account
func (s *Auther) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.repo.Users().List(ctx)
	if err != nil {
		s.logger.Error("list users error", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}
	return users, nil
}
