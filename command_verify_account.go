package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type VerifyAccountMessage struct {
	Token      string             `json:"token"`
	OnResponse func(user *User) `json:"-"`
}

func (e VerifyAccountMessage) Type() string { return "user.verify" }

type VerifyAccountHandler struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

func NewVerifyAccountHandler(repo RepositoryManager, tokens TokenService, logger Logger) *VerifyAccountHandler {
	return &VerifyAccountHandler{
		repo:   repo,
		tokens: tokens,
		logger: resolveLogger(logger),
	}
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account verification")
	default:
		user, err := h.Verify(ctx, event.Token)
		if err != nil {
			return err
		}
		if event.OnResponse != nil {
			event.OnResponse(user)
		}
		return nil
	}
}

// Verify consumes an email verification token. Tokens that fail signature
// or expiry checks, point at an unknown user, or were not issued for
// verification are all reported as InvalidVerificationToken.
func (h *VerifyAccountHandler) Verify(ctx context.Context, token string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	claims, err := h.tokens.Verify(token)
	if err != nil {
		h.logger.Debug("verification token rejected", "error", err)
		return nil, NewError(KindInvalidVerificationToken, err)
	}

	if !claims.Verification || claims.User == "" {
		return nil, NewError(KindInvalidVerificationToken, nil)
	}

	users := h.repo.Users()

	user, err := users.GetByUsername(ctx, claims.User)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewError(KindInvalidVerificationToken, err)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for verification")
	}

	if user.VerifiedEmail {
		return nil, NewError(KindUserAlreadyVerified, nil)
	}

	if user, err = users.MarkEmailVerified(ctx, user); err != nil {
		h.logger.Error("mark email verified failed", "username", claims.User, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify user")
	}

	h.logger.Info("user verified", "id", user.ID, "username", user.Username)

	return user, nil
}
