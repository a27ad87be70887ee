package auth

import (
	"context"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Token is an optional registration token signed with the shared secret
	Token      string                `json:"token,omitempty"`
	OnResponse func(user *PublicUser) `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

func (e RegisterUserMessage) Validate() error {
	return ValidateRegistration(RegistrationInput{
		Email:    e.Email,
		Username: e.Username,
		Password: e.Password,
		Name:     e.Name,
	})
}

type RegisterUserHandler struct {
	repo            RepositoryManager
	roles           *RoleService
	permissions     *PermissionService
	tokens          TokenService
	mailer          VerificationMailer
	passwords       PasswordAuthenticator
	verificationURL string
	useHashid       bool
	hashID          func(input string) (uuid.UUID, error)
	logger          Logger
}

type RegisterUserOption func(*RegisterUserHandler)

func WithRegisterLogger(logger Logger) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.logger = logger
	}
}

func WithRegisterPasswords(p PasswordAuthenticator) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.passwords = p
	}
}

// WithRegisterHashID replaces the function deriving user IDs from the
// email when hashid IDs are enabled
func WithRegisterHashID(fn func(input string) (uuid.UUID, error)) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.hashID = fn
	}
}

func NewRegisterUserHandler(repo RepositoryManager, tokens TokenService, mailer VerificationMailer, cfg Config, opts ...RegisterUserOption) *RegisterUserHandler {
	h := &RegisterUserHandler{
		repo:            repo,
		tokens:          tokens,
		mailer:          mailer,
		passwords:       bcryptPasswords{},
		verificationURL: cfg.GetVerificationURL(),
		useHashid:       cfg.GetUseHashid(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	if h.hashID == nil {
		h.hashID = func(input string) (uuid.UUID, error) {
			return hashid.NewUUID(input)
		}
	}

	h.logger = resolveLogger(h.logger)
	h.roles = NewRoleService(repo, WithRoleServiceLogger(h.logger))
	h.permissions = NewPermissionService(repo, WithPermissionServiceLogger(h.logger))

	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		user, err := h.Register(ctx, event)
		if user != nil && event.OnResponse != nil {
			event.OnResponse(user)
		}
		return err
	}
}

// Register creates the user with its default roles and permissions in a
// single transaction and then sends the verification email. When the email
// can not be sent the account stays committed: the public user is returned
// together with an EmailSendingError.
func (h *RegisterUserHandler) Register(ctx context.Context, event RegisterUserMessage) (*PublicUser, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return nil, err
	}

	if event.Token != "" {
		if _, err := h.tokens.Verify(event.Token); err != nil {
			return nil, NewError(KindInvalidRegistrationToken, err)
		}
	}

	user, err := h.create(ctx, event)
	if err != nil {
		h.logger.Error("user registration failed", "username", event.Username, "error", err)
		return nil, err
	}

	h.logger.Info("user registered", "id", user.ID, "username", user.Username)

	if err := h.sendVerification(ctx, user); err != nil {
		h.logger.Error("verification email failed", "username", user.Username, "error", err)
		return user.Public(), NewError(KindEmailSendingError, err)
	}

	return user.Public(), nil
}

func (h *RegisterUserHandler) create(ctx context.Context, event RegisterUserMessage) (*User, error) {
	uow := h.repo.NewUnitOfWork()
	if err := uow.Start(ctx); err != nil {
		return nil, NewError(KindUserWasNotCreated, err)
	}

	user, err := Complete(ctx, uow, func(ctx context.Context, tx bun.IDB) (*User, error) {
		return h.createTx(ctx, tx, event)
	})

	if err != nil {
		switch KindOf(err) {
		case KindUsernameAlreadyExists, KindEmailAlreadyExists:
			return nil, err
		}
		return nil, NewError(KindUserWasNotCreated, err)
	}

	return user, nil
}

func (h *RegisterUserHandler) createTx(ctx context.Context, tx bun.IDB, event RegisterUserMessage) (*User, error) {
	users := h.repo.Users()

	exists, err := users.UsernameExistsTx(ctx, tx, event.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewError(KindUsernameAlreadyExists, nil)
	}

	exists, err = users.EmailExistsTx(ctx, tx, event.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewError(KindEmailAlreadyExists, nil)
	}

	hash, err := h.passwords.HashPassword(event.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := NewUser(event.Name, event.Username, event.Email)
	user.PasswordHash = hash
	if h.useHashid {
		if id, err := h.hashID(event.Email); err != nil {
			h.logger.Warn("hashid generation failed, keeping random id", "email", event.Email, "error", err)
		} else {
			user.ID = id
		}
	}

	if user, err = users.CreateTx(ctx, tx, user); err != nil {
		return nil, translateCreateError(err)
	}

	for _, code := range DefaultRoles {
		if _, err := h.roles.AddRoleTx(ctx, tx, user, RoleByCode(code)); err != nil {
			return nil, err
		}
	}

	for _, code := range DefaultPermissions {
		if _, err := h.permissions.AddPermissionTx(ctx, tx, user, PermissionByCode(code)); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (h *RegisterUserHandler) sendVerification(ctx context.Context, user *User) error {
	link, err := h.VerificationURL(user.Username)
	if err != nil {
		return err
	}
	return h.mailer.SendVerificationEmail(ctx, user.Email, user.Name, link)
}

// VerificationURL returns the link sent to username to verify the account
func (h *RegisterUserHandler) VerificationURL(username string) (string, error) {
	token, err := h.tokens.SignVerification(username)
	if err != nil {
		return "", err
	}
	return h.verificationURL + "?token=" + url.QueryEscape(token), nil
}
