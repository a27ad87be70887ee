package auth

import (
	"net/http"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.SignUp, controller.SignUp).Name("sign-up.post")
	app.Post(controller.Routes.SignIn, controller.SignIn).Name("sign-in.post")
	app.Get(controller.Routes.Verify, controller.VerifyEmail).Name("verify.get")
	app.Post(controller.Routes.Verify, controller.VerifyEmail).Name("verify.post")
	app.Get(controller.Routes.Roles, controller.ListRoles).Name("roles.get")
	app.Get(controller.Routes.Permissions, controller.ListPermissions).Name("permissions.get")

	if controller.Protected != nil {
		app.Get(controller.Routes.Me, controller.Protected, controller.Me).Name("me.get")
		app.Get(controller.Routes.Users, controller.Protected, controller.ListUsers).Name("users.get")
	}

	return controller
}

type AuthControllerRoutes struct {
	SignUp      string
	SignIn      string
	Verify      string
	Roles       string
	Permissions string
	Me          string
	Users       string
}

type AuthController struct {
	Debug       bool
	Logger      Logger
	Routes      *AuthControllerRoutes
	Register    *RegisterUserHandler
	Verifier    *VerifyAccountHandler
	Auther      *Auther
	Roles       *RoleService
	Permissions *PermissionService
	// Protected guards routes that need an access token. It must store
	// the verified *TokenClaims in Locals under ClaimsKey.
	Protected fiber.Handler
	ClaimsKey string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithRegisterHandler(h *RegisterUserHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = h
		return c
	}
}

func WithVerifyHandler(h *VerifyAccountHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Verifier = h
		return c
	}
}

func WithAuther(a *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithCodeServices(roles *RoleService, permissions *PermissionService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Roles = roles
		c.Permissions = permissions
		return c
	}
}

func WithProtectedRoutes(guard fiber.Handler, claimsKey string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Protected = guard
		if claimsKey != "" {
			c.ClaimsKey = claimsKey
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:    defLogger{},
		ClaimsKey: "user",
		Routes: &AuthControllerRoutes{
			SignUp:      "/auth/signup",
			SignIn:      "/auth/signin",
			Verify:      "/auth/verify",
			Roles:       "/auth/roles",
			Permissions: "/auth/permissions",
			Me:          "/auth/me",
			Users:       "/auth/users",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	c.Logger = resolveLogger(c.Logger)

	if c.Register == nil {
		panic("Missing RegisterUserHandler in auth controller...")
	}

	if c.Verifier == nil {
		panic("Missing VerifyAccountHandler in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	return c
}

// ErrorResponse is the body sent for every failed request
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	User    *PublicUser `json:"user,omitempty"`
}

// SignUpRequest payload
type SignUpRequest struct {
	Name     string `json:"name" form:"name"`
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Token    string `json:"token" form:"token"`
}

// SignInRequest payload
type SignInRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// VerifyRequest payload, token may also come as a query parameter
type VerifyRequest struct {
	Token string `json:"token" form:"token" query:"token"`
}

func (a *AuthController) SignUp(ctx *fiber.Ctx) error {
	payload := new(SignUpRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return a.badRequest(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("sign up payload", "payload", print.MaybePrettyJSON(SignUpRequest{
			Name:     payload.Name,
			Username: payload.Username,
			Email:    payload.Email,
		}))
	}

	user, err := a.Register.Register(ctx.UserContext(), RegisterUserMessage{
		Name:     payload.Name,
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Token:    payload.Token,
	})
	if err != nil {
		return a.sendError(ctx, err, user)
	}

	return ctx.Status(fiber.StatusCreated).JSON(user)
}

func (a *AuthController) SignIn(ctx *fiber.Ctx) error {
	payload := new(SignInRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return a.badRequest(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, err)
	}

	res, err := a.Auther.Login(ctx.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return a.sendError(ctx, err, nil)
	}

	return ctx.JSON(res)
}

func (a *AuthController) VerifyEmail(ctx *fiber.Ctx) error {
	payload := new(VerifyRequest)
	if ctx.Method() == fiber.MethodPost {
		if err := ctx.BodyParser(payload); err != nil {
			return a.badRequest(ctx, err)
		}
	} else if err := ctx.QueryParser(payload); err != nil {
		return a.badRequest(ctx, err)
	}

	user, err := a.Verifier.Verify(ctx.UserContext(), payload.Token)
	if err != nil {
		return a.sendError(ctx, err, nil)
	}

	return ctx.JSON(user)
}

// Me returns the user the access token was issued for
func (a *AuthController) Me(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(a.ClaimsKey).(*TokenClaims)
	if !ok || claims == nil {
		return ctx.SendStatus(fiber.StatusUnauthorized)
	}

	user, err := a.Auther.CurrentUser(ctx.UserContext(), claims)
	if err != nil {
		return a.sendError(ctx, err, nil)
	}

	return ctx.JSON(user)
}

// ListUsers is restricted to tokens carrying the ADMIN role
func (a *AuthController) ListUsers(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(a.ClaimsKey).(*TokenClaims)
	if !ok || claims == nil {
		return ctx.SendStatus(fiber.StatusUnauthorized)
	}

	if !slices.Contains(claims.Roles, RoleAdmin) {
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Code:    "forbidden",
			Message: "admin role required",
		})
	}

	users, err := a.Auther.ListUsers(ctx.UserContext())
	if err != nil {
		return a.sendError(ctx, err, nil)
	}

	return ctx.JSON(users)
}

func (a *AuthController) ListRoles(ctx *fiber.Ctx) error {
	if a.Roles == nil {
		return ctx.SendStatus(fiber.StatusNotFound)
	}

	roles, err := a.Roles.FindAll(ctx.UserContext())
	if err != nil {
		return a.sendError(ctx, err, nil)
	}

	return ctx.JSON(roles)
}

func (a *AuthController) ListPermissions(ctx *fiber.Ctx) error {
	if a.Permissions == nil {
		return ctx.SendStatus(fiber.StatusNotFound)
	}

	permissions, err := a.Permissions.FindAll(ctx.UserContext())
	if err != nil {
		return a.sendError(ctx, err, nil)
	}

	return ctx.JSON(permissions)
}

func (a *AuthController) badRequest(ctx *fiber.Ctx, err error) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Code:    "invalid_request",
		Message: err.Error(),
	})
}

func (a *AuthController) sendError(ctx *fiber.Ctx, err error, user *PublicUser) error {
	kind := KindOf(err)
	status := StatusForKind(kind)

	if status >= http.StatusInternalServerError {
		a.Logger.Error("request failed", "path", ctx.Path(), "code", kind.Code(), "error", err)
	}

	resp := ErrorResponse{
		Code:    kind.Code(),
		Message: kind.Message(),
		User:    user,
	}

	if kind == KindUnknown {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.TextCode != "" {
			resp.Code = richErr.TextCode
		}
	}

	return ctx.Status(status).JSON(resp)
}

var kindStatus = map[Kind]int{
	KindInvalidEmail:                     http.StatusBadRequest,
	KindInvalidUsernameEmpty:             http.StatusBadRequest,
	KindInvalidNumericUsernameCharacters: http.StatusBadRequest,
	KindInvalidUsernameCharacters:        http.StatusBadRequest,
	KindInvalidUsernameLength:            http.StatusBadRequest,
	KindInvalidPasswordEmpty:             http.StatusBadRequest,
	KindInvalidPasswordLength:            http.StatusBadRequest,
	KindInvalidNameEmpty:                 http.StatusBadRequest,
	KindInvalidRegistrationToken:         http.StatusUnauthorized,
	KindUsernameAlreadyExists:            http.StatusConflict,
	KindEmailAlreadyExists:               http.StatusConflict,
	KindUserWasNotCreated:                http.StatusInternalServerError,
	KindEmailSendingError:                http.StatusBadGateway,
	KindUserNotFound:                     http.StatusNotFound,
	KindInvalidCredentials:               http.StatusUnauthorized,
	KindUserNotVerified:                  http.StatusForbidden,
	KindUserIsBanned:                     http.StatusForbidden,
	KindInvalidVerificationToken:         http.StatusBadRequest,
	KindUserAlreadyVerified:              http.StatusConflict,
	KindAuthRoleAlreadyExists:            http.StatusConflict,
	KindAuthPermissionAlreadyExists:      http.StatusConflict,
	KindRoleNotFound:                     http.StatusNotFound,
	KindPermissionNotFound:               http.StatusNotFound,
	KindNotStarted:                       http.StatusInternalServerError,
}

// StatusForKind maps an error kind to the HTTP status sent to clients
func StatusForKind(kind Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
