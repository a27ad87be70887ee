package auth_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAccount_RegisterThenVerify(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()
	cfg := newTestConfig()
	mailer := okMailer()
	tokens := auth.NewTokenService(cfg, nil)

	register := auth.NewRegisterUserHandler(repo, tokens, mailer, cfg, auth.WithRegisterLogger(&captureLogger{}))
	verify := auth.NewVerifyAccountHandler(repo, tokens, &captureLogger{})
	auther := auth.NewAuthenticator(repo, cfg).WithLogger(&captureLogger{})

	_, err := register.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = auther.Authenticate(ctx, "test", "12345678")
	assert.Equal(t, auth.KindUserNotVerified, auth.KindOf(err))

	link, err := url.Parse(mailer.Calls[0].Arguments.String(3))
	require.NoError(t, err)

	user, err := verify.Verify(ctx, link.Query().Get("token"))
	require.NoError(t, err)
	assert.True(t, user.VerifiedEmail)
	assert.Equal(t, "test", user.Username)

	_, err = verify.Verify(ctx, link.Query().Get("token"))
	assert.Equal(t, auth.KindUserAlreadyVerified, auth.KindOf(err))

	authed, err := auther.Authenticate(ctx, "test", "12345678")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestVerifyAccount_InvalidTokens(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	createAccount(t, repo, "pending", false, true)

	cfg := newTestConfig()
	tokens := auth.NewTokenService(cfg, nil)
	verify := auth.NewVerifyAccountHandler(repo, tokens, &captureLogger{})

	unknown, err := tokens.SignVerification("ghost")
	require.NoError(t, err)

	access, err := tokens.SignAccess(&auth.User{Username: "pending"})
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.GetIssuer(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Verification: true,
		User:         "pending",
	}).SignedString([]byte(cfg.GetSigningKey()))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "garbage"},
		{name: "unknown user", token: unknown},
		{name: "not a verification token", token: access},
		{name: "expired", token: expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := verify.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.Nil(t, user)
			assert.Equal(t, auth.KindInvalidVerificationToken, auth.KindOf(err))
		})
	}

	stored, err := repo.Users().GetByUsername(context.Background(), "pending")
	require.NoError(t, err)
	assert.False(t, stored.VerifiedEmail)
}

func TestVerifyAccount_Execute(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	createAccount(t, repo, "pending", false, true)

	tokens := auth.NewTokenService(newTestConfig(), nil)
	verify := auth.NewVerifyAccountHandler(repo, tokens, nil)

	token, err := tokens.SignVerification("pending")
	require.NoError(t, err)

	var got *auth.User
	err = verify.Execute(context.Background(), auth.VerifyAccountMessage{
		Token:      token,
		OnResponse: func(user *auth.User) { got = user },
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.VerifiedEmail)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, verify.Execute(ctx, auth.VerifyAccountMessage{Token: token}))
}
