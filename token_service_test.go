package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-signup"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	signingKey             string
	issuer                 string
	tokenExpiration        int
	verificationExpiration int
	verificationURL        string
	useHashid              bool
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:             "test-secret",
		issuer:                 "signup-test",
		tokenExpiration:        1,
		verificationExpiration: 24,
		verificationURL:        "http://localhost:3000/verify",
	}
}

func (c *testConfig) GetSigningKey() string          { return c.signingKey }
func (c *testConfig) GetIssuer() string              { return c.issuer }
func (c *testConfig) GetTokenExpiration() int        { return c.tokenExpiration }
func (c *testConfig) GetVerificationExpiration() int { return c.verificationExpiration }
func (c *testConfig) GetVerificationURL() string     { return c.verificationURL }
func (c *testConfig) GetAppName() string             { return "Signup" }
func (c *testConfig) GetAppEmail() string            { return "no-reply@test.com" }
func (c *testConfig) GetEnvironment() string         { return "test" }
func (c *testConfig) GetUseHashid() bool             { return c.useHashid }

func TestTokenService_VerificationRoundTrip(t *testing.T) {
	ts := auth.NewTokenService(newTestConfig(), &captureLogger{})

	token, err := ts.SignVerification("test")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Verify(token)
	require.NoError(t, err)
	assert.True(t, claims.Verification)
	assert.Equal(t, "test", claims.User)
	assert.Equal(t, "signup-test", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenService_AccessToken(t *testing.T) {
	ts := auth.NewTokenService(newTestConfig(), nil)

	user := &auth.User{
		ID:          uuid.New(),
		Username:    "test",
		Roles:       []*auth.Role{{Code: auth.RoleNormal}},
		Permissions: []*auth.Permission{{Code: auth.PermissionSignIn}},
	}

	token, err := ts.SignAccess(user)
	require.NoError(t, err)

	claims, err := ts.Verify(token)
	require.NoError(t, err)
	assert.False(t, claims.Verification)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, []string{auth.RoleNormal}, claims.Roles)
	assert.Equal(t, []string{auth.PermissionSignIn}, claims.Permissions)

	_, err = ts.SignAccess(nil)
	assert.Error(t, err)
}

func TestTokenService_Rejects(t *testing.T) {
	cfg := newTestConfig()
	ts := auth.NewTokenService(cfg, nil)

	valid, err := ts.SignVerification("test")
	require.NoError(t, err)

	otherCfg := newTestConfig()
	otherCfg.signingKey = "another-secret"
	forged, err := auth.NewTokenService(otherCfg, nil).SignVerification("test")
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Verification: true,
		User:         "test",
	}).SignedString([]byte(cfg.signingKey))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: cfg.issuer},
		Verification:     true,
		User:             "test",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  *goerrors.Error
	}{
		{name: "tampered", token: valid + "x", want: auth.ErrTokenMalformed},
		{name: "wrong secret", token: forged, want: auth.ErrTokenMalformed},
		{name: "expired", token: expired, want: auth.ErrTokenExpired},
		{name: "alg none", token: none, want: auth.ErrTokenMalformed},
		{name: "garbage", token: "not-a-token", want: auth.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.Verify(tt.token)
			assert.Nil(t, claims)
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, tt.want.TextCode, richErr.TextCode)
		})
	}
}
