package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-auth-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_CreateStoresAccountFlags(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()

	tests := []struct {
		username string
		verified bool
		active   bool
	}{
		{username: "ready", verified: true, active: true},
		{username: "banned", verified: true, active: false},
		{username: "pending", verified: false, active: true},
		{username: "both", verified: false, active: false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			createAccount(t, repo, tt.username, tt.verified, tt.active)

			stored, err := repo.Users().GetByUsername(ctx, tt.username)
			require.NoError(t, err)
			assert.Equal(t, tt.verified, stored.VerifiedEmail)
			assert.Equal(t, tt.active, stored.Active)
		})
	}
}

func TestUsers_NewUserIsActive(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()

	user := auth.NewUser("Test", "fresh", "fresh@test.com")
	user.PasswordHash = "hash"

	_, err := repo.Users().Create(ctx, user)
	require.NoError(t, err)

	stored, err := repo.Users().GetByUsername(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.False(t, stored.VerifiedEmail)
}

func TestUsers_List(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()

	users, err := repo.Users().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	createAccount(t, repo, "zed", true, true)
	createAccount(t, repo, "amy", true, false)

	users, err = repo.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "amy", users[0].Username)
	assert.Equal(t, "zed", users[1].Username)
	assert.False(t, users[0].Active)
}
