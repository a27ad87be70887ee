package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-auth-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createStoredUser(t *testing.T, repo auth.RepositoryManager, username string) *auth.User {
	t.Helper()

	user := auth.NewUser("Test", username, username+"@test.com")
	user.PasswordHash = "hash"
	_, err := repo.Users().Create(context.Background(), user)
	require.NoError(t, err)

	stored, err := repo.Users().GetByUsername(context.Background(), username)
	require.NoError(t, err)
	return stored
}

func roleCodes(user *auth.User) []string {
	out := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		out = append(out, r.Code)
	}
	return out
}

func permissionCodes(user *auth.User) []string {
	out := make([]string, 0, len(user.Permissions))
	for _, p := range user.Permissions {
		out = append(out, p.Code)
	}
	return out
}

func TestRoleService_AddRoleIsIdempotent(t *testing.T) {
	repo, db, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()
	svc := auth.NewRoleService(repo)
	user := createStoredUser(t, repo, "roles")

	role, err := svc.AddRole(ctx, user, auth.RoleByCode("normal"))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleNormal, role.Code)

	again, err := svc.AddRole(ctx, user, auth.RoleByCode(auth.RoleNormal))
	require.NoError(t, err)
	assert.Equal(t, role.ID, again.ID)

	assert.Equal(t, 1, countRows(t, db, "user_auth_roles"))

	stored, err := repo.Users().GetByUsername(ctx, "roles")
	require.NoError(t, err)
	assert.Equal(t, []string{auth.RoleNormal}, roleCodes(stored))
}

func TestRoleService_AddResolvedRole(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()
	svc := auth.NewRoleService(repo)
	user := createStoredUser(t, repo, "resolved")

	admin, err := svc.ReadByRef(ctx, auth.RoleByCode(auth.RoleAdmin))
	require.NoError(t, err)

	role, err := svc.AddRole(ctx, user, auth.ResolvedRole(admin))
	require.NoError(t, err)
	assert.Same(t, admin, role)
	assert.True(t, user.HasRole(admin))
}

func TestRoleService_RemoveRole(t *testing.T) {
	repo, db, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()
	svc := auth.NewRoleService(repo)
	user := createStoredUser(t, repo, "remove")

	_, err := svc.AddRole(ctx, user, auth.RoleByCode(auth.RoleNormal))
	require.NoError(t, err)
	_, err = svc.AddRole(ctx, user, auth.RoleByCode(auth.RoleAdmin))
	require.NoError(t, err)
	require.Equal(t, 2, countRows(t, db, "user_auth_roles"))

	_, err = svc.RemoveRole(ctx, user, auth.RoleByCode(auth.RoleAdmin))
	require.NoError(t, err)

	stored, err := repo.Users().GetByUsername(ctx, "remove")
	require.NoError(t, err)
	assert.Equal(t, []string{auth.RoleNormal}, roleCodes(stored))

	_, err = svc.RemoveRole(ctx, user, auth.RoleByCode(auth.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, db, "user_auth_roles"))
}

func TestRoleService_UnknownRole(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	svc := auth.NewRoleService(repo)
	user := createStoredUser(t, repo, "unknown")

	_, err := svc.AddRole(context.Background(), user, auth.RoleByCode("GHOST"))
	assert.True(t, auth.IsKind(err, auth.KindRoleNotFound))
	assert.Empty(t, user.Roles)
}

func TestRoleService_CreateRole(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()
	svc := auth.NewRoleService(repo)

	desc := "can moderate"
	role, err := svc.CreateRole(ctx, "moderator", &desc)
	require.NoError(t, err)
	assert.Equal(t, "MODERATOR", role.Code)

	_, err = svc.CreateRole(ctx, "Moderator", nil)
	assert.True(t, auth.IsKind(err, auth.KindAuthRoleAlreadyExists))

	_, err = svc.CreateRole(ctx, auth.RoleAdmin, nil)
	assert.True(t, auth.IsKind(err, auth.KindAuthRoleAlreadyExists))

	all, err := svc.FindAll(ctx)
	require.NoError(t, err)
	codes := make([]string, 0, len(all))
	for _, r := range all {
		codes = append(codes, r.Code)
	}
	assert.Equal(t, []string{"ADMIN", "MODERATOR", "NORMAL"}, codes)
}

func TestPermissionService_AddRemoveAndAuthorize(t *testing.T) {
	repo, db, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()
	svc := auth.NewPermissionService(repo)
	user := createStoredUser(t, repo, "perms")

	ok, err := svc.IsAuthorized(ctx, user, auth.PermissionByCode(auth.PermissionSignIn))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.AddPermission(ctx, user, auth.PermissionByCode("sign_in"))
	require.NoError(t, err)
	_, err = svc.AddPermission(ctx, user, auth.PermissionByCode(auth.PermissionSignIn))
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, db, "user_auth_permissions"))

	ok, err = svc.IsAuthorized(ctx, user, auth.PermissionByCode(auth.PermissionSignIn))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAuthorized(ctx, user, auth.PermissionByCode(auth.PermissionSignUp))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.RemovePermission(ctx, user, auth.PermissionByCode(auth.PermissionSignIn))
	require.NoError(t, err)

	ok, err = svc.IsAuthorized(ctx, user, auth.PermissionByCode(auth.PermissionSignIn))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissionService_CreateAndUnknown(t *testing.T) {
	repo, _, cleanup := setupSeededRepo(t)
	defer cleanup()

	ctx := context.Background()
	svc := auth.NewPermissionService(repo)

	_, err := svc.CreatePermission(ctx, auth.PermissionSignUp, nil)
	assert.True(t, auth.IsKind(err, auth.KindAuthPermissionAlreadyExists))

	created, err := svc.CreatePermission(ctx, "export", nil)
	require.NoError(t, err)
	assert.Equal(t, "EXPORT", created.Code)

	_, err = svc.ReadByRef(ctx, auth.PermissionByCode("nope"))
	assert.True(t, auth.IsKind(err, auth.KindPermissionNotFound))
}

func TestSeeder_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := auth.NewRepositoryManager(db)
	seeder := auth.NewSeeder(repo, auth.WithSeederLogger(&captureLogger{}))

	first, err := seeder.Seed(ctx)
	require.NoError(t, err)
	require.Len(t, first.Roles, 2)
	require.Len(t, first.Permissions, 2)

	second, err := seeder.Seed(ctx)
	require.NoError(t, err)

	for i := range first.Roles {
		assert.Equal(t, first.Roles[i].ID, second.Roles[i].ID)
	}
	for i := range first.Permissions {
		assert.Equal(t, first.Permissions[i].ID, second.Permissions[i].ID)
	}

	assert.Equal(t, 2, countRows(t, db, "auth_roles"))
	assert.Equal(t, 2, countRows(t, db, "auth_permissions"))
}

func TestSeeder_CustomCodesUpperCased(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := auth.NewRepositoryManager(db)
	res, err := auth.NewSeeder(repo, auth.WithSeedCodes([]string{"editor"}, nil)).Seed(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Roles, 1)
	assert.Equal(t, "EDITOR", res.Roles[0].Code)
	assert.Empty(t, res.Permissions)
}
