package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateCreateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{
			name: "sqlite username",
			err:  errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"),
			kind: KindUsernameAlreadyExists,
		},
		{
			name: "sqlite email",
			err:  errors.New("UNIQUE constraint failed: users.email"),
			kind: KindEmailAlreadyExists,
		},
		{
			name: "postgres email",
			err:  errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE=23505)`),
			kind: KindEmailAlreadyExists,
		},
		{
			name: "unique on another column",
			err:  errors.New("UNIQUE constraint failed: users.id"),
			kind: KindUserWasNotCreated,
		},
		{
			name: "other failure",
			err:  errors.New("disk I/O error"),
			kind: KindUserWasNotCreated,
		},
		{
			name: "already translated",
			err:  NewError(KindUsernameAlreadyExists, nil),
			kind: KindUsernameAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translated := translateCreateError(tt.err)
			assert.Equal(t, tt.kind, KindOf(translated))
			assert.ErrorIs(t, translated, tt.err)
		})
	}

	assert.NoError(t, translateCreateError(nil))
}

func TestTranslateCodeCreateError(t *testing.T) {
	dup := errors.New("UNIQUE constraint failed: auth_roles.code")
	assert.Equal(t, KindAuthRoleAlreadyExists, KindOf(translateCodeCreateError(dup, KindAuthRoleAlreadyExists)))

	other := translateCodeCreateError(errors.New("disk I/O error"), KindAuthRoleAlreadyExists)
	assert.Error(t, other)
	assert.Equal(t, KindUnknown, KindOf(other))
}
