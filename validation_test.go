package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-auth-signup"
	"github.com/stretchr/testify/assert"
)

func validInput() auth.RegistrationInput {
	return auth.RegistrationInput{
		Email:    "test@test.com",
		Username: "test",
		Password: "12345678",
		Name:     "Test",
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *auth.RegistrationInput)
		want   auth.Kind
	}{
		{
			name:   "valid input",
			mutate: func(in *auth.RegistrationInput) {},
			want:   auth.KindUnknown,
		},
		{
			name:   "email without domain",
			mutate: func(in *auth.RegistrationInput) { in.Email = "test@" },
			want:   auth.KindInvalidEmail,
		},
		{
			name:   "empty email",
			mutate: func(in *auth.RegistrationInput) { in.Email = "" },
			want:   auth.KindInvalidEmail,
		},
		{
			name:   "empty username",
			mutate: func(in *auth.RegistrationInput) { in.Username = "" },
			want:   auth.KindInvalidUsernameEmpty,
		},
		{
			name:   "numeric username",
			mutate: func(in *auth.RegistrationInput) { in.Username = "12345" },
			want:   auth.KindInvalidNumericUsernameCharacters,
		},
		{
			name:   "decimal username",
			mutate: func(in *auth.RegistrationInput) { in.Username = "-12.5" },
			want:   auth.KindInvalidNumericUsernameCharacters,
		},
		{
			name:   "username with dash",
			mutate: func(in *auth.RegistrationInput) { in.Username = "te-st" },
			want:   auth.KindInvalidUsernameCharacters,
		},
		{
			name:   "username with at sign",
			mutate: func(in *auth.RegistrationInput) { in.Username = "test@" },
			want:   auth.KindInvalidUsernameCharacters,
		},
		{
			name:   "username too short",
			mutate: func(in *auth.RegistrationInput) { in.Username = "abc" },
			want:   auth.KindInvalidUsernameLength,
		},
		{
			name:   "username too long",
			mutate: func(in *auth.RegistrationInput) { in.Username = "abcdefghijk" },
			want:   auth.KindInvalidUsernameLength,
		},
		{
			name:   "username at max length",
			mutate: func(in *auth.RegistrationInput) { in.Username = "abcdefghij" },
			want:   auth.KindUnknown,
		},
		{
			name:   "username with underscore",
			mutate: func(in *auth.RegistrationInput) { in.Username = "a_1b" },
			want:   auth.KindUnknown,
		},
		{
			name:   "empty password",
			mutate: func(in *auth.RegistrationInput) { in.Password = "" },
			want:   auth.KindInvalidPasswordEmpty,
		},
		{
			name:   "short password",
			mutate: func(in *auth.RegistrationInput) { in.Password = "1234567" },
			want:   auth.KindInvalidPasswordLength,
		},
		{
			name:   "blank name",
			mutate: func(in *auth.RegistrationInput) { in.Name = "   " },
			want:   auth.KindInvalidNameEmpty,
		},
		{
			name: "first failing rule wins",
			mutate: func(in *auth.RegistrationInput) {
				in.Email = "nope"
				in.Username = ""
				in.Password = ""
			},
			want: auth.KindInvalidEmail,
		},
		{
			name: "username rules run before password rules",
			mutate: func(in *auth.RegistrationInput) {
				in.Username = "1234"
				in.Password = "short"
			},
			want: auth.KindInvalidNumericUsernameCharacters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := auth.ValidateRegistration(in)
			if tt.want == auth.KindUnknown {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			assert.Equal(t, tt.want, auth.KindOf(err))
		})
	}
}
