package auth

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	numericRx      = regexp.MustCompile(`^[+-]?([0-9]*[.])?[0-9]+$`)
	usernameCharRx = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

const (
	UsernameMinLength = 4
	UsernameMaxLength = 10
	PasswordMinLength = 8
)

// RegistrationInput is the payload checked before a user is created
type RegistrationInput struct {
	Email    string
	Username string
	Password string
	Name     string
}

type check struct {
	kind  Kind
	value any
	rules []validation.Rule
}

// notMatch fails when the value matches rx
type notMatch struct {
	rx *regexp.Regexp
}

func (r notMatch) Validate(value any) error {
	s, _ := value.(string)
	if r.rx.MatchString(s) {
		return errors.New("must not match pattern")
	}
	return nil
}

// ValidateRegistration runs the registration rules in order and returns the
// first failure as a domain error.
func ValidateRegistration(in RegistrationInput) error {
	checks := []check{
		{KindInvalidEmail, in.Email, []validation.Rule{validation.Required, is.Email}},
		{KindInvalidUsernameEmpty, in.Username, []validation.Rule{validation.Required}},
		{KindInvalidNumericUsernameCharacters, in.Username, []validation.Rule{notMatch{rx: numericRx}}},
		{KindInvalidUsernameCharacters, in.Username, []validation.Rule{validation.Match(usernameCharRx)}},
		{KindInvalidUsernameLength, in.Username, []validation.Rule{validation.Length(UsernameMinLength, UsernameMaxLength)}},
		{KindInvalidPasswordEmpty, in.Password, []validation.Rule{validation.Required}},
		{KindInvalidPasswordLength, in.Password, []validation.Rule{validation.Length(PasswordMinLength, 0)}},
		{KindInvalidNameEmpty, strings.TrimSpace(in.Name), []validation.Rule{validation.Required}},
	}

	for _, c := range checks {
		if err := validation.Validate(c.value, c.rules...); err != nil {
			return NewError(c.kind, err)
		}
	}

	return nil
}
