package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

// Kind identifies a domain error independently of its message.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidEmail
	KindInvalidUsernameEmpty
	KindInvalidNumericUsernameCharacters
	KindInvalidUsernameCharacters
	KindInvalidUsernameLength
	KindInvalidPasswordEmpty
	KindInvalidPasswordLength
	KindInvalidNameEmpty
	KindInvalidRegistrationToken
	KindUsernameAlreadyExists
	KindEmailAlreadyExists
	KindUserWasNotCreated
	KindEmailSendingError
	KindUserNotFound
	KindInvalidCredentials
	KindUserNotVerified
	KindUserIsBanned
	KindInvalidVerificationToken
	KindUserAlreadyVerified
	KindAuthRoleAlreadyExists
	KindAuthPermissionAlreadyExists
	KindRoleNotFound
	KindPermissionNotFound
	KindNotStarted
)

// Text codes are the stable machine readable identifiers sent to clients.
const (
	TextCodeInvalidEmail                     = "invalid_email"
	TextCodeInvalidUsernameEmpty             = "invalid_username_empty"
	TextCodeInvalidNumericUsernameCharacters = "invalid_numeric_username_characters"
	TextCodeInvalidUsernameCharacters        = "invalid_username_characters"
	TextCodeInvalidUsernameLength            = "invalid_username_length"
	TextCodeInvalidPasswordEmpty             = "invalid_password_empty"
	TextCodeInvalidPasswordLength            = "invalid_password_length"
	TextCodeInvalidNameEmpty                 = "invalid_name_empty"
	TextCodeInvalidRegistrationToken         = "invalid_registration_token"
	TextCodeUsernameAlreadyExists            = "username_already_exists"
	TextCodeEmailAlreadyExists               = "email_already_exists"
	TextCodeUserWasNotCreated                = "user_was_not_created"
	TextCodeEmailSendingError                = "email_sending_error"
	TextCodeUserNotFound                     = "user_not_found"
	TextCodeInvalidCredentials               = "invalid_credentials"
	TextCodeUserNotVerified                  = "user_not_verified"
	TextCodeUserIsBanned                     = "user_is_banned"
	TextCodeInvalidVerificationToken         = "invalid_verification_token"
	TextCodeUserAlreadyVerified              = "user_already_verified"
	TextCodeAuthRoleAlreadyExists            = "auth_role_already_exists"
	TextCodeAuthPermissionAlreadyExists      = "auth_permission_already_exists"
	TextCodeRoleNotFound                     = "auth_role_not_found"
	TextCodePermissionNotFound               = "auth_permission_not_found"
	TextCodeNotStarted                       = "unit_of_work_not_started"
)

var (
	ErrInvalidEmail = goerrors.New("Invalid email", goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidEmail).
			WithCode(goerrors.CodeBadRequest)

	ErrInvalidUsernameEmpty = goerrors.New("Invalid empty username", goerrors.CategoryValidation).
				WithTextCode(TextCodeInvalidUsernameEmpty).
				WithCode(goerrors.CodeBadRequest)

	ErrInvalidNumericUsernameCharacters = goerrors.New("Invalid username characters (include a non-number character)", goerrors.CategoryValidation).
						WithTextCode(TextCodeInvalidNumericUsernameCharacters).
						WithCode(goerrors.CodeBadRequest)

	ErrInvalidUsernameCharacters = goerrors.New("Invalid username characters, it can only contain letters, numbers and '_'", goerrors.CategoryValidation).
					WithTextCode(TextCodeInvalidUsernameCharacters).
					WithCode(goerrors.CodeBadRequest)

	ErrInvalidUsernameLength = goerrors.New("Invalid username length", goerrors.CategoryValidation).
					WithTextCode(TextCodeInvalidUsernameLength).
					WithCode(goerrors.CodeBadRequest)

	ErrInvalidPasswordEmpty = goerrors.New("Invalid password empty", goerrors.CategoryValidation).
				WithTextCode(TextCodeInvalidPasswordEmpty).
				WithCode(goerrors.CodeBadRequest)

	ErrInvalidPasswordLength = goerrors.New("Invalid password length", goerrors.CategoryValidation).
					WithTextCode(TextCodeInvalidPasswordLength).
					WithCode(goerrors.CodeBadRequest)

	ErrInvalidNameEmpty = goerrors.New("Invalid name empty", goerrors.CategoryValidation).
				WithTextCode(TextCodeInvalidNameEmpty).
				WithCode(goerrors.CodeBadRequest)

	ErrInvalidRegistrationToken = goerrors.New("Invalid registration token", goerrors.CategoryAuth).
					WithTextCode(TextCodeInvalidRegistrationToken).
					WithCode(goerrors.CodeUnauthorized)

	ErrUsernameAlreadyExists = goerrors.New("Username already exists", goerrors.CategoryConflict).
					WithTextCode(TextCodeUsernameAlreadyExists).
					WithCode(goerrors.CodeConflict)

	ErrEmailAlreadyExists = goerrors.New("Email already exists", goerrors.CategoryConflict).
				WithTextCode(TextCodeEmailAlreadyExists).
				WithCode(goerrors.CodeConflict)

	ErrUserWasNotCreated = goerrors.New("User was not created", goerrors.CategoryInternal).
				WithTextCode(TextCodeUserWasNotCreated).
				WithCode(goerrors.CodeInternal)

	ErrEmailSendingError = goerrors.New("Error while sending the email", goerrors.CategoryOperation).
				WithTextCode(TextCodeEmailSendingError).
				WithCode(goerrors.CodeInternal)

	ErrUserNotFound = goerrors.New("User not found", goerrors.CategoryNotFound).
			WithTextCode(TextCodeUserNotFound).
			WithCode(goerrors.CodeNotFound)

	ErrInvalidCredentials = goerrors.New("Invalid credentials", goerrors.CategoryAuth).
				WithTextCode(TextCodeInvalidCredentials).
				WithCode(goerrors.CodeUnauthorized)

	ErrUserNotVerified = goerrors.New("User not verified", goerrors.CategoryAuth).
				WithTextCode(TextCodeUserNotVerified).
				WithCode(goerrors.CodeForbidden)

	ErrUserIsBanned = goerrors.New("User is banned", goerrors.CategoryAuth).
			WithTextCode(TextCodeUserIsBanned).
			WithCode(goerrors.CodeForbidden)

	ErrInvalidVerificationToken = goerrors.New("Invalid verification token", goerrors.CategoryAuth).
					WithTextCode(TextCodeInvalidVerificationToken).
					WithCode(goerrors.CodeBadRequest)

	ErrUserAlreadyVerified = goerrors.New("User already verified", goerrors.CategoryConflict).
				WithTextCode(TextCodeUserAlreadyVerified).
				WithCode(goerrors.CodeConflict)

	ErrAuthRoleAlreadyExists = goerrors.New("Role already exists", goerrors.CategoryConflict).
					WithTextCode(TextCodeAuthRoleAlreadyExists).
					WithCode(goerrors.CodeConflict)

	ErrAuthPermissionAlreadyExists = goerrors.New("Permission already exists", goerrors.CategoryConflict).
					WithTextCode(TextCodeAuthPermissionAlreadyExists).
					WithCode(goerrors.CodeConflict)

	ErrRoleNotFound = goerrors.New("Role not found", goerrors.CategoryNotFound).
			WithTextCode(TextCodeRoleNotFound).
			WithCode(goerrors.CodeNotFound)

	ErrPermissionNotFound = goerrors.New("Permission not found", goerrors.CategoryNotFound).
				WithTextCode(TextCodePermissionNotFound).
				WithCode(goerrors.CodeNotFound)

	ErrNotStarted = goerrors.New("Unit of work is not started. Call Start first", goerrors.CategoryInternal).
			WithTextCode(TextCodeNotStarted).
			WithCode(goerrors.CodeInternal)
)

var kindErrors = map[Kind]*goerrors.Error{
	KindInvalidEmail:                     ErrInvalidEmail,
	KindInvalidUsernameEmpty:             ErrInvalidUsernameEmpty,
	KindInvalidNumericUsernameCharacters: ErrInvalidNumericUsernameCharacters,
	KindInvalidUsernameCharacters:        ErrInvalidUsernameCharacters,
	KindInvalidUsernameLength:            ErrInvalidUsernameLength,
	KindInvalidPasswordEmpty:             ErrInvalidPasswordEmpty,
	KindInvalidPasswordLength:            ErrInvalidPasswordLength,
	KindInvalidNameEmpty:                 ErrInvalidNameEmpty,
	KindInvalidRegistrationToken:         ErrInvalidRegistrationToken,
	KindUsernameAlreadyExists:            ErrUsernameAlreadyExists,
	KindEmailAlreadyExists:               ErrEmailAlreadyExists,
	KindUserWasNotCreated:                ErrUserWasNotCreated,
	KindEmailSendingError:                ErrEmailSendingError,
	KindUserNotFound:                     ErrUserNotFound,
	KindInvalidCredentials:               ErrInvalidCredentials,
	KindUserNotVerified:                  ErrUserNotVerified,
	KindUserIsBanned:                     ErrUserIsBanned,
	KindInvalidVerificationToken:         ErrInvalidVerificationToken,
	KindUserAlreadyVerified:              ErrUserAlreadyVerified,
	KindAuthRoleAlreadyExists:            ErrAuthRoleAlreadyExists,
	KindAuthPermissionAlreadyExists:      ErrAuthPermissionAlreadyExists,
	KindRoleNotFound:                     ErrRoleNotFound,
	KindPermissionNotFound:               ErrPermissionNotFound,
	KindNotStarted:                       ErrNotStarted,
}

var kindsByTextCode = func() map[string]Kind {
	out := make(map[string]Kind, len(kindErrors))
	for kind, err := range kindErrors {
		out[err.TextCode] = kind
	}
	return out
}()

// Code returns the stable text code for the kind.
func (k Kind) Code() string {
	if err, ok := kindErrors[k]; ok {
		return err.TextCode
	}
	return "unknown_error"
}

// Message returns the human readable message for the kind.
func (k Kind) Message() string {
	if err, ok := kindErrors[k]; ok {
		return err.Message
	}
	return "Unknown error"
}

func (k Kind) String() string {
	return k.Code()
}

// NewError returns a fresh error of the given kind. A non nil cause is kept
// as the error source so it can be logged.
func NewError(kind Kind, cause error) *goerrors.Error {
	base, ok := kindErrors[kind]
	if !ok {
		return goerrors.Wrap(cause, goerrors.CategoryInternal, "unknown error")
	}

	clone := base.Clone()
	if clone == nil {
		clone = base
	}

	if cause != nil {
		clone.Source = cause
	}

	return clone
}

// KindOf resolves the domain kind carried by err, KindUnknown if none.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr == nil {
		return KindUnknown
	}

	if kind, ok := kindsByTextCode[richErr.TextCode]; ok {
		return kind
	}

	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
