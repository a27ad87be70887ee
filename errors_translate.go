package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun/driver/pgdriver"
)

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique constraint failure and,
// when the driver exposes it, a hint naming the offending column.
func uniqueViolation(err error) (hint string, ok bool) {
	if err == nil {
		return "", false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		if pgErr.Field('C') != pgUniqueViolation {
			return "", false
		}
		return strings.ToLower(pgErr.Field('n') + " " + pgErr.Field('D')), true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") {
		return msg, true
	}

	return "", false
}

// translateCreateError maps a failed user insert to the registration kinds
func translateCreateError(err error) error {
	if err == nil {
		return nil
	}

	if kind := KindOf(err); kind != KindUnknown {
		return err
	}

	if hint, ok := uniqueViolation(err); ok {
		switch {
		case strings.Contains(hint, "username"):
			return NewError(KindUsernameAlreadyExists, err)
		case strings.Contains(hint, "email"):
			return NewError(KindEmailAlreadyExists, err)
		}
	}

	return NewError(KindUserWasNotCreated, err)
}

// translateCodeCreateError maps a failed role or permission insert
func translateCodeCreateError(err error, kind Kind) error {
	if err == nil {
		return nil
	}

	if _, ok := uniqueViolation(err); ok {
		return NewError(kind, err)
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create record")
}
