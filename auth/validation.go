package auth

import (
	"strings"
	"unicode"

	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
)

const maxUsernameLength = 150

// Validator checks sign-in input before anything is sent to the backend.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCredentials returns a validation *errors.Error naming the first
// problem with the submitted username and password.
func (v *Validator) ValidateCredentials(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperrors.Validation(MissingUsernameErr.Error())
	}
	if len(username) > maxUsernameLength {
		return apperrors.Validation(UsernameTooLongErr.Error())
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsSpace(r) }) < 0 {
		return apperrors.Validation(MissingPasswordErr.Error())
	}
	return nil
}
