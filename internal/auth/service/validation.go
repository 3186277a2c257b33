package service

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/dcamposl/inventario/internal/common/constants"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateCredentials(username, password string) error {
	if len(username) < constants.UsernameMinLength || len(username) > constants.UsernameMaxLength {
		return fmt.Errorf("%w: username must be %d-%d characters", ErrValidation,
			constants.UsernameMinLength, constants.UsernameMaxLength)
	}

	if len(password) < constants.PasswordMinLength || len(password) > constants.PasswordMaxLength {
		return fmt.Errorf("%w: password must be %d-%d characters", ErrValidation,
			constants.PasswordMinLength, constants.PasswordMaxLength)
	}

	if !isValidUsername(username) {
		return fmt.Errorf("%w: username may only contain letters, digits, '_' and '-'", ErrValidation)
	}

	return nil
}

func isValidUsername(value string) bool {
	if !usernameRegex.MatchString(value) {
		return false
	}

	first := rune(value[0])
	last := rune(value[len(value)-1])
	if !unicode.IsLetter(first) && !unicode.IsDigit(first) {
		return false
	}
	if !unicode.IsLetter(last) && !unicode.IsDigit(last) {
		return false
	}

	return true
}
