package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	MinPasswordLength = 8
	passwordSpecials  = "@$!%*?&"
)

var ErrWeakPassword = errors.New("password does not meet the policy")

// ValidatePassword enforces the operator password policy: at least eight
// characters with a lower-case letter, an upper-case letter, a digit and one of
// @$!%*?&. No other characters are allowed.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLength)
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r > unicode.MaxASCII:
			return fmt.Errorf("%w: only letters, digits and %s are allowed", ErrWeakPassword, passwordSpecials)
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return fmt.Errorf("%w: only letters, digits and %s are allowed", ErrWeakPassword, passwordSpecials)
		}
	}

	switch {
	case !lower:
		return fmt.Errorf("%w: needs a lower-case letter", ErrWeakPassword)
	case !upper:
		return fmt.Errorf("%w: needs an upper-case letter", ErrWeakPassword)
	case !digit:
		return fmt.Errorf("%w: needs a digit", ErrWeakPassword)
	case !special:
		return fmt.Errorf("%w: needs one of %s", ErrWeakPassword, passwordSpecials)
	}
	return nil
}
