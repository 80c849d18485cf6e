package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/credstack/internal/common"
)

const (
	maxEmailLength    = 255
	minPasswordLength = 8
)

// ValidateEmail performs the minimal structural check used at registration.
func ValidateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return common.NewValidationError("Invalid email format")
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		return common.NewValidationError("Email too long")
	}
	return nil
}

// ValidatePassword enforces length (in code points), one letter and one digit.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return common.NewValidationError("Password must be at least 8 characters")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter {
		return common.NewValidationError("Password must contain at least one letter")
	}
	if !hasDigit {
		return common.NewValidationError("Password must contain at least one number")
	}
	return nil
}
