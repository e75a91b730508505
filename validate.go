package accounts

import (
	"regexp"
	"strings"
	"unicode"
)

// emailPattern accepts local@domain where the domain carries at least one
// dot. Quoted locals and bracketed IP domains are intentionally not
// supported; the registration UI never produces them.
var emailPattern = regexp.MustCompile(`^[^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*@([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`)

// PasswordSpecialChars is the fixed symbol set the strength predicate
// accepts. Changing it invalidates previously communicated password rules,
// not previously stored hashes.
const PasswordSpecialChars = `=+!@#$%^&*._-\/()`

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidateEmail checks the address shape, not deliverability.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePasswordStrength enforces the registration password policy:
// at least one lowercase, one uppercase, one digit and one symbol from
// PasswordSpecialChars, with a minimum length of MinPasswordLength.
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecialChars, r):
			special = true
		}
	}

	if !lower || !upper || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}

// StrongPassword adapts the strength predicate to ozzo-validation's
// validation.By so payloads can declare it next to their other rules.
func StrongPassword(value any) error {
	password, _ := value.(string)
	return ValidatePasswordStrength(password)
}
