package service

import (
	"strings"
	"unicode"

	"promisetracker/internal/users/models"
	dErrors "promisetracker/pkg/domain-errors"
	pstrings "promisetracker/pkg/platform/strings"
)

const (
	PasswordTooShortMessage   = "This password is too short. It must contain at least 8 characters."
	PasswordNumericMessage    = "This password is entirely numeric."
	PasswordTooCommonMessage  = "This password is too common."
	PasswordsDontMatchMessage = "Passwords do not match."
)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "11111111": {},
	"abc12345": {}, "sunshine": {}, "princess": {}, "football": {}, "baseball": {},
	"welcome1": {}, "admin123": {}, "letmein1": {}, "trustno1": {}, "passw0rd": {},
}

// validatePasswords applies the password rules in order and then checks the
// confirmation. A blank password skips validation so edits can keep the old one.
func validatePasswords(password, confirm string) error {
	if strings.TrimSpace(password) == "" {
		return nil
	}
	if pstrings.RuneLen(password) < models.MinPasswordLength {
		return dErrors.Application(PasswordTooShortMessage)
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return dErrors.Application(PasswordTooCommonMessage)
	}
	if isNumeric(password) {
		return dErrors.Application(PasswordNumericMessage)
	}
	if password != confirm {
		return dErrors.Application(PasswordsDontMatchMessage)
	}
	return nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
