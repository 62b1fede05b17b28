package models

import (
	"net/mail"
	"strings"

	dErrors "promisetracker/pkg/domain-errors"
	pstrings "promisetracker/pkg/platform/strings"
)

const (
	MaxFieldLength    = 255
	MinPasswordLength = 8
)

type CreateUserInput struct {
	Name            string
	Surname         string
	Email           string
	Username        string
	Password        string
	PasswordConfirm string
	IsAdmin         bool
}

func (in *CreateUserInput) Normalize() {
	if in == nil {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
}

// Follows validation order: Size -> Required -> Syntax.
func (in *CreateUserInput) Validate() error {
	if in == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateProfile(in.Name, in.Surname, in.Email, in.Username); err != nil {
		return err
	}
	if in.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

// EditUserInput leaves the password unchanged when Password is blank.
type EditUserInput struct {
	Name            string
	Surname         string
	Email           string
	Username        string
	IsAdmin         bool
	Password        string
	PasswordConfirm string
}

func (in *EditUserInput) Normalize() {
	if in == nil {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
}

func (in *EditUserInput) Validate() error {
	if in == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validateProfile(in.Name, in.Surname, in.Email, in.Username)
}

func validateProfile(name, surname, email, username string) error {
	for _, f := range []struct{ field, value string }{
		{"name", name}, {"surname", surname}, {"email", email}, {"username", username},
	} {
		if pstrings.RuneLen(f.value) > MaxFieldLength {
			return dErrors.Newf(dErrors.CodeValidation, "%s must be 255 characters or less", f.field)
		}
	}
	for _, f := range []struct{ field, value string }{
		{"name", name}, {"surname", surname}, {"email", email}, {"username", username},
	} {
		if f.value == "" {
			return dErrors.Newf(dErrors.CodeValidation, "%s is required", f.field)
		}
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return dErrors.New(dErrors.CodeValidation, "Enter a valid email address.")
	}
	return nil
}
