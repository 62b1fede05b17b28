package handler

import (
	"strings"

	"promisetracker/internal/users/models"
	dErrors "promisetracker/pkg/domain-errors"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

type CreateUserRequest struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	IsAdmin         bool   `json:"is_admin"`
}

func (r *CreateUserRequest) ToInput() models.CreateUserInput {
	return models.CreateUserInput{
		Name:            r.Name,
		Surname:         r.Surname,
		Email:           r.Email,
		Username:        r.Username,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
		IsAdmin:         r.IsAdmin,
	}
}

// EditUserRequest leaves the password unchanged when it is blank.
type EditUserRequest struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	IsAdmin         bool   `json:"is_admin"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (r *EditUserRequest) ToInput() models.EditUserInput {
	return models.EditUserInput{
		Name:            r.Name,
		Surname:         r.Surname,
		Email:           r.Email,
		Username:        r.Username,
		IsAdmin:         r.IsAdmin,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
	}
}

type VerifyRequest struct {
	Code string `json:"code"`
}
