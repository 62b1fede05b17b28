package models

import (
	"strings"
	"time"

	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	pstrings "promisetracker/pkg/platform/strings"
)

const (
	MaxNameLength        = 255
	MaxDescriptionLength = 2000
	MaxSourceLength      = 1000
)

type PromiseInput struct {
	Name          string
	Description   string
	Sources       []string
	Date          time.Time
	PartyID       id.PartyID
	ConvocationID id.ConvocationID
}

func (in *PromiseInput) Normalize() {
	if in == nil {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Sources = pstrings.TrimEach(in.Sources)
	in.Date = id.Day(in.Date)
}

// Follows validation order: Size -> Required.
func (in *PromiseInput) Validate() error {
	if in == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateText(in.Name, in.Description, in.Sources); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "date is required")
	}
	if in.PartyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "party is required")
	}
	if in.ConvocationID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "convocation is required")
	}
	return nil
}

type ResultInput struct {
	PromiseID   id.PromiseID
	Name        string
	Description string
	Sources     []string
	Date        time.Time
	IsFinal     bool
	Status      *CompletionStatus
}

func (in *ResultInput) Normalize() {
	if in == nil {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Sources = pstrings.TrimEach(in.Sources)
	in.Date = id.Day(in.Date)
	if in.Status != nil && *in.Status == "" {
		in.Status = nil
	}
}

// Follows validation order: Size -> Required -> Syntax.
func (in *ResultInput) Validate() error {
	if in == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateText(in.Name, in.Description, in.Sources); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "date is required")
	}
	if in.PromiseID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "promise is required")
	}
	if in.Status != nil && !in.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be COMPLETED or ABANDONED")
	}
	return nil
}

func validateText(name, description string, sources []string) error {
	if pstrings.RuneLen(name) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 255 characters or less")
	}
	if pstrings.RuneLen(description) > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description must be 2000 characters or less")
	}
	for _, src := range sources {
		if pstrings.RuneLen(src) > MaxSourceLength {
			return dErrors.New(dErrors.CodeValidation, "each source must be 1000 characters or less")
		}
	}
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if description == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}
	if len(sources) == 0 {
		return dErrors.New(dErrors.CodeValidation, "Sources list is not valid.")
	}
	return nil
}
