package models

import (
	"strings"
	"time"

	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	pstrings "promisetracker/pkg/platform/strings"
)

const MaxNameLength = 255

type PartyInput struct {
	Name            string
	EstablishedDate time.Time
	LiquidatedDate  *time.Time
}

func (in *PartyInput) Normalize() {
	if in == nil {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.EstablishedDate = id.Day(in.EstablishedDate)
	if in.LiquidatedDate != nil {
		d := id.Day(*in.LiquidatedDate)
		in.LiquidatedDate = &d
	}
}

// Follows validation order: Size -> Required.
func (in *PartyInput) Validate() error {
	if in == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if pstrings.RuneLen(in.Name) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 255 characters or less")
	}
	if in.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if in.EstablishedDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "established_date is required")
	}
	return nil
}

type ConvocationInput struct {
	Name      string
	StartDate time.Time
	EndDate   *time.Time
	PartyIDs  []id.PartyID
}

func (in *ConvocationInput) Normalize() {
	if in == nil {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.StartDate = id.Day(in.StartDate)
	if in.EndDate != nil {
		d := id.Day(*in.EndDate)
		in.EndDate = &d
	}
}

// Follows validation order: Size -> Required.
func (in *ConvocationInput) Validate() error {
	if in == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if pstrings.RuneLen(in.Name) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 255 characters or less")
	}
	if in.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if in.StartDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "start_date is required")
	}
	return nil
}
