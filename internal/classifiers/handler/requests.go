package handler

import (
	"time"

	"promisetracker/internal/classifiers/models"
	id "promisetracker/pkg/domain"
)

// PartyRequest is the body of POST and PUT /political-parties.
type PartyRequest struct {
	Name            string `json:"name"`
	EstablishedDate string `json:"established_date"`
	LiquidatedDate  string `json:"liquidated_date"`
}

func (r *PartyRequest) ToInput() (models.PartyInput, error) {
	established, err := requiredDate(r.EstablishedDate)
	if err != nil {
		return models.PartyInput{}, err
	}
	liquidated, err := id.ParseOptionalDate(r.LiquidatedDate)
	if err != nil {
		return models.PartyInput{}, err
	}
	return models.PartyInput{
		Name:            r.Name,
		EstablishedDate: established,
		LiquidatedDate:  liquidated,
	}, nil
}

// ConvocationRequest is the body of POST and PUT /convocations.
type ConvocationRequest struct {
	Name             string       `json:"name"`
	StartDate        string       `json:"start_date"`
	EndDate          string       `json:"end_date"`
	PoliticalParties []id.PartyID `json:"political_parties"`
}

func (r *ConvocationRequest) ToInput() (models.ConvocationInput, error) {
	start, err := requiredDate(r.StartDate)
	if err != nil {
		return models.ConvocationInput{}, err
	}
	end, err := id.ParseOptionalDate(r.EndDate)
	if err != nil {
		return models.ConvocationInput{}, err
	}
	return models.ConvocationInput{
		Name:      r.Name,
		StartDate: start,
		EndDate:   end,
		PartyIDs:  r.PoliticalParties,
	}, nil
}

// requiredDate leaves a blank date zero so input validation names the field.
func requiredDate(s string) (time.Time, error) {
	d, err := id.ParseOptionalDate(s)
	if err != nil || d == nil {
		return time.Time{}, err
	}
	return *d, nil
}
