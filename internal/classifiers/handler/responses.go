package handler

import (
	"time"

	"promisetracker/internal/classifiers/models"
	id "promisetracker/pkg/domain"
)

type PartyResponse struct {
	ID              id.PartyID `json:"id"`
	Name            string     `json:"name"`
	EstablishedDate string     `json:"established_date"`
	LiquidatedDate  string     `json:"liquidated_date,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toPartyResponse(p *models.PoliticalParty, now time.Time) PartyResponse {
	return PartyResponse{
		ID:              p.ID,
		Name:            p.Name,
		EstablishedDate: id.FormatDate(p.EstablishedDate),
		LiquidatedDate:  id.FormatOptionalDate(p.LiquidatedDate),
		IsActive:        p.IsActive(now),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type ConvocationResponse struct {
	ID               id.ConvocationID `json:"id"`
	Name             string           `json:"name"`
	StartDate        string           `json:"start_date"`
	EndDate          string           `json:"end_date,omitempty"`
	PoliticalParties []id.PartyID     `json:"political_parties"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func toConvocationResponse(c *models.Convocation) ConvocationResponse {
	parties := c.PartyIDs
	if parties == nil {
		parties = []id.PartyID{}
	}
	return ConvocationResponse{
		ID:               c.ID,
		Name:             c.Name,
		StartDate:        id.FormatDate(c.StartDate),
		EndDate:          id.FormatOptionalDate(c.EndDate),
		PoliticalParties: parties,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
