// Package models holds the classifier records that promises reference:
// political parties and legislative convocations.
package models

import (
	"slices"
	"time"

	id "promisetracker/pkg/domain"
)

// Audit carries the creator/editor stamps shared by every persisted record.
type Audit struct {
	CreatedBy *id.UserID
	UpdatedBy *id.UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stamp fills creation fields on first save and edit fields on every save.
func (a *Audit) Stamp(actor *id.UserID, now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
		a.CreatedBy = actor
	}
	a.UpdatedAt = now
	a.UpdatedBy = actor
}

type PoliticalParty struct {
	ID              id.PartyID
	Name            string
	EstablishedDate time.Time
	LiquidatedDate  *time.Time
	Audit
}

// IsActive is true while the party has no liquidation date or it lies ahead.
func (p *PoliticalParty) IsActive(now time.Time) bool {
	return p.LiquidatedDate == nil || p.LiquidatedDate.After(id.Day(now))
}

type Convocation struct {
	ID        id.ConvocationID
	Name      string
	StartDate time.Time
	EndDate   *time.Time
	PartyIDs  []id.PartyID
	Audit
}

// HasParty reports whether the party was elected in this convocation.
func (c *Convocation) HasParty(partyID id.PartyID) bool {
	return slices.Contains(c.PartyIDs, partyID)
}

// PartyFilter narrows the party list. Zero values match everything.
type PartyFilter struct {
	NameContains string
	IsActive     *bool
}

type ConvocationFilter struct {
	NameContains string
	PartyIDs     []id.PartyID
}
