package models

import (
	id "promisetracker/pkg/domain"
)

// Scope is the visibility predicate a selector derives from the actor.
type Scope int

const (
	// ScopeApprovedOnly: guests.
	ScopeApprovedOnly Scope = iota
	// ScopeApprovedOrOwn: registered users.
	ScopeApprovedOrOwn
	// ScopeOwnOnly: registered users asking for "mine".
	ScopeOwnOnly
	// ScopeAll: administrators.
	ScopeAll
)

type Visibility struct {
	Scope   Scope
	OwnerID id.UserID
}

// Allows applies the predicate to a single record.
func (v Visibility) Allows(review Review, createdBy *id.UserID) bool {
	owned := createdBy != nil && *createdBy == v.OwnerID
	switch v.Scope {
	case ScopeAll:
		return true
	case ScopeOwnOnly:
		return owned
	case ScopeApprovedOrOwn:
		return review.IsApproved() || owned
	default:
		return review.IsApproved()
	}
}

// PromiseQuery is evaluated by stores; results are ordered by date ascending.
type PromiseQuery struct {
	Visibility    Visibility
	NameContains  string
	PartyID       *id.PartyID
	ConvocationID *id.ConvocationID
	// FinalStatus keeps promises whose approved final result has this status.
	FinalStatus *CompletionStatus
	OnlyPending bool
}

type ResultQuery struct {
	Visibility  Visibility
	PromiseID   *id.PromiseID
	OnlyPending bool
	// OrderDesc sorts by date descending instead of ascending.
	OrderDesc bool
}

// PromiseFilters are the caller-supplied list filters.
type PromiseFilters struct {
	Name          string
	PartyID       *id.PartyID
	ConvocationID *id.ConvocationID
	ResultStatus  *CompletionStatus
	IsMine        bool
	IsUnreviewed  bool
}

type ResultFilters struct {
	IsMine       bool
	IsUnreviewed bool
}

// AnalyticsRecord is the per-party tally of closed promises.
type AnalyticsRecord struct {
	Name             string     `json:"name"`
	ID               id.PartyID `json:"id"`
	CompletedCount   int        `json:"completed_count"`
	UncompletedCount int        `json:"uncompleted_count"`
}
