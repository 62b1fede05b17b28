// Package selector serves role-scoped reads of promises and results.
//
// Each selector derives a models.Visibility from the actor once and hands it
// to the store together with the caller's filters. Single-record reads apply
// the same predicate, so detail access matches list access.
package selector

import (
	"context"
	"errors"

	"promisetracker/internal/access"
	cmodels "promisetracker/internal/classifiers/models"
	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/sentinel"
)

const (
	PromiseNotFoundMessage   = "Promise not found."
	ResultNotFoundMessage    = "Promise result not found."
	PartyNotFoundMessage     = "Party does not exist!"
	UserNotRegisteredMessage = "User is not registered!"
	RegisteredOnlyOwnMessage = "Registered users can only view their own promise results!"
)

type Store interface {
	ListPromises(ctx context.Context, query models.PromiseQuery) ([]*models.Promise, error)
	FindPromise(ctx context.Context, promiseID id.PromiseID) (*models.Promise, error)
	ListResults(ctx context.Context, query models.ResultQuery) ([]*models.Result, error)
	FindResult(ctx context.Context, resultID id.ResultID) (*models.Result, error)
	FindParty(ctx context.Context, partyID id.PartyID) (*cmodels.PoliticalParty, error)
	// FinalResultCounts tallies approved final results of approved promises
	// per party. Parties without any such result are omitted.
	FinalResultCounts(ctx context.Context, partyID *id.PartyID) ([]models.AnalyticsRecord, error)
}

// visibilityFor is the single switch over actor variants.
func visibilityFor(actor access.Actor, mine bool) models.Visibility {
	switch actor.Role() {
	case access.RoleAdministrator:
		if mine {
			return models.Visibility{Scope: models.ScopeOwnOnly, OwnerID: actor.UserID()}
		}
		return models.Visibility{Scope: models.ScopeAll, OwnerID: actor.UserID()}
	case access.RoleRegisteredUser:
		if mine {
			return models.Visibility{Scope: models.ScopeOwnOnly, OwnerID: actor.UserID()}
		}
		return models.Visibility{Scope: models.ScopeApprovedOrOwn, OwnerID: actor.UserID()}
	default:
		return models.Visibility{Scope: models.ScopeApprovedOnly}
	}
}

func lookupErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.NotFound(msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
}
