package selector

import (
	"context"

	"promisetracker/internal/access"
	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
)

type PromiseSelector struct {
	store Store
}

func NewPromiseSelector(store Store) *PromiseSelector {
	return &PromiseSelector{store: store}
}

// List returns the promises actor may see, filtered and ordered by date.
func (s *PromiseSelector) List(ctx context.Context, actor access.Actor, filters models.PromiseFilters) ([]*models.Promise, error) {
	if filters.IsMine && actor.IsGuest() {
		return nil, dErrors.Application(UserNotRegisteredMessage)
	}
	if filters.IsUnreviewed && !actor.IsAdmin() {
		return nil, dErrors.PermissionViolation()
	}

	promises, err := s.store.ListPromises(ctx, models.PromiseQuery{
		Visibility:    visibilityFor(actor, filters.IsMine),
		NameContains:  filters.Name,
		PartyID:       filters.PartyID,
		ConvocationID: filters.ConvocationID,
		FinalStatus:   filters.ResultStatus,
		OnlyPending:   filters.IsUnreviewed,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list promises")
	}
	return promises, nil
}

func (s *PromiseSelector) ByID(ctx context.Context, actor access.Actor, promiseID id.PromiseID) (*models.Promise, error) {
	promise, err := s.store.FindPromise(ctx, promiseID)
	if err != nil {
		return nil, lookupErr(err, PromiseNotFoundMessage)
	}
	if !visibilityFor(actor, false).Allows(promise.Review, promise.CreatedBy) {
		return nil, dErrors.PermissionViolation()
	}
	return promise, nil
}
