package selector

import (
	"context"

	"promisetracker/internal/access"
	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
)

type ResultSelector struct {
	store Store
}

func NewResultSelector(store Store) *ResultSelector {
	return &ResultSelector{store: store}
}

// ByPromise lists the visible results of one promise, oldest first.
func (s *ResultSelector) ByPromise(ctx context.Context, actor access.Actor, promiseID id.PromiseID) ([]*models.Result, error) {
	if _, err := s.store.FindPromise(ctx, promiseID); err != nil {
		return nil, lookupErr(err, PromiseNotFoundMessage)
	}
	results, err := s.store.ListResults(ctx, models.ResultQuery{
		Visibility: visibilityFor(actor, false),
		PromiseID:  &promiseID,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list promise results")
	}
	return results, nil
}

// List is the cross-promise result listing, newest first. Administrators see
// everything; registered users only their own and must ask for it explicitly.
func (s *ResultSelector) List(ctx context.Context, actor access.Actor, filters models.ResultFilters) ([]*models.Result, error) {
	if actor.HasRole(access.RoleRegisteredUser) && !filters.IsMine {
		return nil, dErrors.Application(RegisteredOnlyOwnMessage)
	}
	if filters.IsUnreviewed && !actor.IsAdmin() {
		return nil, dErrors.PermissionViolation()
	}
	if actor.IsGuest() {
		return nil, dErrors.PermissionViolation()
	}

	results, err := s.store.ListResults(ctx, models.ResultQuery{
		Visibility:  visibilityFor(actor, filters.IsMine),
		OnlyPending: filters.IsUnreviewed,
		OrderDesc:   true,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list promise results")
	}
	return results, nil
}

func (s *ResultSelector) ByID(ctx context.Context, actor access.Actor, resultID id.ResultID) (*models.Result, error) {
	result, err := s.store.FindResult(ctx, resultID)
	if err != nil {
		return nil, lookupErr(err, ResultNotFoundMessage)
	}
	if !visibilityFor(actor, false).Allows(result.Review, result.CreatedBy) {
		return nil, dErrors.PermissionViolation()
	}
	return result, nil
}
