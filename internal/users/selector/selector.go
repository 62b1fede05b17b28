// Package selector serves account reads.
package selector

import (
	"context"
	"errors"

	"promisetracker/internal/access"
	"promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/sentinel"
)

const userNotFoundMessage = "User not found."

// Store lists users newest first.
type Store interface {
	FindUser(ctx context.Context, userID id.UserID) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
}

type Selector struct {
	store Store
}

func New(store Store) *Selector {
	return &Selector{store: store}
}

// ByID returns any user to administrators. Everyone else may only read their
// own active, non-deleted account.
func (s *Selector) ByID(ctx context.Context, actor access.Actor, userID id.UserID) (*models.User, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound(userNotFoundMessage)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if actor.IsAdmin() {
		return user, nil
	}
	if actor.UserID() != user.ID || !user.IsActive {
		return nil, dErrors.PermissionViolation()
	}
	if user.IsDeleted {
		return nil, dErrors.NotFound(userNotFoundMessage)
	}
	return user, nil
}

func (s *Selector) List(ctx context.Context, actor access.Actor, filter models.UserFilter) ([]*models.User, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.PermissionViolation()
	}
	users, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}
