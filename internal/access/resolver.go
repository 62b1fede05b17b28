package access

import (
	"context"
	"errors"

	usermodels "promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/sentinel"
)

// UserLookup is the has_role source: the user record carries the admin flag.
type UserLookup interface {
	FindUser(ctx context.Context, userID id.UserID) (*usermodels.User, error)
}

type Resolver struct {
	users UserLookup
}

func NewResolver(users UserLookup) *Resolver {
	return &Resolver{users: users}
}

// Resolve maps an authenticated user id to its actor variant. The nil id is a
// guest. Deleted or banned accounts cannot act.
func (r *Resolver) Resolve(ctx context.Context, userID id.UserID) (Actor, error) {
	if userID.IsNil() {
		return Guest(), nil
	}
	user, err := r.users.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Guest(), dErrors.New(dErrors.CodeUnauthorized, "User does not exist.")
		}
		return Guest(), dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve user")
	}
	return ActorFor(user)
}

// ActorFor derives the actor variant from a loaded user.
func ActorFor(user *usermodels.User) (Actor, error) {
	if user.IsDeleted {
		return Guest(), dErrors.New(dErrors.CodeUnauthorized, "User has been deleted.")
	}
	if !user.IsActive {
		return Guest(), dErrors.New(dErrors.CodeUnauthorized, "User account is inactive.")
	}
	if user.IsAdmin {
		return Administrator(user.ID, user.IsVerified), nil
	}
	return RegisteredUser(user.ID, user.IsVerified), nil
}
