// Package access resolves who is acting on a request and answers the
// role and ownership questions selectors and services ask.
//
// An Actor is one of three variants (Guest, RegisteredUser, Administrator).
// Callers switch on Role once instead of re-querying role membership.
package access

import (
	"context"

	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
)

type Role string

const (
	RoleGuest          Role = "Guest"
	RoleRegisteredUser Role = "RegisteredUser"
	RoleAdministrator  Role = "Administrator"
)

type Actor struct {
	role     Role
	userID   id.UserID
	verified bool
}

func Guest() Actor {
	return Actor{role: RoleGuest}
}

func RegisteredUser(userID id.UserID, verified bool) Actor {
	return Actor{role: RoleRegisteredUser, userID: userID, verified: verified}
}

func Administrator(userID id.UserID, verified bool) Actor {
	return Actor{role: RoleAdministrator, userID: userID, verified: verified}
}

func (a Actor) Role() Role {
	if a.role == "" {
		return RoleGuest
	}
	return a.role
}

// UserID is the nil ID for guests.
func (a Actor) UserID() id.UserID { return a.userID }

func (a Actor) IsGuest() bool { return a.Role() == RoleGuest }
func (a Actor) IsAdmin() bool { return a.Role() == RoleAdministrator }
func (a Actor) IsVerified() bool {
	return !a.IsGuest() && a.verified
}

// HasRole reports whether the actor holds role. Guests hold no role.
func (a Actor) HasRole(role Role) bool {
	return !a.IsGuest() && a.Role() == role
}

// Owns reports whether the actor created a record stamped with createdBy.
func (a Actor) Owns(createdBy *id.UserID) bool {
	return !a.IsGuest() && createdBy != nil && *createdBy == a.userID
}

// RequireOwnerOrAdmin fails with a permission violation unless the actor is
// an administrator or the record's creator.
func (a Actor) RequireOwnerOrAdmin(createdBy *id.UserID) error {
	if a.IsAdmin() || a.Owns(createdBy) {
		return nil
	}
	return dErrors.PermissionViolation()
}

// Ref returns the actor's id for audit stamping, nil for guests.
func (a Actor) Ref() *id.UserID {
	if a.IsGuest() {
		return nil
	}
	uid := a.userID
	return &uid
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the resolved actor, or Guest when none was set.
func FromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Guest()
}
