package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
)

func TestActorVariants(t *testing.T) {
	uid := id.NewUserID()
	tests := []struct {
		name     string
		actor    Actor
		role     Role
		admin    bool
		verified bool
	}{
		{"guest", Guest(), RoleGuest, false, false},
		{"zero value is a guest", Actor{}, RoleGuest, false, false},
		{"registered", RegisteredUser(uid, true), RoleRegisteredUser, false, true},
		{"unverified registered", RegisteredUser(uid, false), RoleRegisteredUser, false, false},
		{"administrator", Administrator(uid, true), RoleAdministrator, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.role, tt.actor.Role())
			assert.Equal(t, tt.admin, tt.actor.IsAdmin())
			assert.Equal(t, tt.verified, tt.actor.IsVerified())
			assert.False(t, tt.actor.HasRole(RoleGuest))
		})
	}
}

func TestOwnership(t *testing.T) {
	owner := id.NewUserID()
	other := id.NewUserID()

	assert.True(t, RegisteredUser(owner, true).Owns(&owner))
	assert.False(t, RegisteredUser(other, true).Owns(&owner))
	assert.False(t, RegisteredUser(owner, true).Owns(nil))
	assert.False(t, Guest().Owns(&id.UserID{}))

	assert.NoError(t, Administrator(other, true).RequireOwnerOrAdmin(&owner))
	assert.NoError(t, RegisteredUser(owner, true).RequireOwnerOrAdmin(&owner))
	err := RegisteredUser(other, true).RequireOwnerOrAdmin(&owner)
	de, ok := dErrors.As(err)
	assert.True(t, ok)
	assert.Equal(t, dErrors.CodePermissionViolation, de.Code)
}

func TestRef(t *testing.T) {
	assert.Nil(t, Guest().Ref())
	uid := id.NewUserID()
	ref := RegisteredUser(uid, false).Ref()
	if assert.NotNil(t, ref) {
		assert.Equal(t, uid, *ref)
	}
}

func TestContextRoundTrip(t *testing.T) {
	assert.True(t, FromContext(context.Background()).IsGuest())

	admin := Administrator(id.NewUserID(), true)
	assert.Equal(t, admin, FromContext(WithActor(context.Background(), admin)))
}
