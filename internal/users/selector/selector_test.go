package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promisetracker/internal/access"
	"promisetracker/internal/storage/memory"
	"promisetracker/internal/testfixtures"
	"promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
)

func requireCode(t *testing.T, err error, code dErrors.Code) {
	t.Helper()
	de, ok := dErrors.As(err)
	require.True(t, ok, "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestByID(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	jane := testfixtures.User()
	banned := testfixtures.User(testfixtures.Banned())
	deleted := testfixtures.User(testfixtures.Deleted())
	for _, u := range []*models.User{jane, banned, deleted} {
		require.NoError(t, store.CreateUser(ctx, u))
	}
	sel := New(store)
	admin := access.Administrator(id.NewUserID(), true)

	got, err := sel.ByID(ctx, access.RegisteredUser(jane.ID, true), jane.ID)
	require.NoError(t, err)
	assert.Equal(t, jane.Email, got.Email)

	_, err = sel.ByID(ctx, access.RegisteredUser(banned.ID, true), jane.ID)
	requireCode(t, err, dErrors.CodePermissionViolation)

	_, err = sel.ByID(ctx, access.RegisteredUser(banned.ID, true), banned.ID)
	requireCode(t, err, dErrors.CodePermissionViolation)

	_, err = sel.ByID(ctx, access.RegisteredUser(deleted.ID, true), deleted.ID)
	requireCode(t, err, dErrors.CodeNotFound)

	got, err = sel.ByID(ctx, admin, deleted.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	_, err = sel.ByID(ctx, admin, id.NewUserID())
	requireCode(t, err, dErrors.CodeNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	first := testfixtures.User(testfixtures.AsAdmin())
	second := testfixtures.User(testfixtures.Unverified())
	third := testfixtures.User(testfixtures.WithEmail("needle@example.com"))
	for _, u := range []*models.User{first, second, third} {
		require.NoError(t, store.CreateUser(ctx, u))
	}
	sel := New(store)
	admin := access.Administrator(first.ID, true)

	_, err := sel.List(ctx, access.RegisteredUser(second.ID, false), models.UserFilter{})
	requireCode(t, err, dErrors.CodePermissionViolation)

	all, err := sel.List(ctx, admin, models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID, "newest first")

	no := false
	unverified, err := sel.List(ctx, admin, models.UserFilter{IsVerified: &no})
	require.NoError(t, err)
	require.Len(t, unverified, 1)
	assert.Equal(t, second.ID, unverified[0].ID)

	found, err := sel.List(ctx, admin, models.UserFilter{Search: "NEEDLE"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, third.ID, found[0].ID)
}
