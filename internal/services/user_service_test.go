package services

import (
	"context"
	"testing"

	"PonyExpress/server/internal/models"
	"PonyExpress/server/internal/storage/memory"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewUserService(store, clockwork.NewFakeClock()), store
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	us, _ := newUserService(t)

	user, err := us.Register(ctx, "ripley", "ripley@example.com", "nostromo")
	require.NoError(t, err)
	assert.Equal(t, "ripley", user.Username)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "nostromo", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestRegister_Duplicates(t *testing.T) {
	ctx := context.Background()
	us, _ := newUserService(t)

	_, err := us.Register(ctx, "ripley", "ripley@example.com", "nostromo")
	require.NoError(t, err)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := us.Register(ctx, "ripley", "other@example.com", "pw")
		var duplicate *models.DuplicateEntityError
		require.ErrorAs(t, err, &duplicate)
		assert.Equal(t, "User", duplicate.EntityName)
		assert.Equal(t, "ripley", duplicate.EntityID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := us.Register(ctx, "other", "ripley@example.com", "pw")
		var duplicate *models.DuplicateEntityError
		require.ErrorAs(t, err, &duplicate)
		assert.Equal(t, "ripley@example.com", duplicate.EntityID)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	us, _ := newUserService(t)

	registered, err := us.Register(ctx, "ripley", "ripley@example.com", "nostromo")
	require.NoError(t, err)

	user, err := us.Authenticate(ctx, "ripley@example.com", "nostromo")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = us.Authenticate(ctx, "ripley@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = us.Authenticate(ctx, "nobody@example.com", "nostromo")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestListUsers_SortedByID(t *testing.T) {
	ctx := context.Background()
	us, _ := newUserService(t)

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		_, err := us.Register(ctx, name, name+"@example.com", "pw")
		require.NoError(t, err)
	}

	users, err := us.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.True(t, users[0].ID < users[1].ID && users[1].ID < users[2].ID)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	us, _ := newUserService(t)

	user, err := us.Register(ctx, "ripley", "ripley@example.com", "pw")
	require.NoError(t, err)

	username := "ellen"
	updated, err := us.UpdateUser(ctx, user.ID, models.UserUpdate{Username: &username})
	require.NoError(t, err)
	assert.Equal(t, "ellen", updated.Username)
	assert.Equal(t, "ripley@example.com", updated.Email)

	got, err := us.GetUserById(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ellen", got.Username)
}

func TestGetUserChats(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := clockwork.NewFakeClock()
	us := NewUserService(store, clock)
	cs := NewChatService(store, clock)

	owner, err := us.Register(ctx, "owner", "owner@example.com", "pw")
	require.NoError(t, err)
	member, err := us.Register(ctx, "member", "member@example.com", "pw")
	require.NoError(t, err)

	skynet, err := cs.CreateChat(ctx, "skynet", owner)
	require.NoError(t, err)
	terminators, err := cs.CreateChat(ctx, "terminators", owner)
	require.NoError(t, err)
	_, err = cs.CreateChat(ctx, "unrelated", owner)
	require.NoError(t, err)
	store.SeedMember(skynet.ID, member.ID)
	store.SeedMember(terminators.ID, member.ID)

	chats, err := us.GetUserChats(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "skynet", chats[0].Name)
	assert.Equal(t, "terminators", chats[1].Name)

	t.Run("unknown user", func(t *testing.T) {
		_, err := us.GetUserChats(ctx, 999)
		var notFound *models.EntityNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "User", notFound.EntityName)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	us, _ := newUserService(t)

	user, err := us.Register(ctx, "ripley", "ripley@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, us.DeleteUser(ctx, user.ID))

	_, err = us.GetUserById(ctx, user.ID)
	var notFound *models.EntityNotFoundError
	assert.ErrorAs(t, err, &notFound)

	err = us.DeleteUser(ctx, user.ID)
	assert.ErrorAs(t, err, &notFound)
}
