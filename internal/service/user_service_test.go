package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarsmart/api/internal/models"
)

func TestUserListJoinsLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.auth.Register(ctx, alice())
	require.NoError(t, err)
	b, err := f.auth.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "pw", Gender: "male"})
	require.NoError(t, err)

	creds := LoginInput{Email: a.Email, Password: "sunshine42"}
	first, err := f.auth.Login(ctx, creds)
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, creds)
	require.NoError(t, err)

	list, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, a.ID, list[0].User.ID)
	assert.Equal(t, int64(2), list[0].TotalLogins)
	require.NotNil(t, list[0].LastLogin)
	assert.True(t, first.Event.LoginTime.Equal(*list[0].LastLogin))

	assert.Equal(t, b.ID, list[1].User.ID)
	assert.Equal(t, int64(0), list[1].TotalLogins)
	assert.Nil(t, list[1].LastLogin)
}

func TestUserGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.auth.Register(ctx, alice())
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, LoginInput{Email: a.Email, Password: "sunshine42"})
	require.NoError(t, err)

	overview, err := f.users.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.TotalLogins)
	assert.Nil(t, overview.LastLogin)

	_, err = f.users.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserLoginsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.auth.Register(ctx, alice())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.auth.Login(ctx, LoginInput{Email: a.Email, Password: "sunshine42"})
		require.NoError(t, err)
	}

	events, err := f.users.Logins(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].LoginTime.After(events[1].LoginTime))
	assert.True(t, events[1].LoginTime.After(events[2].LoginTime))

	limited, err := f.users.Logins(ctx, a.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = f.users.Logins(ctx, 404, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.auth.Register(ctx, alice())
	require.NoError(t, err)

	require.NoError(t, f.users.SetRole(ctx, a.Email, models.UserRoleAdmin))
	stored, err := f.store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, stored.Role)

	assert.ErrorIs(t, f.users.SetRole(ctx, a.Email, "root"), ErrValidation)
	assert.ErrorIs(t, f.users.SetRole(ctx, "ghost@example.com", models.UserRoleAdmin), ErrUserNotFound)
}
