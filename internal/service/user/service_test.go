package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/filmoteka/internal/catalog"
	"github.com/avolkov/filmoteka/internal/errs"
	"github.com/avolkov/filmoteka/internal/service/refs"
	"github.com/avolkov/filmoteka/internal/service/user"
	"github.com/avolkov/filmoteka/internal/storage/memory"
)

func setup(t *testing.T) user.Service {
	t.Helper()
	store := memory.New()
	store.SeedReferenceData()
	v := refs.New(store, store, store, store)
	return user.New(store, store, v)
}

func validUser(login string) catalog.User {
	return catalog.User{
		Email:    login + "@example.com",
		Login:    login,
		Name:     "",
		Birthday: time.Date(1988, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func mustCreate(t *testing.T, svc user.Service, login string) catalog.User {
	t.Helper()
	u, err := svc.Create(context.Background(), validUser(login))
	require.NoError(t, err)
	return u
}

func userIDs(us []catalog.User) []int64 {
	ids := make([]int64, 0, len(us))
	for _, u := range us {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestValidate(t *testing.T) {
	svc := setup(t)

	cases := []struct {
		name   string
		mutate func(*catalog.User)
	}{
		{"blank email", func(u *catalog.User) { u.Email = "  " }},
		{"email without at", func(u *catalog.User) { u.Email = "not-an-address" }},
		{"malformed email", func(u *catalog.User) { u.Email = "a@@b" }},
		{"blank login", func(u *catalog.User) { u.Login = "" }},
		{"login with space", func(u *catalog.User) { u.Login = "bad login" }},
		{"login with tab", func(u *catalog.User) { u.Login = "bad\tlogin" }},
		{"future birthday", func(u *catalog.User) { u.Birthday = time.Now().Add(48 * time.Hour) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := validUser("ok")
			tc.mutate(&u)
			assert.ErrorIs(t, svc.Validate(u), errs.ErrInvalid)
		})
	}

	assert.NoError(t, svc.Validate(validUser("ok")))
}

func TestCreate_BlankNameFallsBackToLogin(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validUser("grace"))
	require.NoError(t, err)
	require.Positive(t, created.ID)
	assert.Equal(t, "grace", created.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace", got.Name)

	u := validUser("alan")
	u.Name = "Alan T."
	created, err = svc.Create(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "Alan T.", created.Name)
}

func TestUpdate(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	created := mustCreate(t, svc, "grace")

	upd := created
	upd.Email = "grace@navy.mil"
	upd.Name = ""
	got, err := svc.Update(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, "grace@navy.mil", got.Email)
	assert.Equal(t, "grace", got.Name, "blank name falls back to login on update too")

	missing := validUser("ghost")
	missing.ID = 9999
	_, err = svc.Update(ctx, missing)
	require.ErrorIs(t, err, errs.ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "failed update must not create a row")
}

func TestFriendship_IsDirected(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "a")
	b := mustCreate(t, svc, "b")

	require.NoError(t, svc.AddFriend(ctx, a.ID, b.ID))

	got, err := svc.Friends(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, userIDs(got))

	// no reverse edge
	got, err = svc.Friends(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, svc.AddFriend(ctx, b.ID, a.ID))
	got, err = svc.Friends(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, userIDs(got))

	// removing one direction keeps the other
	require.NoError(t, svc.RemoveFriend(ctx, a.ID, b.ID))
	got, err = svc.Friends(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = svc.Friends(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, userIDs(got))
}

func TestAddFriend_Idempotent(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "a")
	b := mustCreate(t, svc, "b")

	require.NoError(t, svc.AddFriend(ctx, a.ID, b.ID))
	require.NoError(t, svc.AddFriend(ctx, a.ID, b.ID))

	got, err := svc.Friends(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, userIDs(got))

	// removing an absent edge is a no-op
	require.NoError(t, svc.RemoveFriend(ctx, b.ID, a.ID))
}

func TestFriendship_NotFound(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "a")

	assert.ErrorIs(t, svc.AddFriend(ctx, a.ID, 9999), errs.ErrNotFound)
	assert.ErrorIs(t, svc.AddFriend(ctx, 9999, a.ID), errs.ErrNotFound)
	assert.ErrorIs(t, svc.RemoveFriend(ctx, a.ID, 9999), errs.ErrNotFound)

	_, err := svc.Friends(ctx, 9999)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.CommonFriends(ctx, a.ID, 9999)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCommonFriends(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "a")
	b := mustCreate(t, svc, "b")
	c := mustCreate(t, svc, "c")
	d := mustCreate(t, svc, "d")

	require.NoError(t, svc.AddFriend(ctx, a.ID, c.ID))
	require.NoError(t, svc.AddFriend(ctx, a.ID, d.ID))
	require.NoError(t, svc.AddFriend(ctx, b.ID, c.ID))

	got, err := svc.CommonFriends(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID}, userIDs(got))

	got, err = svc.CommonFriends(ctx, c.ID, d.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
