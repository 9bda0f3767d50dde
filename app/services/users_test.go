package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/auth"
	"github.com/shashiranjanraj/stockbook/pkg/testkit"
)

func newUsers(t *testing.T) (*services.Users, *auth.Tokens) {
	t.Helper()
	tokens := auth.NewTokens("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	return services.NewUsers(testkit.NewDB(t), tokens), tokens
}

func TestUsers_SignupAndLogin(t *testing.T) {
	ctx := context.Background()
	users, tokens := newUsers(t)

	id, err := users.Signup(ctx, services.SignupInput{Username: "asha", Password: "s3cret!", Firstname: "Asha"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = users.Signup(ctx, services.SignupInput{Username: "asha", Password: "another1", Firstname: "A"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = users.Login(ctx, services.LoginInput{Username: "asha", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = users.Login(ctx, services.LoginInput{Username: "nobody", Password: "s3cret!"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	session, err := users.Login(ctx, services.LoginInput{Username: "asha", Password: "s3cret!"})
	require.NoError(t, err)
	claims, err := tokens.VerifyAccess(session.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ID)

	me, err := users.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "asha", me.Username)
	assert.False(t, me.Admin)
}

func TestUsers_SignupValidation(t *testing.T) {
	users, _ := newUsers(t)

	_, err := users.Signup(context.Background(), services.SignupInput{Username: "a", Password: "x"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "username")
	assert.Contains(t, appErr.Fields, "password")
}

func TestUsers_RefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	users, tokens := newUsers(t)

	id, err := users.Signup(ctx, services.SignupInput{Username: "bala", Password: "s3cret!", Firstname: "Bala"})
	require.NoError(t, err)
	session, err := users.Login(ctx, services.LoginInput{Username: "bala", Password: "s3cret!"})
	require.NoError(t, err)

	access, err := users.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	_, err = tokens.VerifyAccess(access)
	require.NoError(t, err)

	_, err = users.Refresh(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = users.Refresh(ctx, session.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized, "access token must not refresh")

	// A token that verifies but is no longer stored is refused.
	stale, err := tokens.Refresh(id, "bala")
	require.NoError(t, err)
	if stale != session.RefreshToken {
		_, err = users.Refresh(ctx, stale)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	}

	require.NoError(t, users.Logout(ctx, id))
	_, err = users.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestUsers_IdentityAndAdmin(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)

	created, err := users.EnsureAdmin(ctx, "root", "rootpass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = users.EnsureAdmin(ctx, "root", "rootpass")
	require.NoError(t, err)
	assert.False(t, created)

	id, err := users.Signup(ctx, services.SignupInput{Username: "clerk", Password: "clerkpass"})
	require.NoError(t, err)
	ident, err := users.LoadIdentity(ctx, id)
	require.NoError(t, err)
	assert.False(t, ident.Admin)

	_, err = users.EnsureAdmin(ctx, "clerk", "ignored")
	require.NoError(t, err)
	ident, err = users.LoadIdentity(ctx, id)
	require.NoError(t, err)
	assert.True(t, ident.Admin)

	_, err = users.LoadIdentity(ctx, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	page, err := users.List(ctx, pageOf(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalRecords)
}
