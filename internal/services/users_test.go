package services

import (
	"testing"

	"github.com/diewo77/go-marketplace/auth"
	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.engine, f.identities)

	u, err := svc.Signup(ctx, UserInput{Email: ptr("new@example.com"), Username: ptr("newbie"), Password: ptr("s3cret-pass")})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", u.Password)
	assert.False(t, u.IsSeller)

	got, err := svc.Authenticate(ctx, "new@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "new@example.com", "wrong-pass")
	require.ErrorIs(t, err, gate.ErrUnauthenticated)
	_, err = svc.Authenticate(ctx, "ghost@example.com", "s3cret-pass")
	require.ErrorIs(t, err, gate.ErrUnauthenticated)
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.engine, f.identities)

	_, err := svc.Signup(ctx, UserInput{Email: ptr("bad"), Password: ptr("short")})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "invalid_email", ae.Fields["email"])
	assert.Equal(t, "too_short", ae.Fields["password"])

	_, err = svc.Signup(ctx, UserInput{Email: ptr("ok@example.com")})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "required", ae.Fields["password"])
}

func TestSignupDuplicates(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.engine, f.identities)
	_, err := svc.Signup(ctx, UserInput{Email: ptr("a@example.com"), Username: ptr("alice"), Password: ptr("password1")})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, UserInput{Email: ptr("a@example.com"), Password: ptr("password1")})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "email_taken", ae.Code)
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Signup(ctx, UserInput{Email: ptr("b@example.com"), Username: ptr("alice"), Password: ptr("password1")})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "username_taken", ae.Code)
}

func TestUserProfileAccess(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.engine, f.identities)
	alice := f.user(t, "alice@example.com", false)
	bob := f.user(t, "bob@example.com", false)
	root := f.superuser(t)

	_, err := svc.Get(ctx, alice, alice.UserID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, root, alice.UserID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, bob, alice.UserID)
	requireDenied(t, err, "You do not have permission to perform this action.")
	_, err = svc.Get(ctx, policy.Anonymous(""), alice.UserID)
	requireChallenged(t, err)
	_, err = svc.Get(ctx, root, 999)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserUpdateInvalidatesIdentity(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.engine, f.identities)
	alice := f.user(t, "alice@example.com", false)
	authed := auth.WithUserID(ctx, alice.UserID)

	before, err := f.identities.Resolve(authed, "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", before.Email)

	updated, err := svc.Update(ctx, alice, alice.UserID, UserInput{Email: ptr("alice2@example.com"), PhoneNumber: ptr("5550001")})
	require.NoError(t, err)
	assert.Equal(t, "5550001", updated.PhoneNumber)

	after, err := f.identities.Resolve(authed, "")
	require.NoError(t, err)
	assert.Equal(t, "alice2@example.com", after.Email)
}

func TestCreateSuperuser(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.engine, f.identities)

	u, err := svc.CreateSuperuser(ctx, "admin@example.com", "admin-pass")
	require.NoError(t, err)
	var stored models.User
	require.NoError(t, f.db.First(&stored, u.ID).Error)
	assert.True(t, stored.IsSuperuser)
	assert.True(t, stored.IsStaff)

	_, err = svc.CreateSuperuser(ctx, "admin@example.com", "admin-pass")
	require.ErrorIs(t, err, apperr.ErrConflict)
}
