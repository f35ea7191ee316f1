package policy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/go-marketplace/auth"
	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestResolveAnonymous(t *testing.T) {
	r := policy.NewIdentityResolver(setupTestDB(t), time.Minute)
	id, err := r.Resolve(context.Background(), "  guest@example.com ")
	require.NoError(t, err)
	assert.Equal(t, policy.KindAnonymous, id.Kind)
	assert.Equal(t, "guest@example.com", id.Email)
	assert.False(t, id.Authenticated())
}

func TestResolveKinds(t *testing.T) {
	db := setupTestDB(t)
	buyer := models.User{Email: "buyer@example.com", Password: "x"}
	seller := models.User{Email: "seller@example.com", Password: "x", IsSeller: true}
	root := models.User{Email: "root@example.com", Password: "x", IsSeller: true, IsSuperuser: true, IsStaff: true}
	require.NoError(t, db.Create(&buyer).Error)
	require.NoError(t, db.Create(&seller).Error)
	require.NoError(t, db.Create(&root).Error)

	r := policy.NewIdentityResolver(db, time.Minute)
	for _, tc := range []struct {
		user models.User
		kind policy.Kind
	}{
		{buyer, policy.KindCustomer},
		{seller, policy.KindSeller},
		{root, policy.KindSuperuser},
	} {
		ctx := auth.WithUserID(context.Background(), tc.user.ID)
		id, err := r.Resolve(ctx, "ignored@example.com")
		require.NoError(t, err)
		assert.Equal(t, tc.kind, id.Kind, tc.user.Email)
		assert.Equal(t, tc.user.Email, id.Email)
	}

	ctx := auth.WithUserID(context.Background(), root.ID)
	id, _ := r.Resolve(ctx, "")
	assert.True(t, id.IsSeller, "superuser keeps raw seller flag")
}

func TestResolveDeletedUser(t *testing.T) {
	r := policy.NewIdentityResolver(setupTestDB(t), time.Minute)
	_, err := r.Resolve(auth.WithUserID(context.Background(), 404), "")
	require.ErrorIs(t, err, gate.ErrUnauthenticated)
}

func TestResolveCacheInvalidate(t *testing.T) {
	db := setupTestDB(t)
	u := models.User{Email: "late@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	r := policy.NewIdentityResolver(db, time.Hour)
	ctx := auth.WithUserID(context.Background(), u.ID)

	id, _ := r.Resolve(ctx, "")
	assert.Equal(t, policy.KindCustomer, id.Kind)

	require.NoError(t, db.Model(&u).Update("is_seller", true).Error)
	id, _ = r.Resolve(ctx, "")
	assert.Equal(t, policy.KindCustomer, id.Kind, "cached until invalidated")

	r.Invalidate(u.ID)
	id, _ = r.Resolve(ctx, "")
	assert.Equal(t, policy.KindSeller, id.Kind)
}

func TestRequireEmail(t *testing.T) {
	require.NoError(t, policy.RequireEmail(policy.Identity{Kind: policy.KindCustomer, UserID: 1}, "x"))
	require.NoError(t, policy.RequireEmail(policy.Anonymous("guest@example.com"), "x"))
	require.ErrorIs(t, policy.RequireEmail(policy.Anonymous(""), "x"), apperr.ErrMissingIdentity)
	require.ErrorIs(t, policy.RequireEmail(policy.Anonymous("nope"), "x"), apperr.ErrValidation)
}

func TestRequestEmail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders?customer_email=q@example.com", nil)
	req.Header.Set("X-Customer-Email", "h@example.com")
	assert.Equal(t, "b@example.com", policy.RequestEmail(req, "b@example.com"))
	assert.Equal(t, "q@example.com", policy.RequestEmail(req, ""))

	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-Customer-Email", "h@example.com")
	assert.Equal(t, "h@example.com", policy.RequestEmail(req, " "))
}
