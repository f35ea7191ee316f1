package policy_test

import (
	"context"
	"testing"

	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnershipChain(t *testing.T) {
	db := setupTestDB(t)
	owner := models.User{Email: "owner@example.com", Password: "x", IsSeller: true}
	buyer := models.User{Email: "buyer@example.com", Password: "x"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&buyer).Error)
	store := models.Store{Name: "S", Email: "s@example.com", OwnerID: owner.ID}
	require.NoError(t, db.Create(&store).Error)
	product := models.Product{Name: "P", Price: decimal.NewFromInt(5), Available: true, StoreID: store.ID}
	require.NoError(t, db.Create(&product).Error)
	order := models.Order{StoreID: store.ID, CustomerID: &buyer.ID, Status: models.StatusReceived}
	guestOrder := models.Order{StoreID: store.ID, CustomerEmail: "guest@example.com", Status: models.StatusReceived}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Create(&guestOrder).Error)
	item := models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, db.Create(&item).Error)

	r := policy.NewOwnershipResolver(db)
	ctx := context.Background()

	f, err := r.Store(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, f.StoreOwnerID)

	f, err = r.Product(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, store.ID, f.StoreID)
	assert.Equal(t, owner.ID, f.StoreOwnerID)

	f, err = r.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, f.CustomerID)
	assert.False(t, f.GuestOrder())

	f, err = r.Order(ctx, guestOrder.ID)
	require.NoError(t, err)
	assert.True(t, f.GuestOrder())
	assert.Equal(t, "guest@example.com", f.CustomerEmail)

	f, err = r.OrderItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, f.ItemID)
	assert.Equal(t, order.ID, f.OrderID)
	assert.Equal(t, owner.ID, f.StoreOwnerID)
	assert.Equal(t, buyer.ID, f.CustomerID)
}

func TestOwnershipNotFound(t *testing.T) {
	db := setupTestDB(t)
	r := policy.NewOwnershipResolver(db)
	ctx := context.Background()

	_, err := r.Store(ctx, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = r.Product(ctx, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = r.Order(ctx, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = r.OrderItem(ctx, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOwnershipBrokenParent(t *testing.T) {
	db := setupTestDB(t)
	owner := models.User{Email: "owner@example.com", Password: "x", IsSeller: true}
	require.NoError(t, db.Create(&owner).Error)
	store := models.Store{Name: "S", Email: "s@example.com", OwnerID: owner.ID}
	require.NoError(t, db.Create(&store).Error)
	product := models.Product{Name: "P", Price: decimal.NewFromInt(1), StoreID: store.ID}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Delete(&store).Error) // soft delete

	_, err := policy.NewOwnershipResolver(db).Product(context.Background(), product.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
