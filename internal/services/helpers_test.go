package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var ctx = context.Background()

type fixture struct {
	db         *gorm.DB
	engine     *policy.Engine
	owners     *policy.OwnershipResolver
	identities *policy.IdentityResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return &fixture{
		db:         db,
		engine:     policy.NewEngine(zap.NewNop()),
		owners:     policy.NewOwnershipResolver(db),
		identities: policy.NewIdentityResolver(db, time.Minute),
	}
}

func (f *fixture) user(t *testing.T, email string, seller bool) policy.Identity {
	t.Helper()
	u := models.User{Email: email, Password: "x", IsSeller: seller}
	require.NoError(t, f.db.Create(&u).Error)
	return policy.FromUser(&u)
}

func (f *fixture) superuser(t *testing.T) policy.Identity {
	t.Helper()
	u := models.User{Email: "root@example.com", Password: "x", IsStaff: true, IsSuperuser: true}
	require.NoError(t, f.db.Create(&u).Error)
	return policy.FromUser(&u)
}

func (f *fixture) store(t *testing.T, owner policy.Identity, name string) models.Store {
	t.Helper()
	s := models.Store{Name: name, Email: "shop@example.com", OwnerID: owner.UserID}
	require.NoError(t, f.db.Create(&s).Error)
	return s
}

func (f *fixture) product(t *testing.T, storeID uint, name, price string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Available: true, StoreID: storeID}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

// order inserts an order for who: a registered customer or a guest e-mail.
func (f *fixture) order(t *testing.T, storeID uint, who policy.Identity) models.Order {
	t.Helper()
	o := models.Order{StoreID: storeID, Status: models.StatusReceived}
	o.CustomerID, o.CustomerEmail = deriveCustomer(who)
	require.NoError(t, f.db.Create(&o).Error)
	return o
}

func (f *fixture) item(t *testing.T, orderID, productID uint, qty uint) models.OrderItem {
	t.Helper()
	it := models.OrderItem{OrderID: orderID, ProductID: productID, Quantity: qty}
	require.NoError(t, f.db.Create(&it).Error)
	return it
}

func (f *fixture) reload(t *testing.T, id uint) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, f.db.First(&o, id).Error)
	return o
}

func requireDenied(t *testing.T, err error, reason string) {
	t.Helper()
	var d *gate.Denial
	require.ErrorAs(t, err, &d)
	assert.False(t, d.Challenge, "expected forbidden, got challenge")
	assert.Equal(t, reason, d.Reason)
}

func requireChallenged(t *testing.T, err error) {
	t.Helper()
	require.ErrorIs(t, err, gate.ErrUnauthenticated)
}

func ptr[T any](v T) *T { return &v }
