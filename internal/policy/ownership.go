package policy

import (
	"context"

	"github.com/diewo77/go-marketplace/internal/apperr"
	"gorm.io/gorm"
)

// Facts are the ownership-chain attributes a policy decides on. Lookups fill
// the chain of an existing entity; services add the Declared*/Target* values
// carried by a create or update payload.
type Facts struct {
	StoreID       uint
	StoreOwnerID  uint
	ProductID     uint
	OrderID       uint
	CustomerID    uint // 0 for guest orders
	CustomerEmail string
	ItemID        uint
	UserID        uint // target of user actions

	DeclaredOwnerID    uint
	DeclaredCustomerID uint
	TargetStoreOwnerID uint
}

// GuestOrder reports whether the order in the chain has no registered customer.
func (f Facts) GuestOrder() bool { return f.CustomerID == 0 }

// OwnershipResolver walks Store -> Product and Store -> Order -> OrderItem with
// explicit queries. A missing entity, or a parent link that no longer resolves,
// is reported as not found.
type OwnershipResolver struct {
	db *gorm.DB
}

func NewOwnershipResolver(db *gorm.DB) *OwnershipResolver {
	return &OwnershipResolver{db: db}
}

type chainRow struct {
	StoreID       uint
	StoreOwnerID  *uint
	ProductID     uint
	OrderID       uint
	CustomerID    *uint
	CustomerEmail *string
	ItemID        uint
}

func (r chainRow) facts() Facts {
	f := Facts{StoreID: r.StoreID, ProductID: r.ProductID, OrderID: r.OrderID, ItemID: r.ItemID}
	if r.StoreOwnerID != nil {
		f.StoreOwnerID = *r.StoreOwnerID
	}
	if r.CustomerID != nil {
		f.CustomerID = *r.CustomerID
	}
	if r.CustomerEmail != nil {
		f.CustomerEmail = *r.CustomerEmail
	}
	return f
}

func (o *OwnershipResolver) scan(ctx context.Context, entity string, q *gorm.DB) (Facts, error) {
	var row chainRow
	res := q.WithContext(ctx).Scan(&row)
	if res.Error != nil {
		return Facts{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Facts{}, apperr.NotFound(entity)
	}
	if row.StoreOwnerID == nil {
		// the entity exists but its store is gone
		return Facts{}, apperr.NotFound("store")
	}
	return row.facts(), nil
}

// Store returns the facts of a store.
func (o *OwnershipResolver) Store(ctx context.Context, id uint) (Facts, error) {
	q := o.db.Table("stores").
		Select("stores.id AS store_id, stores.owner_id AS store_owner_id").
		Where("stores.id = ? AND stores.deleted_at IS NULL", id)
	return o.scan(ctx, "store", q)
}

// Product returns the facts of a product and its store.
func (o *OwnershipResolver) Product(ctx context.Context, id uint) (Facts, error) {
	q := o.db.Table("products").
		Select("products.id AS product_id, products.store_id AS store_id, stores.owner_id AS store_owner_id").
		Joins("LEFT JOIN stores ON stores.id = products.store_id AND stores.deleted_at IS NULL").
		Where("products.id = ? AND products.deleted_at IS NULL", id)
	return o.scan(ctx, "product", q)
}

// Order returns the facts of an order and its store.
func (o *OwnershipResolver) Order(ctx context.Context, id uint) (Facts, error) {
	q := o.db.Table("orders").
		Select("orders.id AS order_id, orders.store_id AS store_id, stores.owner_id AS store_owner_id, " +
			"orders.customer_id AS customer_id, orders.customer_email AS customer_email").
		Joins("LEFT JOIN stores ON stores.id = orders.store_id AND stores.deleted_at IS NULL").
		Where("orders.id = ? AND orders.deleted_at IS NULL", id)
	return o.scan(ctx, "order", q)
}

// OrderItem returns the facts of an item, its order and the order's store.
func (o *OwnershipResolver) OrderItem(ctx context.Context, id uint) (Facts, error) {
	var probe struct {
		ID      uint
		OrderID *uint
	}
	res := o.db.WithContext(ctx).Table("order_items").
		Select("order_items.id AS id, orders.id AS order_id").
		Joins("LEFT JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Where("order_items.id = ?", id).
		Scan(&probe)
	if res.Error != nil {
		return Facts{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Facts{}, apperr.NotFound("order_item")
	}
	if probe.OrderID == nil {
		return Facts{}, apperr.NotFound("order")
	}
	f, err := o.Order(ctx, *probe.OrderID)
	if err != nil {
		return Facts{}, err
	}
	f.ItemID = probe.ID
	return f, nil
}
