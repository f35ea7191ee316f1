package services

import (
	"context"
	"errors"

	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/validation"
	"gorm.io/gorm"
)

// OrderItemInput is the writable part of an order item.
type OrderItemInput struct {
	Order         *uint   `json:"order"`
	Product       *uint   `json:"product"`
	Quantity      *int64  `json:"quantity"`
	Description   *string `json:"description"`
	CustomerEmail *string `json:"customer_email"`
}

// ItemScope pins an item lookup to a store and/or an order. Zero values mean unscoped.
type ItemScope struct {
	StoreID uint
	OrderID uint
}

type ItemFilter struct {
	ItemScope
	Page int
}

type OrderItemService struct {
	db     *gorm.DB
	engine *policy.Engine
	owners *policy.OwnershipResolver
}

func NewOrderItemService(db *gorm.DB, engine *policy.Engine, owners *policy.OwnershipResolver) *OrderItemService {
	return &OrderItemService{db: db, engine: engine, owners: owners}
}

// List returns the items of the orders who may see.
func (s *OrderItemService) List(ctx context.Context, who policy.Identity, f ItemFilter) (*ListResult[models.OrderItem], error) {
	q := s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL")
	q, err := visibleOrders(s.db, q, who)
	if err != nil {
		return nil, err
	}
	if f.StoreID != 0 {
		q = q.Where("orders.store_id = ?", f.StoreID)
	}
	if f.OrderID != 0 {
		q = q.Where("order_items.order_id = ?", f.OrderID)
	}
	return fetchPage[models.OrderItem](ctx, q, f.Page, "order_items.id")
}

func (s *OrderItemService) Get(ctx context.Context, who policy.Identity, id uint, scope ItemScope) (*models.OrderItem, error) {
	if err := policy.RequireEmail(who, "You must provide an email to view order items as a non-authenticated user."); err != nil {
		return nil, err
	}
	if _, err := s.visibleFacts(ctx, who, id, scope); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Create adds a product of the order's store to an unpaid order the caller placed.
func (s *OrderItemService) Create(ctx context.Context, who policy.Identity, scope ItemScope, in OrderItemInput) (*models.OrderItem, error) {
	if err := policy.RequireEmail(who, "You must provide an email to create order items as a non-authenticated user."); err != nil {
		return nil, err
	}
	orderID := scope.OrderID
	if in.Order != nil {
		if orderID != 0 && *in.Order != orderID {
			return nil, apperr.InvalidField("order", "does_not_match")
		}
		orderID = *in.Order
	}
	if orderID == 0 {
		return nil, apperr.InvalidField("order", "required")
	}
	facts, err := s.owners.Order(ctx, orderID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.InvalidField("order", "does_not_exist")
	}
	if err != nil {
		return nil, err
	}
	if scope.StoreID != 0 && facts.StoreID != scope.StoreID {
		return nil, apperr.NotFound("order")
	}
	if !s.engine.Can(ctx, who, gate.ActionView, policy.ResourceOrder, facts) {
		return nil, apperr.InvalidField("order", "does_not_exist")
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionCreate, policy.ResourceOrderItem, facts); err != nil {
		return nil, err
	}
	if err := s.ensureUnpaid(ctx, orderID); err != nil {
		return nil, err
	}

	item := models.OrderItem{OrderID: orderID}
	if in.Product == nil {
		return nil, apperr.InvalidField("product", "required")
	}
	if in.Quantity == nil {
		return nil, apperr.InvalidField("quantity", "required")
	}
	if err := s.apply(ctx, &item, facts.StoreID, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Update edits an item of an unpaid order the caller placed. An item cannot move to another order.
func (s *OrderItemService) Update(ctx context.Context, who policy.Identity, id uint, scope ItemScope, in OrderItemInput) (*models.OrderItem, error) {
	if err := policy.RequireEmail(who, "You must provide an email to update order items as a non-authenticated user."); err != nil {
		return nil, err
	}
	facts, err := s.visibleFacts(ctx, who, id, scope)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionUpdate, policy.ResourceOrderItem, facts); err != nil {
		return nil, err
	}
	if in.Order != nil && *in.Order != facts.OrderID {
		return nil, apperr.InvalidField("order", "read_only")
	}
	if err := s.ensureUnpaid(ctx, facts.OrderID); err != nil {
		return nil, err
	}
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, item, facts.StoreID, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (s *OrderItemService) Delete(ctx context.Context, who policy.Identity, id uint, scope ItemScope) error {
	if err := policy.RequireEmail(who, "You must provide an email to delete order items as a non-authenticated user."); err != nil {
		return err
	}
	facts, err := s.visibleFacts(ctx, who, id, scope)
	if err != nil {
		return err
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionDelete, policy.ResourceOrderItem, facts); err != nil {
		return err
	}
	if err := s.ensureUnpaid(ctx, facts.OrderID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.OrderItem{}, id).Error
}

func (s *OrderItemService) visibleFacts(ctx context.Context, who policy.Identity, id uint, scope ItemScope) (policy.Facts, error) {
	facts, err := s.owners.OrderItem(ctx, id)
	if err != nil {
		return policy.Facts{}, err
	}
	if (scope.StoreID != 0 && facts.StoreID != scope.StoreID) || (scope.OrderID != 0 && facts.OrderID != scope.OrderID) {
		return policy.Facts{}, apperr.NotFound("order_item")
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionView, policy.ResourceOrderItem, facts); err != nil {
		return policy.Facts{}, hideDenied(err, "order_item")
	}
	return facts, nil
}

func (s *OrderItemService) load(ctx context.Context, id uint) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order_item")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ensureUnpaid rejects item changes once the order has been paid for.
func (s *OrderItemService) ensureUnpaid(ctx context.Context, orderID uint) error {
	var order models.Order
	if err := s.db.WithContext(ctx).Select("id", "paid").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("order")
		}
		return err
	}
	if order.Paid {
		return apperr.Conflict("order_already_paid", "Items of a paid order cannot be changed.")
	}
	return nil
}

// apply copies in onto item and validates the result against the order's store.
func (s *OrderItemService) apply(ctx context.Context, item *models.OrderItem, storeID uint, in OrderItemInput) error {
	v := make(validation.Violations)
	if in.Quantity != nil {
		validation.MinInt("quantity", *in.Quantity, 1, v)
		if v.Empty() {
			item.Quantity = uint(*in.Quantity)
		}
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Product != nil && *in.Product != item.ProductID {
		var p models.Product
		err := s.db.WithContext(ctx).First(&p, *in.Product).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			v.Add("product", "does_not_exist")
		case err != nil:
			return err
		case p.StoreID != storeID:
			v.Add("product", "wrong_store")
		case !p.Available:
			v.Add("product", "not_available")
		default:
			item.ProductID = p.ID
		}
	}
	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}
