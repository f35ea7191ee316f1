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

// OrderInput is the writable part of an order. Paid is accepted and ignored:
// only payment reconciliation sets it.
type OrderInput struct {
	Store         *uint               `json:"store"`
	Customer      *uint               `json:"customer"`
	CustomerEmail *string             `json:"customer_email"`
	Description   *string             `json:"description"`
	Status        *models.OrderStatus `json:"status"`
	Paid          *bool               `json:"paid"`
}

// OrderFilter narrows an order listing. Zero values mean no filter.
type OrderFilter struct {
	StoreID uint
	Page    int
}

type OrderService struct {
	db        *gorm.DB
	engine    *policy.Engine
	owners    *policy.OwnershipResolver
	lifecycle *Lifecycle
}

func NewOrderService(db *gorm.DB, engine *policy.Engine, owners *policy.OwnershipResolver, lifecycle *Lifecycle) *OrderService {
	return &OrderService{db: db, engine: engine, owners: owners, lifecycle: lifecycle}
}

// List returns the orders who may see: every order for a superuser, the orders
// of their stores plus their own purchases for a seller, their own orders for a
// customer and the guest orders placed with the supplied e-mail for anonymous callers.
func (s *OrderService) List(ctx context.Context, who policy.Identity, f OrderFilter) (*ListResult[models.Order], error) {
	q, err := visibleOrders(s.db, s.db.Model(&models.Order{}), who)
	if err != nil {
		return nil, err
	}
	if f.StoreID != 0 {
		q = q.Where("orders.store_id = ?", f.StoreID)
	}
	return fetchPage[models.Order](ctx, q, f.Page, "orders.id")
}

// Get returns an order with its items. Orders the caller may not see are reported as missing.
func (s *OrderService) Get(ctx context.Context, who policy.Identity, id, storeID uint) (*models.Order, error) {
	if err := policy.RequireEmail(who, "You must provide an email to view orders as a non-authenticated user."); err != nil {
		return nil, err
	}
	if _, err := s.visibleFacts(ctx, who, id, storeID); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Create places an order in a store. The customer is always derived from the
// caller; naming somebody else is denied.
func (s *OrderService) Create(ctx context.Context, who policy.Identity, storeID uint, in OrderInput) (*models.Order, error) {
	if err := policy.RequireEmail(who, "You must provide an email to create an order as a non-authenticated user."); err != nil {
		return nil, err
	}
	if in.Store != nil {
		if storeID != 0 && *in.Store != storeID {
			return nil, apperr.InvalidField("store", "does_not_match")
		}
		storeID = *in.Store
	}
	if storeID == 0 {
		return nil, apperr.InvalidField("store", "required")
	}
	facts, err := s.owners.Store(ctx, storeID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.InvalidField("store", "does_not_exist")
	}
	if err != nil {
		return nil, err
	}
	facts.DeclaredCustomerID = deref(in.Customer)
	if err := s.engine.Authorize(ctx, who, gate.ActionCreate, policy.ResourceOrder, facts); err != nil {
		return nil, err
	}
	if in.Status != nil && *in.Status != models.StatusReceived {
		return nil, apperr.InvalidField("status", "must_be_received")
	}

	order := models.Order{StoreID: storeID, Status: models.StatusReceived}
	order.CustomerID, order.CustomerEmail = deriveCustomer(who)
	if in.Description != nil {
		order.Description = *in.Description
	}
	v := make(validation.Violations)
	validation.MaxLen("customer_email", order.CustomerEmail, 254, v)
	if !v.Empty() {
		return nil, apperr.Invalid(v)
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Update edits the description and status of an order the caller placed.
// Status changes go through the lifecycle; Paid can never be entered here.
func (s *OrderService) Update(ctx context.Context, who policy.Identity, id, storeID uint, in OrderInput) (*models.Order, error) {
	if err := policy.RequireEmail(who, "You must provide an email to update an order as a non-authenticated user."); err != nil {
		return nil, err
	}
	facts, err := s.visibleFacts(ctx, who, id, storeID)
	if err != nil {
		return nil, err
	}
	facts.DeclaredCustomerID = deref(in.Customer)
	if err := s.engine.Authorize(ctx, who, gate.ActionUpdate, policy.ResourceOrder, facts); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Store != nil && *in.Store != order.StoreID {
		return nil, apperr.InvalidField("store", "read_only")
	}
	if in.Description != nil {
		order.Description = *in.Description
	}
	from := order.Status
	if in.Status != nil {
		if err := s.lifecycle.Transition(order, *in.Status, ActorUser); err != nil {
			return nil, err
		}
	}
	if err := saveOrder(ctx, s.db, order, from, in.Status != nil); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// saveOrder writes the editable columns of order. Paid is never written. Status
// is written only when withStatus is set, and only while the stored status is
// still from, so a reconciliation landing in between is not rolled back.
func saveOrder(ctx context.Context, db *gorm.DB, order *models.Order, from models.OrderStatus, withStatus bool) error {
	cols := []string{"description", "updated_at"}
	q := db.WithContext(ctx).Model(order)
	if withStatus {
		cols = append(cols, "status")
		q = q.Where("status = ?", from)
	}
	res := q.Select(cols).Updates(order)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("order_status_changed", "The order status changed meanwhile. Reload it and try again.")
	}
	return nil
}

// TransitionStatus moves an order to status `to` on behalf of its customer.
func (s *OrderService) TransitionStatus(ctx context.Context, who policy.Identity, id uint, to models.OrderStatus) (*models.Order, error) {
	return s.Update(ctx, who, id, 0, OrderInput{Status: &to})
}

// Delete is always denied; orders are kept for bookkeeping.
func (s *OrderService) Delete(ctx context.Context, who policy.Identity, id, storeID uint) error {
	if err := policy.RequireEmail(who, "You must provide an email to delete an order as a non-authenticated user."); err != nil {
		return err
	}
	facts, err := s.visibleFacts(ctx, who, id, storeID)
	if err != nil {
		return err
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionDelete, policy.ResourceOrder, facts); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.Order{}, id).Error
}

// visibleFacts resolves the chain of an order and hides it behind not found
// when it is outside storeID or the caller may not view it.
func (s *OrderService) visibleFacts(ctx context.Context, who policy.Identity, id, storeID uint) (policy.Facts, error) {
	facts, err := s.owners.Order(ctx, id)
	if err != nil {
		return policy.Facts{}, err
	}
	if storeID != 0 && facts.StoreID != storeID {
		return policy.Facts{}, apperr.NotFound("order")
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionView, policy.ResourceOrder, facts); err != nil {
		return policy.Facts{}, hideDenied(err, "order")
	}
	return facts, nil
}

func (s *OrderService) load(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id")
	}).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// deriveCustomer returns the customer columns of a new order: the caller's
// user id when authenticated, otherwise their e-mail.
func deriveCustomer(who policy.Identity) (*uint, string) {
	if who.Authenticated() {
		uid := who.UserID
		return &uid, ""
	}
	return nil, who.Email
}

// visibleOrders scopes q, which selects from or joins the orders table, to the
// orders who may see.
func visibleOrders(db *gorm.DB, q *gorm.DB, who policy.Identity) (*gorm.DB, error) {
	switch {
	case who.IsSuperuser:
		return q, nil
	case who.Authenticated() && who.IsSeller:
		owned := db.Model(&models.Store{}).Select("id").Where("owner_id = ?", who.UserID)
		return q.Where("(orders.store_id IN (?) OR orders.customer_id = ?)", owned, who.UserID), nil
	case who.Authenticated():
		return q.Where("orders.customer_id = ?", who.UserID), nil
	}
	if err := policy.RequireEmail(who, "You must provide an email to view orders as a non-authenticated user."); err != nil {
		return nil, err
	}
	return q.Where("orders.customer_id IS NULL AND orders.customer_email = ?", who.Email), nil
}
