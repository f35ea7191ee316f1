package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/config"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/payments"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckoutResult is what the payer is redirected to.
type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CheckoutService opens hosted checkout sessions for orders and applies the
// provider's completion events back onto them.
type CheckoutService struct {
	db        *gorm.DB
	engine    *policy.Engine
	owners    *policy.OwnershipResolver
	lifecycle *Lifecycle
	provider  payments.Provider
	cfg       config.PaymentsConfig
	log       *zap.Logger
}

func NewCheckoutService(db *gorm.DB, engine *policy.Engine, owners *policy.OwnershipResolver, lifecycle *Lifecycle,
	provider payments.Provider, cfg config.PaymentsConfig, log *zap.Logger) *CheckoutService {
	return &CheckoutService{
		db:        db,
		engine:    engine,
		owners:    owners,
		lifecycle: lifecycle,
		provider:  provider,
		cfg:       cfg,
		log:       log,
	}
}

// CreateSession asks the provider for a hosted checkout of the order's items
// and records a pending payment. Only the order's customer may pay for it.
func (s *CheckoutService) CreateSession(ctx context.Context, who policy.Identity, orderID, storeID uint) (*CheckoutResult, error) {
	if err := policy.RequireEmail(who, "You must provide an email to pay for an order as a non-authenticated user."); err != nil {
		return nil, err
	}
	facts, err := s.owners.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if storeID != 0 && facts.StoreID != storeID {
		return nil, apperr.NotFound("order")
	}
	if !s.engine.Can(ctx, who, gate.ActionView, policy.ResourceOrder, facts) {
		return nil, apperr.NotFound("order")
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionUpdate, policy.ResourceOrder, facts); err != nil {
		return nil, err
	}

	var order models.Order
	err = s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order")
	}
	if err != nil {
		return nil, err
	}
	if order.Paid {
		return nil, apperr.Conflict("order_already_paid", "This order has already been paid.")
	}
	if s.lifecycle.IsTerminal(order.Status) {
		return nil, apperr.Rule("order_closed", "Orders that are "+order.Status.Label()+" cannot be paid.")
	}
	if len(order.Items) == 0 {
		return nil, apperr.Rule("empty_order", "The order has no items.")
	}

	lines := make([]payments.LineItem, 0, len(order.Items))
	for _, it := range order.Items {
		if it.Product == nil {
			return nil, apperr.NotFound("product")
		}
		lines = append(lines, payments.LineItem{
			Name:       it.Product.Name,
			UnitAmount: it.Product.MinorUnits(),
			Quantity:   int64(it.Quantity),
		})
	}
	email := order.CustomerEmail
	if !order.IsGuest() {
		// only the order's customer gets this far
		email = who.Email
	}
	req := payments.SessionRequest{
		OrderID:       order.ID,
		Currency:      s.cfg.Currency,
		Lines:         lines,
		CustomerEmail: email,
		SuccessURL:    s.cfg.SuccessURL,
		CancelURL:     s.cfg.CancelURL,
	}
	req.IdempotencyKey = checkoutKey(req)

	pctx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	sess, err := s.provider.CreateSession(pctx, req)
	if err != nil {
		s.log.Error("checkout session failed", zap.Uint("order_id", order.ID), zap.Error(err))
		return nil, apperr.PaymentProvider(err)
	}

	payment := models.Payment{
		OrderID:     order.ID,
		StoreID:     order.StoreID,
		Amount:      order.Total(),
		ProviderRef: sess.ID,
		Status:      models.PaymentPending,
	}
	// a retried checkout gets the same session back from the provider
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "provider_ref"}}, DoNothing: true}).
		Create(&payment).Error
	if err != nil {
		return nil, err
	}
	s.log.Info("checkout session created",
		zap.Uint("order_id", order.ID),
		zap.String("session_id", sess.ID),
		zap.Int("lines", len(lines)))
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// checkoutKey derives the provider idempotency key from everything the session
// is built from, so retrying an unchanged order reuses the open session while
// any change to its items asks for a new one.
func checkoutKey(req payments.SessionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "order:%d|%s|%s", req.OrderID, req.Currency, req.CustomerEmail)
	for _, l := range req.Lines {
		fmt.Fprintf(&b, "|%s:%d:%d", l.Name, l.UnitAmount, l.Quantity)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String())).String()
}

// Reconcile verifies a webhook delivery and applies a completed checkout to
// its order. Other event types are acknowledged and ignored. Redelivering the
// same event leaves the order and payment unchanged.
func (s *CheckoutService) Reconcile(ctx context.Context, payload []byte, signature string) (*payments.Event, error) {
	ev, err := s.provider.ParseEvent(payload, signature)
	switch {
	case errors.Is(err, payments.ErrMissingOrderID):
		s.log.Warn("webhook without order", zap.Error(err))
		return nil, apperr.Rule("missing_order_id", "The checkout session carries no order id.")
	case errors.Is(err, payments.ErrInvalidPayload):
		s.log.Warn("webhook payload rejected", zap.Error(err))
		return nil, apperr.Rule("invalid_payload", "The event payload could not be decoded.")
	case errors.Is(err, payments.ErrNoWebhookSecret):
		s.log.Error("webhook rejected: no signing secret configured")
		return nil, apperr.InvalidSignature(err)
	case err != nil:
		s.log.Warn("webhook rejected", zap.Error(err))
		return nil, apperr.InvalidSignature(err)
	}
	if ev.Type != payments.EventCheckoutCompleted {
		s.log.Debug("webhook ignored", zap.String("type", ev.Type), zap.String("event_id", ev.ID))
		return ev, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := markOrderPaid(ctx, tx, ev.OrderID); err != nil {
			return err
		}
		var order models.Order
		if err := tx.Select("id", "store_id").First(&order, ev.OrderID).Error; err != nil {
			return err
		}
		payment := models.Payment{
			OrderID:     order.ID,
			StoreID:     order.StoreID,
			Amount:      decimal.New(ev.AmountTotal, -2),
			ProviderRef: ev.SessionID,
			Status:      models.PaymentCompleted,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_ref"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order paid", zap.Uint("order_id", ev.OrderID), zap.String("session_id", ev.SessionID))
	return ev, nil
}

// markOrderPaid sets paid and moves a Received or Accepted order to Paid in a
// single statement. Orders already further along keep their status.
func markOrderPaid(ctx context.Context, tx *gorm.DB, orderID uint) error {
	res := tx.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]any{
		"paid": true,
		"status": gorm.Expr("CASE WHEN status IN (?, ?) THEN ? ELSE status END",
			models.StatusReceived, models.StatusAccepted, models.StatusPaid),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("order")
	}
	return nil
}
