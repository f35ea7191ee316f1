package policy

import (
	"context"

	"github.com/diewo77/go-marketplace/gate"
	"go.uber.org/zap"
)

// Resource types known to the engine.
const (
	ResourceStore     = "store"
	ResourceProduct   = "product"
	ResourceOrder     = "order"
	ResourceOrderItem = "order_item"
	ResourceUser      = "user"
)

// Engine is the single authorization entry point. It wraps a gate.Gate with
// one policy per resource type and the coarse requirements that run first.
type Engine struct {
	gate *gate.Gate[Identity]
	log  *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	g := gate.NewGate[Identity]()

	g.Require("store:create", requireSeller(
		"You must be logged in to create a store.",
		"You must be a seller to create a store."))
	g.Require("store:update", requireLogin("You must be logged in to update a store."))
	g.Require("product:create", requireLogin("You must be logged in to add products to a store."))
	g.Require("product:update", requireLogin("You must be logged in to update products in a store."))
	g.Require("product:delete", requireLogin("You must be logged in to delete products from a store."))
	g.Require("user:view", requireLogin(msgNoCredentials))
	g.Require("user:update", requireLogin(msgNoCredentials))

	g.Register(ResourceStore, storePolicy{})
	g.Register(ResourceProduct, productPolicy{})
	g.Register(ResourceOrder, orderPolicy{})
	g.Register(ResourceOrderItem, orderItemPolicy{})
	g.Register(ResourceUser, userPolicy{})

	return &Engine{gate: g, log: log}
}

// Authorize returns nil when id may perform action on the resource described by
// facts, otherwise a *gate.Denial (unwrapping to gate.ErrUnauthenticated or
// gate.ErrForbidden) with the reason to show the caller.
func (e *Engine) Authorize(ctx context.Context, id Identity, action gate.Action, resource string, facts Facts) error {
	err := e.gate.Authorize(ctx, id, action, resource, facts)
	if err != nil {
		e.log.Info("authorization denied",
			zap.String("resource", resource),
			zap.String("action", string(action)),
			zap.Stringer("kind", id.Kind),
			zap.Uint("user_id", id.UserID),
			zap.String("reason", err.Error()))
	}
	return err
}

// Can is Authorize as a bool.
func (e *Engine) Can(ctx context.Context, id Identity, action gate.Action, resource string, facts Facts) bool {
	return e.Authorize(ctx, id, action, resource, facts) == nil
}

const msgNoCredentials = "Authentication credentials were not provided."

func requireLogin(msg string) gate.Requirement[Identity] {
	return func(_ context.Context, id Identity) gate.Decision {
		if !id.Authenticated() {
			return gate.Challenged(msg)
		}
		return gate.Allowed()
	}
}

func requireSeller(loginMsg, sellerMsg string) gate.Requirement[Identity] {
	return func(_ context.Context, id Identity) gate.Decision {
		if !id.Authenticated() {
			return gate.Challenged(loginMsg)
		}
		if !id.IsSeller {
			return gate.Denied(sellerMsg)
		}
		return gate.Allowed()
	}
}

func factsOf(resource any) Facts {
	f, _ := resource.(Facts)
	return f
}

// ownsOrder reports whether id is the customer of the order in f: the same
// user for registered orders, the same e-mail for guest orders.
func ownsOrder(id Identity, f Facts) bool {
	if id.Authenticated() {
		return f.CustomerID != 0 && f.CustomerID == id.UserID
	}
	return f.GuestOrder() && id.Email != "" && id.Email == f.CustomerEmail
}

// sellsOrder reports whether id owns the store the order was placed in.
func sellsOrder(id Identity, f Facts) bool {
	return id.Authenticated() && id.IsSeller && f.StoreOwnerID == id.UserID
}
