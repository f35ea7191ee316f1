package policy

import (
	"context"

	"github.com/diewo77/go-marketplace/gate"
)

type storePolicy struct{}

func (storePolicy) Decide(_ context.Context, id Identity, action gate.Action, resource any) gate.Decision {
	f := factsOf(resource)
	switch action {
	case gate.ActionView, gate.ActionList:
		return gate.Allowed()
	case gate.ActionCreate:
		if f.DeclaredOwnerID != 0 && f.DeclaredOwnerID != id.UserID {
			return gate.Denied("You can only create a store for yourself.")
		}
		return gate.Allowed()
	case gate.ActionUpdate:
		if id.IsSuperuser || f.StoreOwnerID == id.UserID {
			return gate.Allowed()
		}
		return gate.Denied("You can only update a store that you own.")
	default:
		return gate.Denied("You cannot delete a store.")
	}
}

type productPolicy struct{}

func (productPolicy) Decide(_ context.Context, id Identity, action gate.Action, resource any) gate.Decision {
	f := factsOf(resource)
	switch action {
	case gate.ActionView, gate.ActionList:
		return gate.Allowed()
	case gate.ActionCreate:
		if f.TargetStoreOwnerID != id.UserID {
			return gate.Denied("You must be the owner of this store to add products to it.")
		}
		return gate.Allowed()
	case gate.ActionUpdate:
		if f.StoreOwnerID != id.UserID {
			return gate.Denied("You must be the owner of this store to update its products.")
		}
		if f.TargetStoreOwnerID != 0 && f.TargetStoreOwnerID != id.UserID {
			return gate.Denied("You must be the owner of this store to add products to it.")
		}
		return gate.Allowed()
	case gate.ActionDelete:
		if f.StoreOwnerID != id.UserID {
			return gate.Denied("You must be the owner of this store to delete its products.")
		}
		return gate.Allowed()
	default:
		return gate.Denied("You cannot delete products from a store.")
	}
}

type orderPolicy struct{}

func (orderPolicy) Decide(_ context.Context, id Identity, action gate.Action, resource any) gate.Decision {
	f := factsOf(resource)
	switch action {
	case gate.ActionList:
		// rows are scoped by the visibility query
		return gate.Allowed()
	case gate.ActionView:
		if id.IsSuperuser || ownsOrder(id, f) || sellsOrder(id, f) {
			return gate.Allowed()
		}
		return gate.Denied("You do not have permission to view this order.")
	case gate.ActionCreate:
		if id.Authenticated() {
			if f.DeclaredCustomerID != 0 && f.DeclaredCustomerID != id.UserID {
				return gate.Denied("You cannot create orders for other users.")
			}
			return gate.Allowed()
		}
		if f.DeclaredCustomerID != 0 {
			return gate.Denied("You cannot create orders for other users.")
		}
		if id.Email == "" {
			return gate.Denied("You must provide an email to create an order as a non-authenticated user.")
		}
		return gate.Allowed()
	case gate.ActionUpdate:
		if !ownsOrder(id, f) {
			return gate.Denied("You can only update your own orders.")
		}
		if f.DeclaredCustomerID != 0 && f.DeclaredCustomerID != id.UserID {
			return gate.Denied("You cannot update orders for other users.")
		}
		return gate.Allowed()
	default:
		return gate.Denied("Orders cannot be deleted.")
	}
}

type orderItemPolicy struct{}

func (orderItemPolicy) Decide(_ context.Context, id Identity, action gate.Action, resource any) gate.Decision {
	f := factsOf(resource)
	switch action {
	case gate.ActionList:
		return gate.Allowed()
	case gate.ActionView:
		if id.IsSuperuser || ownsOrder(id, f) || sellsOrder(id, f) {
			return gate.Allowed()
		}
		return gate.Denied("You do not have permission to view this order item.")
	case gate.ActionCreate:
		if !ownsOrder(id, f) {
			return gate.Denied("You cannot create order items for other users.")
		}
		return gate.Allowed()
	case gate.ActionUpdate:
		if !ownsOrder(id, f) {
			return gate.Denied("You can only update your own order items.")
		}
		return gate.Allowed()
	default:
		if !ownsOrder(id, f) {
			return gate.Denied("You can only delete your own order items.")
		}
		return gate.Allowed()
	}
}

type userPolicy struct{}

func (userPolicy) Decide(_ context.Context, id Identity, action gate.Action, resource any) gate.Decision {
	f := factsOf(resource)
	switch action {
	case gate.ActionCreate:
		return gate.Allowed()
	case gate.ActionView, gate.ActionUpdate:
		if id.UserID == f.UserID || id.IsStaff || id.IsSuperuser {
			return gate.Allowed()
		}
		return gate.Denied("You do not have permission to perform this action.")
	default:
		return gate.Denied("You do not have permission to perform this action.")
	}
}
