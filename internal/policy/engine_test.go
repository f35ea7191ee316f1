package policy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	anon      = policy.Anonymous("")
	guest     = policy.Anonymous("guest@example.com")
	otherMail = policy.Anonymous("other@example.com")
	customer  = policy.Identity{Kind: policy.KindCustomer, UserID: 10}
	sellerA   = policy.Identity{Kind: policy.KindSeller, UserID: 20, IsSeller: true}
	sellerB   = policy.Identity{Kind: policy.KindSeller, UserID: 30, IsSeller: true}
	super     = policy.Identity{Kind: policy.KindSuperuser, UserID: 1, IsSuperuser: true}
	staff     = policy.Identity{Kind: policy.KindCustomer, UserID: 2, IsStaff: true}
)

type outcome int

const (
	allow outcome = iota
	forbid
	challenge
)

type authzCase struct {
	name     string
	id       policy.Identity
	action   gate.Action
	resource string
	facts    policy.Facts
	want     outcome
	reason   string
}

func runCases(t *testing.T, cases []authzCase) {
	t.Helper()
	e := policy.NewEngine(zap.NewNop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Authorize(context.Background(), tc.id, tc.action, tc.resource, tc.facts)
			switch tc.want {
			case allow:
				require.NoError(t, err)
			case forbid:
				require.ErrorIs(t, err, gate.ErrForbidden)
			case challenge:
				require.ErrorIs(t, err, gate.ErrUnauthenticated)
			}
			if tc.reason != "" {
				var d *gate.Denial
				require.True(t, errors.As(err, &d))
				assert.Equal(t, tc.reason, d.Reason)
			}
		})
	}
}

func TestStoreMatrix(t *testing.T) {
	owned := policy.Facts{StoreID: 5, StoreOwnerID: sellerA.UserID}
	runCases(t, []authzCase{
		{"anyone reads", anon, gate.ActionView, policy.ResourceStore, owned, allow, ""},
		{"anyone lists", anon, gate.ActionList, policy.ResourceStore, policy.Facts{}, allow, ""},
		{"anonymous create", anon, gate.ActionCreate, policy.ResourceStore, policy.Facts{}, challenge, "You must be logged in to create a store."},
		{"customer create", customer, gate.ActionCreate, policy.ResourceStore, policy.Facts{}, forbid, "You must be a seller to create a store."},
		{"seller create for self", sellerA, gate.ActionCreate, policy.ResourceStore, policy.Facts{DeclaredOwnerID: sellerA.UserID}, allow, ""},
		{"seller create implicit owner", sellerA, gate.ActionCreate, policy.ResourceStore, policy.Facts{}, allow, ""},
		{"seller create for other", sellerA, gate.ActionCreate, policy.ResourceStore, policy.Facts{DeclaredOwnerID: sellerB.UserID}, forbid, "You can only create a store for yourself."},
		{"owner update", sellerA, gate.ActionUpdate, policy.ResourceStore, owned, allow, ""},
		{"other seller update", sellerB, gate.ActionUpdate, policy.ResourceStore, owned, forbid, "You can only update a store that you own."},
		{"superuser update", super, gate.ActionUpdate, policy.ResourceStore, owned, allow, ""},
		{"anonymous update", anon, gate.ActionUpdate, policy.ResourceStore, owned, challenge, ""},
		{"owner delete", sellerA, gate.ActionDelete, policy.ResourceStore, owned, forbid, "You cannot delete a store."},
		{"superuser delete", super, gate.ActionDelete, policy.ResourceStore, owned, forbid, "You cannot delete a store."},
		{"anonymous delete", anon, gate.ActionDelete, policy.ResourceStore, owned, forbid, "You cannot delete a store."},
	})
}

func TestProductMatrix(t *testing.T) {
	inA := policy.Facts{StoreID: 5, StoreOwnerID: sellerA.UserID, ProductID: 9}
	runCases(t, []authzCase{
		{"anyone reads", anon, gate.ActionView, policy.ResourceProduct, inA, allow, ""},
		{"anonymous create", anon, gate.ActionCreate, policy.ResourceProduct, policy.Facts{TargetStoreOwnerID: sellerA.UserID}, challenge, "You must be logged in to add products to a store."},
		{"owner create", sellerA, gate.ActionCreate, policy.ResourceProduct, policy.Facts{TargetStoreOwnerID: sellerA.UserID}, allow, ""},
		{"other seller create", sellerB, gate.ActionCreate, policy.ResourceProduct, policy.Facts{TargetStoreOwnerID: sellerA.UserID}, forbid, "You must be the owner of this store to add products to it."},
		{"customer create", customer, gate.ActionCreate, policy.ResourceProduct, policy.Facts{TargetStoreOwnerID: sellerA.UserID}, forbid, ""},
		{"owner update", sellerA, gate.ActionUpdate, policy.ResourceProduct, inA, allow, ""},
		{"other seller update", sellerB, gate.ActionUpdate, policy.ResourceProduct, inA, forbid, "You must be the owner of this store to update its products."},
		{"owner moves to foreign store", sellerA, gate.ActionUpdate, policy.ResourceProduct, policy.Facts{StoreOwnerID: sellerA.UserID, TargetStoreOwnerID: sellerB.UserID}, forbid, ""},
		{"anonymous update", anon, gate.ActionUpdate, policy.ResourceProduct, inA, challenge, "You must be logged in to update products in a store."},
		{"owner delete", sellerA, gate.ActionDelete, policy.ResourceProduct, inA, allow, ""},
		{"other seller delete", sellerB, gate.ActionDelete, policy.ResourceProduct, inA, forbid, "You must be the owner of this store to delete its products."},
		{"anonymous delete", anon, gate.ActionDelete, policy.ResourceProduct, inA, challenge, "You must be logged in to delete products from a store."},
	})
}

func TestOrderMatrix(t *testing.T) {
	registered := policy.Facts{OrderID: 3, StoreID: 5, StoreOwnerID: sellerA.UserID, CustomerID: customer.UserID}
	guestOrder := policy.Facts{OrderID: 4, StoreID: 5, StoreOwnerID: sellerA.UserID, CustomerEmail: "guest@example.com"}
	runCases(t, []authzCase{
		{"customer views own", customer, gate.ActionView, policy.ResourceOrder, registered, allow, ""},
		{"store seller views", sellerA, gate.ActionView, policy.ResourceOrder, registered, allow, ""},
		{"other seller views", sellerB, gate.ActionView, policy.ResourceOrder, registered, forbid, ""},
		{"superuser views", super, gate.ActionView, policy.ResourceOrder, registered, allow, ""},
		{"guest views by email", guest, gate.ActionView, policy.ResourceOrder, guestOrder, allow, ""},
		{"guest wrong email", otherMail, gate.ActionView, policy.ResourceOrder, guestOrder, forbid, ""},
		{"anonymous no email", anon, gate.ActionView, policy.ResourceOrder, guestOrder, forbid, ""},
		{"guest cannot see registered order", guest, gate.ActionView, policy.ResourceOrder, policy.Facts{CustomerID: 10, CustomerEmail: "guest@example.com"}, forbid, ""},

		{"customer creates for self", customer, gate.ActionCreate, policy.ResourceOrder, policy.Facts{DeclaredCustomerID: customer.UserID}, allow, ""},
		{"customer creates implicit", customer, gate.ActionCreate, policy.ResourceOrder, policy.Facts{}, allow, ""},
		{"customer creates for other", customer, gate.ActionCreate, policy.ResourceOrder, policy.Facts{DeclaredCustomerID: 99}, forbid, "You cannot create orders for other users."},
		{"guest creates with email", guest, gate.ActionCreate, policy.ResourceOrder, policy.Facts{}, allow, ""},
		{"anonymous creates without email", anon, gate.ActionCreate, policy.ResourceOrder, policy.Facts{}, forbid, "You must provide an email to create an order as a non-authenticated user."},
		{"guest declares customer", guest, gate.ActionCreate, policy.ResourceOrder, policy.Facts{DeclaredCustomerID: 10}, forbid, "You cannot create orders for other users."},

		{"customer updates own", customer, gate.ActionUpdate, policy.ResourceOrder, registered, allow, ""},
		{"customer reassigns", customer, gate.ActionUpdate, policy.ResourceOrder, withDeclared(registered, 99), forbid, "You cannot update orders for other users."},
		{"store seller updates", sellerA, gate.ActionUpdate, policy.ResourceOrder, registered, forbid, "You can only update your own orders."},
		{"superuser updates", super, gate.ActionUpdate, policy.ResourceOrder, registered, forbid, ""},
		{"guest updates by email", guest, gate.ActionUpdate, policy.ResourceOrder, guestOrder, allow, ""},
		{"guest wrong email update", otherMail, gate.ActionUpdate, policy.ResourceOrder, guestOrder, forbid, "You can only update your own orders."},

		{"customer deletes", customer, gate.ActionDelete, policy.ResourceOrder, registered, forbid, "Orders cannot be deleted."},
		{"superuser deletes", super, gate.ActionDelete, policy.ResourceOrder, registered, forbid, "Orders cannot be deleted."},
		{"guest deletes", guest, gate.ActionDelete, policy.ResourceOrder, guestOrder, forbid, "Orders cannot be deleted."},
	})
}

func withDeclared(f policy.Facts, customerID uint) policy.Facts {
	f.DeclaredCustomerID = customerID
	return f
}

func TestOrderItemMatrix(t *testing.T) {
	registered := policy.Facts{OrderID: 3, StoreID: 5, StoreOwnerID: sellerA.UserID, CustomerID: customer.UserID, ItemID: 7}
	guestOrder := policy.Facts{OrderID: 4, StoreID: 5, StoreOwnerID: sellerA.UserID, CustomerEmail: "guest@example.com", ItemID: 8}
	runCases(t, []authzCase{
		{"customer views", customer, gate.ActionView, policy.ResourceOrderItem, registered, allow, ""},
		{"store seller views", sellerA, gate.ActionView, policy.ResourceOrderItem, registered, allow, ""},
		{"other seller views", sellerB, gate.ActionView, policy.ResourceOrderItem, registered, forbid, ""},
		{"superuser views", super, gate.ActionView, policy.ResourceOrderItem, registered, allow, ""},
		{"guest views by email", guest, gate.ActionView, policy.ResourceOrderItem, guestOrder, allow, ""},

		{"customer adds to own", customer, gate.ActionCreate, policy.ResourceOrderItem, registered, allow, ""},
		{"seller adds to customer order", sellerA, gate.ActionCreate, policy.ResourceOrderItem, registered, forbid, "You cannot create order items for other users."},
		{"guest adds by email", guest, gate.ActionCreate, policy.ResourceOrderItem, guestOrder, allow, ""},
		{"guest adds to registered order", guest, gate.ActionCreate, policy.ResourceOrderItem, registered, forbid, "You cannot create order items for other users."},

		{"customer updates", customer, gate.ActionUpdate, policy.ResourceOrderItem, registered, allow, ""},
		{"other updates", sellerB, gate.ActionUpdate, policy.ResourceOrderItem, registered, forbid, "You can only update your own order items."},
		{"customer deletes", customer, gate.ActionDelete, policy.ResourceOrderItem, registered, allow, ""},
		{"other deletes", sellerA, gate.ActionDelete, policy.ResourceOrderItem, registered, forbid, "You can only delete your own order items."},
		{"wrong guest deletes", otherMail, gate.ActionDelete, policy.ResourceOrderItem, guestOrder, forbid, ""},
	})
}

func TestUserMatrix(t *testing.T) {
	target := policy.Facts{UserID: customer.UserID}
	runCases(t, []authzCase{
		{"anyone signs up", anon, gate.ActionCreate, policy.ResourceUser, policy.Facts{}, allow, ""},
		{"self views", customer, gate.ActionView, policy.ResourceUser, target, allow, ""},
		{"staff views", staff, gate.ActionView, policy.ResourceUser, target, allow, ""},
		{"superuser updates", super, gate.ActionUpdate, policy.ResourceUser, target, allow, ""},
		{"other views", sellerA, gate.ActionView, policy.ResourceUser, target, forbid, ""},
		{"anonymous views", anon, gate.ActionView, policy.ResourceUser, target, challenge, "Authentication credentials were not provided."},
		{"self deletes", customer, gate.ActionDelete, policy.ResourceUser, target, forbid, ""},
	})
}

func TestEngineCan(t *testing.T) {
	e := policy.NewEngine(zap.NewNop())
	assert.True(t, e.Can(context.Background(), anon, gate.ActionView, policy.ResourceProduct, policy.Facts{}))
	assert.False(t, e.Can(context.Background(), super, gate.ActionDelete, policy.ResourceOrder, policy.Facts{}))
}
