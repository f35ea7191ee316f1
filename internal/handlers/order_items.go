package handlers

import (
	"net/http"

	"github.com/diewo77/go-marketplace/httpx"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/internal/services"
	"go.uber.org/zap"
)

// OrderItemHandler serves /order-items and /stores/{storeID}/orders/{orderID}/order-items.
type OrderItemHandler struct {
	base
	items *services.OrderItemService
}

func NewOrderItemHandler(items *services.OrderItemService, ids *policy.IdentityResolver, log *zap.Logger) *OrderItemHandler {
	return &OrderItemHandler{base: base{ids: ids, log: log}, items: items}
}

func (h *OrderItemHandler) scope(w http.ResponseWriter, r *http.Request) (services.ItemScope, bool) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return services.ItemScope{}, false
	}
	orderID, err := scopeID(r, "orderID")
	if err != nil {
		h.fail(w, err)
		return services.ItemScope{}, false
	}
	return services.ItemScope{StoreID: storeID, OrderID: orderID}, true
}

func (h *OrderItemHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	res, err := h.items.List(r.Context(), who, services.ItemFilter{ItemScope: scope, Page: queryPage(r)})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pageOf(res))
}

func (h *OrderItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "itemID")
	if err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	item, err := h.items.Get(r.Context(), who, id, scope)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *OrderItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var in services.OrderItemInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, stringOr(in.CustomerEmail))
	if !ok {
		return
	}
	item, err := h.items.Create(r.Context(), who, scope, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *OrderItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "itemID")
	if err != nil {
		h.fail(w, err)
		return
	}
	var in services.OrderItemInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, stringOr(in.CustomerEmail))
	if !ok {
		return
	}
	item, err := h.items.Update(r.Context(), who, id, scope, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *OrderItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "itemID")
	if err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	if err := h.items.Delete(r.Context(), who, id, scope); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
