package handlers

import (
	"net/http"

	"github.com/diewo77/go-marketplace/httpx"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/internal/services"
	"go.uber.org/zap"
)

// OrderHandler serves /orders and /stores/{storeID}/orders. Guests identify
// themselves with customer_email in the body, the query string or X-Customer-Email.
type OrderHandler struct {
	base
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService, ids *policy.IdentityResolver, log *zap.Logger) *OrderHandler {
	return &OrderHandler{base: base{ids: ids, log: log}, orders: orders}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	res, err := h.orders.List(r.Context(), who, services.OrderFilter{StoreID: storeID, Page: queryPage(r)})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pageOf(res))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, id, ok := h.orderPath(w, r)
	if !ok {
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	order, err := h.orders.Get(r.Context(), who, id, storeID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	var in services.OrderInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, stringOr(in.CustomerEmail))
	if !ok {
		return
	}
	order, err := h.orders.Create(r.Context(), who, storeID, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	storeID, id, ok := h.orderPath(w, r)
	if !ok {
		return
	}
	var in services.OrderInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, stringOr(in.CustomerEmail))
	if !ok {
		return
	}
	order, err := h.orders.Update(r.Context(), who, id, storeID, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	storeID, id, ok := h.orderPath(w, r)
	if !ok {
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	if err := h.orders.Delete(r.Context(), who, id, storeID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// orderPath reads the optional store scope and the order id.
func (h *OrderHandler) orderPath(w http.ResponseWriter, r *http.Request) (storeID, orderID uint, ok bool) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return 0, 0, false
	}
	orderID, err = pathID(r, "orderID")
	if err != nil {
		h.fail(w, err)
		return 0, 0, false
	}
	return storeID, orderID, true
}

func stringOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
