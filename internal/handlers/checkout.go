package handlers

import (
	"io"
	"net/http"

	"github.com/diewo77/go-marketplace/httpx"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/internal/services"
	"go.uber.org/zap"
)

// maxWebhookBytes caps webhook payloads.
const maxWebhookBytes = 64 << 10

type CheckoutHandler struct {
	base
	checkout *services.CheckoutService
}

func NewCheckoutHandler(checkout *services.CheckoutService, ids *policy.IdentityResolver, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{base: base{ids: ids, log: log}, checkout: checkout}
}

// Create opens a hosted checkout for an order and returns its URL.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	orderID, err := pathID(r, "orderID")
	if err != nil {
		h.fail(w, err)
		return
	}
	var in struct {
		CustomerEmail string `json:"customer_email"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, in.CustomerEmail)
	if !ok {
		return
	}
	res, err := h.checkout.CreateSession(r.Context(), who, orderID, storeID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// Webhook receives provider events. The raw body is needed for signature verification.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if _, err := h.checkout.Reconcile(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Success"})
}
