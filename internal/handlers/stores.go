package handlers

import (
	"net/http"

	"github.com/diewo77/go-marketplace/httpx"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/internal/services"
	"go.uber.org/zap"
)

type StoreHandler struct {
	base
	stores *services.StoreService
}

func NewStoreHandler(stores *services.StoreService, ids *policy.IdentityResolver, log *zap.Logger) *StoreHandler {
	return &StoreHandler{base: base{ids: ids, log: log}, stores: stores}
}

func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.stores.List(r.Context(), queryPage(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pageOf(res))
}

func (h *StoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	store, err := h.stores.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, store)
}

func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.StoreInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	store, err := h.stores.Create(r.Context(), who, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, store)
}

// Update serves both PUT and PATCH; absent fields are kept.
func (h *StoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	var in services.StoreInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	store, err := h.stores.Update(r.Context(), who, id, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, store)
}

func (h *StoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	if err := h.stores.Delete(r.Context(), who, id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
