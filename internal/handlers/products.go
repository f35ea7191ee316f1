package handlers

import (
	"net/http"

	"github.com/diewo77/go-marketplace/httpx"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/internal/services"
	"go.uber.org/zap"
)

// ProductHandler serves /products and /stores/{storeID}/products.
type ProductHandler struct {
	base
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService, ids *policy.IdentityResolver, log *zap.Logger) *ProductHandler {
	return &ProductHandler{base: base{ids: ids, log: log}, products: products}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	res, err := h.products.List(r.Context(), services.ProductFilter{StoreID: storeID, Page: queryPage(r)})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pageOf(res))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	id, err := pathID(r, "productID")
	if err != nil {
		h.fail(w, err)
		return
	}
	p, err := h.products.Get(r.Context(), id, storeID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Create adds a product. Under /stores/{storeID} the store defaults to the route's.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	var in services.ProductInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	if in.Store == nil && storeID != 0 {
		in.Store = &storeID
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	p, err := h.products.Create(r.Context(), who, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	id, err := pathID(r, "productID")
	if err != nil {
		h.fail(w, err)
		return
	}
	var in services.ProductInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	p, err := h.products.Update(r.Context(), who, id, storeID, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	storeID, err := scopeID(r, "storeID")
	if err != nil {
		h.fail(w, err)
		return
	}
	id, err := pathID(r, "productID")
	if err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	if err := h.products.Delete(r.Context(), who, id, storeID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
