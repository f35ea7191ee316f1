// Package handlers exposes the marketplace services as a JSON API.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/httpx"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// base carries what every resource handler needs to resolve the caller and report errors.
type base struct {
	ids *policy.IdentityResolver
	log *zap.Logger
}

// who resolves the caller. email is the guest e-mail found in the payload, if any.
func (b base) who(w http.ResponseWriter, r *http.Request, email string) (policy.Identity, bool) {
	id, err := b.ids.Resolve(r.Context(), policy.RequestEmail(r, email))
	if err != nil {
		b.fail(w, err)
		return policy.Identity{}, false
	}
	return id, true
}

func (b base) fail(w http.ResponseWriter, err error) {
	writeError(w, b.log, err)
}

// writeError maps domain errors onto status codes and the JSON error body.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var denial *gate.Denial
	if errors.As(err, &denial) {
		if denial.Challenge {
			httpx.JSONError(w, http.StatusUnauthorized, "not_authenticated", denial.Reason)
			return
		}
		httpx.JSONError(w, http.StatusForbidden, "permission_denied", denial.Reason)
		return
	}
	if errors.Is(err, httpx.ErrBadBody) {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		status := statusOf(ae.Kind)
		switch status {
		case http.StatusBadGateway:
			log.Error("payment provider failure", zap.Error(err))
		case http.StatusInternalServerError:
			log.Error("request failed", zap.Error(err))
		}
		httpx.JSONError(w, status, ae.Code, ae.Details())
		return
	}
	log.Error("request failed", zap.Error(err))
	httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}

func statusOf(kind error) int {
	switch kind {
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrValidation, apperr.ErrMissingIdentity, apperr.ErrInvalidSignature:
		return http.StatusBadRequest
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrPaymentProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// pathID reads a required numeric URL parameter.
func pathID(r *http.Request, name string) (uint, error) {
	n, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.NotFound(entityOf(name))
	}
	return uint(n), nil
}

// scopeID reads an optional numeric URL parameter set by nested routes; 0 when absent.
func scopeID(r *http.Request, name string) (uint, error) {
	if chi.URLParam(r, name) == "" {
		return 0, nil
	}
	return pathID(r, name)
}

func entityOf(param string) string {
	switch param {
	case "storeID":
		return "store"
	case "productID":
		return "product"
	case "orderID":
		return "order"
	case "itemID":
		return "order_item"
	default:
		return "user"
	}
}

func queryPage(r *http.Request) int {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return page
}

func pageOf[T any](res *services.ListResult[T]) httpx.Page[T] {
	return httpx.Page[T]{Items: res.Items, Total: res.Total, Page: res.Page, Limit: services.PageSize}
}
