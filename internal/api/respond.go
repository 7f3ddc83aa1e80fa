package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/zellijstore/commerce/internal/domain/cart"
	"github.com/zellijstore/commerce/internal/domain/coupon"
	"github.com/zellijstore/commerce/internal/domain/order"
	"github.com/zellijstore/commerce/internal/domain/product"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps domain errors onto HTTP statuses. Anything
// unrecognized is logged and becomes an opaque 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, coupon.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, order.ErrNotPending),
		errors.Is(err, order.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, order.ErrInvalidAddress),
		errors.Is(err, cart.ErrOutOfStock):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		var (
			stockErr *product.InsufficientStockError
			naErr    *coupon.NotApplicableError
		)
		switch {
		case errors.As(err, &stockErr):
			respondError(w, http.StatusUnprocessableEntity, stockErr.Error())
		case errors.As(err, &naErr):
			respondError(w, http.StatusUnprocessableEntity, naErr.Error())
		default:
			zctx.From(r.Context()).Error("request failed",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			respondError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
