package api

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/domain/coupon"
)

type couponResponse struct {
	Code               string           `json:"code"`
	Description        string           `json:"description,omitempty"`
	DiscountPercentage decimal.Decimal  `json:"discountPercentage"`
	MinimumOrderAmount *decimal.Decimal `json:"minimumOrderAmount,omitempty"`
	ValidUntil         time.Time        `json:"validUntil"`
}

func (s *Server) handleListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := s.coupons.ListActive(r.Context(), time.Now())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = couponResponse{
			Code:               c.Code,
			Description:        c.Description,
			DiscountPercentage: c.DiscountPercentage,
			MinimumOrderAmount: c.MinimumOrderAmount,
			ValidUntil:         c.ValidUntil,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

type couponPreviewRequest struct {
	Code string `json:"code"`
}

type couponPreviewResponse struct {
	Code               string          `json:"code"`
	Applicable         bool            `json:"applicable"`
	Reason             string          `json:"reason,omitempty"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage,omitempty"`
	Discount           decimal.Decimal `json:"discount"`
	CartSubTotal       decimal.Decimal `json:"cartSubTotal"`
}

// handleCouponPreview evaluates a coupon against the caller's current cart
// without redeeming anything. Unlike checkout, an inapplicable coupon is not
// silent here: the response names the exact reason.
func (s *Server) handleCouponPreview(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req couponPreviewRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		respondError(w, http.StatusBadRequest, "coupon code is required")
		return
	}

	sum, err := s.carts.Summary(r.Context(), u.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := couponPreviewResponse{
		Code:         req.Code,
		Discount:     decimal.Zero,
		CartSubTotal: sum.SubTotal,
	}

	c, err := s.eval.CanApply(r.Context(), u.ID, req.Code)
	if err != nil {
		var na *coupon.NotApplicableError
		if errors.As(err, &na) {
			resp.Reason = string(na.Reason)
			respondJSON(w, http.StatusOK, resp)
			return
		}
		respondDomainError(w, r, err)
		return
	}

	resp.Applicable = true
	resp.DiscountPercentage = c.DiscountPercentage
	resp.Discount = coupon.ComputeDiscount(c, sum.SubTotal)
	if !resp.Discount.IsPositive() {
		// Below the coupon's minimum order amount.
		resp.Applicable = false
		resp.Reason = "below_minimum_order_amount"
	}
	respondJSON(w, http.StatusOK, resp)
}
