package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/domain/cart"
)

type cartLineResponse struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type cartSummaryResponse struct {
	Lines        []cartLineResponse `json:"lines"`
	TotalItems   int                `json:"totalItems"`
	SubTotal     decimal.Decimal    `json:"subTotal"`
	Tax          decimal.Decimal    `json:"tax"`
	ShippingCost decimal.Decimal    `json:"shippingCost"`
	Total        decimal.Decimal    `json:"total"`
}

func (s *Server) toCartSummaryResponse(sum *cart.Summary) cartSummaryResponse {
	lines := make([]cartLineResponse, len(sum.Lines))
	for i, l := range sum.Lines {
		lines[i] = cartLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			ImageURL:    s.imageURL(l.ProductImageURL),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.Total(),
		}
	}
	return cartSummaryResponse{
		Lines:        lines,
		TotalItems:   sum.TotalItems,
		SubTotal:     sum.SubTotal,
		Tax:          sum.Tax,
		ShippingCost: sum.ShippingCost,
		Total:        sum.Total,
	}
}

func (s *Server) handleCartSummary(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	sum, err := s.carts.Summary(r.Context(), u.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.toCartSummaryResponse(sum))
}

type cartAddRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req cartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.carts.Add(r.Context(), u.ID, req.ProductID, req.Quantity); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type cartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	productID, err := strconv.ParseInt(r.PathValue("productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req cartUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.carts.UpdateQuantity(r.Context(), u.ID, productID, req.Quantity); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	productID, err := strconv.ParseInt(r.PathValue("productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := s.carts.Remove(r.Context(), u.ID, productID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	if err := s.carts.Clear(r.Context(), u.ID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
