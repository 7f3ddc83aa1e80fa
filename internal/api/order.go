package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/domain/order"
)

type orderItemResponse struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

type orderResponse struct {
	ID                int64               `json:"id"`
	OrderNumber       string              `json:"orderNumber"`
	Status            string              `json:"status"`
	SubTotal          decimal.Decimal     `json:"subTotal"`
	DiscountAmount    decimal.Decimal     `json:"discountAmount"`
	ShippingCost      decimal.Decimal     `json:"shippingCost"`
	Tax               decimal.Decimal     `json:"tax"`
	Total             decimal.Decimal     `json:"total"`
	ShippingAddressID int64               `json:"shippingAddressId"`
	BillingAddressID  *int64              `json:"billingAddressId,omitempty"`
	Notes             string              `json:"notes,omitempty"`
	TrackingNumber    string              `json:"trackingNumber,omitempty"`
	OrderDate         time.Time           `json:"orderDate"`
	ShippedDate       *time.Time          `json:"shippedDate,omitempty"`
	DeliveredDate     *time.Time          `json:"deliveredDate,omitempty"`
	Items             []orderItemResponse `json:"items,omitempty"`
}

func (s *Server) toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ImageURL:    s.imageURL(it.ProductImageURL),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		}
	}
	return orderResponse{
		ID:                o.ID,
		OrderNumber:       o.Number,
		Status:            string(o.Status),
		SubTotal:          o.SubTotal,
		DiscountAmount:    o.DiscountAmount,
		ShippingCost:      o.ShippingCost,
		Tax:               o.Tax,
		Total:             o.Total,
		ShippingAddressID: o.ShippingAddressID,
		BillingAddressID:  o.BillingAddressID,
		Notes:             o.Notes,
		TrackingNumber:    o.TrackingNumber,
		OrderDate:         o.OrderDate,
		ShippedDate:       o.ShippedDate,
		DeliveredDate:     o.DeliveredDate,
		Items:             items,
	}
}

type createOrderRequest struct {
	ShippingAddressID int64  `json:"shippingAddressId"`
	BillingAddressID  *int64 `json:"billingAddressId"`
	CouponCode        string `json:"couponCode"`
	Notes             string `json:"notes"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := s.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		UserID:            u.ID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		CouponCode:        req.CouponCode,
		Notes:             req.Notes,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.toOrderResponse(o))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	orders, err := s.orders.List(r.Context(), u.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = s.toOrderResponse(&orders[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	// Admins see every order; users only their own.
	scope := u.ID
	if u.Admin {
		scope = ""
	}
	o, err := s.orders.Get(r.Context(), id, scope)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.toOrderResponse(o))
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := s.orders.Cancel(r.Context(), id, u); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type advanceStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

func (s *Server) handleAdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req advanceStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.orders.AdvanceStatus(r.Context(), id, status, req.TrackingNumber); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type orderStatsResponse struct {
	TotalOrders      int             `json:"totalOrders"`
	ByStatus         map[string]int  `json:"byStatus"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	DeliveredRevenue decimal.Decimal `json:"deliveredRevenue"`
}

func (s *Server) handleOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.orders.Stats(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	byStatus := make(map[string]int, len(stats.ByStatus))
	for st, n := range stats.ByStatus {
		byStatus[string(st)] = n
	}
	respondJSON(w, http.StatusOK, orderStatsResponse{
		TotalOrders:      stats.TotalOrders,
		ByStatus:         byStatus,
		TotalRevenue:     stats.TotalRevenue,
		DeliveredRevenue: stats.DeliveredRevenue,
	})
}

func (s *Server) handleRecentOrders(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	orders, err := s.orders.Recent(r.Context(), limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = s.toOrderResponse(&orders[i])
	}
	respondJSON(w, http.StatusOK, resp)
}
