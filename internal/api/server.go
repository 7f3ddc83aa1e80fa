// Package api exposes the commerce core over HTTP JSON. Routing uses
// net/http method patterns; authentication is an HMAC-hashed API key
// resolved to an account before any handler runs.
package api

import (
	"net/http"

	"github.com/zellijstore/commerce/internal/domain/cart"
	"github.com/zellijstore/commerce/internal/domain/coupon"
	"github.com/zellijstore/commerce/internal/domain/order"
	"github.com/zellijstore/commerce/internal/domain/product"
)

// Config holds non-dependency handler configuration.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, paths are returned as stored.
	ImageBaseURL string
}

// Server bundles the HTTP handlers over the domain services.
type Server struct {
	products product.Repository
	carts    *cart.Service
	orders   *order.Service
	coupons  coupon.Repository
	eval     *coupon.Evaluator
	auth     *Authenticator

	imageBaseURL string
}

// NewServer constructs a Server with its domain dependencies.
func NewServer(
	cfg Config,
	products product.Repository,
	carts *cart.Service,
	orders *order.Service,
	coupons coupon.Repository,
	eval *coupon.Evaluator,
	auth *Authenticator,
) *Server {
	return &Server{
		products:     products,
		carts:        carts,
		orders:       orders,
		coupons:      coupons,
		eval:         eval,
		auth:         auth,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes returns the API mux. The catalog and coupon list are public;
// everything else needs an authenticated user, and the admin subtree an
// administrator.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", s.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", s.handleGetProduct)
	mux.HandleFunc("GET /api/coupons", s.handleListCoupons)

	mux.Handle("GET /api/cart", s.auth.RequireUser(s.handleCartSummary))
	mux.Handle("POST /api/cart/items", s.auth.RequireUser(s.handleCartAdd))
	mux.Handle("PUT /api/cart/items/{productID}", s.auth.RequireUser(s.handleCartUpdate))
	mux.Handle("DELETE /api/cart/items/{productID}", s.auth.RequireUser(s.handleCartRemove))
	mux.Handle("DELETE /api/cart", s.auth.RequireUser(s.handleCartClear))

	mux.Handle("POST /api/coupons/preview", s.auth.RequireUser(s.handleCouponPreview))

	mux.Handle("POST /api/orders", s.auth.RequireUser(s.handleCreateOrder))
	mux.Handle("GET /api/orders", s.auth.RequireUser(s.handleListOrders))
	mux.Handle("GET /api/orders/{id}", s.auth.RequireUser(s.handleGetOrder))
	mux.Handle("POST /api/orders/{id}/cancel", s.auth.RequireUser(s.handleCancelOrder))

	mux.Handle("GET /api/admin/orders/stats", s.auth.RequireAdmin(s.handleOrderStats))
	mux.Handle("GET /api/admin/orders/recent", s.auth.RequireAdmin(s.handleRecentOrders))
	mux.Handle("PUT /api/admin/orders/{id}/status", s.auth.RequireAdmin(s.handleAdvanceStatus))

	return mux
}
