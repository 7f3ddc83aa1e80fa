package order

import (
	"context"

	"github.com/zellijstore/commerce/internal/domain/cart"
	"github.com/zellijstore/commerce/internal/domain/coupon"
)

// Store is the persistence boundary for orders. InTx runs fn inside one
// database transaction; when fn returns an error nothing it did is visible
// to anyone, ever.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// GetOrder returns the order with its items, only when it belongs to
	// userID. An empty userID skips the ownership filter (admin reads).
	GetOrder(ctx context.Context, id int64, userID string) (*Order, error)
	ListOrders(ctx context.Context, userID string) ([]Order, error)

	// Reporting reads for the admin dashboard.
	OrderStats(ctx context.Context) (*Stats, error)
	RecentOrders(ctx context.Context, limit int) ([]Order, error)
}

// Tx is the set of operations available inside an order transaction. The
// coupon lookup methods satisfy coupon.Finder and identity.Provider so a
// coupon.Evaluator can run against transaction state: FindByCode takes a
// row lock on the coupon so the usage counter cannot be checked and bumped
// concurrently.
type Tx interface {
	CartLines(ctx context.Context, userID string) ([]cart.Line, error)
	ClearCart(ctx context.Context, userID string) error

	AddressOwned(ctx context.Context, userID string, addressID int64) (bool, error)

	FindByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	HasUsage(ctx context.Context, couponID int64, userID string) (bool, error)
	EmailConfirmed(ctx context.Context, userID string) (bool, error)

	// ReserveStock conditionally decrements product stock; it fails with
	// *product.InsufficientStockError instead of going negative.
	ReserveStock(ctx context.Context, productID int64, qty int) error
	ReleaseStock(ctx context.Context, productID int64, qty int) error

	// NextSequence atomically advances and returns the daily order counter.
	NextSequence(ctx context.Context, day string) (int, error)

	InsertOrder(ctx context.Context, o *Order) (int64, error)
	InsertItems(ctx context.Context, orderID int64, items []Item) error
	RedeemCoupon(ctx context.Context, usage coupon.Usage) error

	// OrderForUpdate loads an order with its items under a row lock.
	OrderForUpdate(ctx context.Context, id int64) (*Order, error)
	// UpdateStatus writes status, tracking number, and the shipping
	// timestamps in a single row update.
	UpdateStatus(ctx context.Context, o *Order) error
}
