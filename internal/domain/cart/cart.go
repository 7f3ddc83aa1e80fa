// Package cart manages per-user shopping carts: one line per product with a
// unit price snapshot captured when the product was added.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrLineNotFound is returned when the user has no cart line for a product.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrInvalidQuantity is returned for non-positive quantities on add.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrOutOfStock is returned when the requested quantity exceeds available stock.
	ErrOutOfStock = errors.New("not enough stock available")
)

// Line is one user/product/quantity record awaiting checkout. UnitPrice is
// the product price at add time; the product fields are snapshots read
// alongside the line for checkout and display.
type Line struct {
	UserID             string
	ProductID          int64
	Quantity           int
	UnitPrice          decimal.Decimal
	AddedAt            time.Time
	ProductName        string
	ProductImageURL    string
	ProductDescription string
}

// Total is the line subtotal: unit price times quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Summary is a priced view of a user's cart.
type Summary struct {
	Lines        []Line
	TotalItems   int
	SubTotal     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// Repository defines persistence for cart lines. Lines returns the user's
// lines ordered by add time.
type Repository interface {
	Lines(ctx context.Context, userID string) ([]Line, error)
	Get(ctx context.Context, userID string, productID int64) (*Line, error)
	Upsert(ctx context.Context, line Line) error
	UpdateQuantity(ctx context.Context, userID string, productID int64, qty int) error
	Remove(ctx context.Context, userID string, productID int64) error
	Clear(ctx context.Context, userID string) error
	Count(ctx context.Context, userID string) (int, error)
}
