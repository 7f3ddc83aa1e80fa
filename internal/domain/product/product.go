package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InsufficientStockError indicates a stock reservation would drive the
// product's quantity negative.
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// Product represents a catalog item available for purchase. StockQuantity
// and InStock are owned by the inventory ledger; checkout never mutates
// price or descriptive fields.
type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	ImageURL      string
	MarbleType    string
	Origin        string
	Color         string
	Finish        string
	Dimensions    string
	StockQuantity int
	InStock       bool
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// Repository defines read access to the catalog plus the inventory ledger
// operations. Reserve and Release are atomic conditional updates; stock can
// never be observed negative.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)

	// Reserve decrements stock by qty only when enough stock remains,
	// recomputing the in-stock flag in the same statement. It returns
	// ErrNotFound when the product is missing and an insufficient-stock
	// error when the decrement would go negative.
	Reserve(ctx context.Context, id int64, qty int) error

	// Release returns qty units to stock and recomputes the in-stock flag.
	Release(ctx context.Context, id int64, qty int) error
}
