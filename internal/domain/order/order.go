// Package order owns the order aggregate: the checkout transaction that
// turns a cart into a priced, stock-reserved order, and the lifecycle state
// machine that governs it afterwards.
package order

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. The normal path is
// pending → confirmed → processing → shipped → delivered; cancellation is
// only possible from pending, refunds are an administrator escape hatch.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// ParseStatus validates a status string from an external caller.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return Status(s), nil
	}
	return "", errors.Errorf("unknown order status %q", s)
}

var (
	// ErrEmptyCart is returned when checkout finds no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidAddress is returned when an address does not belong to the buyer.
	ErrInvalidAddress = errors.New("address does not belong to user")
	// ErrNotFound is returned when an order does not exist or is not visible
	// to the requesting user.
	ErrNotFound = errors.New("order not found")
	// ErrNotPending is returned when cancellation is attempted on an order
	// that has left the pending state.
	ErrNotPending = errors.New("order is not pending")
	// ErrConflict is surfaced when the store detects a lost update; the
	// caller may retry the whole operation.
	ErrConflict = errors.New("concurrent update conflict")
)

// Order is a placed order. The monetary fields and item snapshots are
// immutable once created; only status, tracking number, and the shipping
// timestamps change afterwards, and only through the lifecycle methods.
type Order struct {
	ID                int64
	UserID            string
	Number            string
	Status            Status
	SubTotal          decimal.Decimal
	DiscountAmount    decimal.Decimal
	ShippingCost      decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	CouponID          *int64
	ShippingAddressID int64
	BillingAddressID  *int64
	Notes             string
	TrackingNumber    string
	OrderDate         time.Time
	ShippedDate       *time.Time
	DeliveredDate     *time.Time
	Items             []Item
}

// Item is a line snapshot: product name, price, image, and description are
// copied at order time so later catalog edits cannot rewrite history.
type Item struct {
	ID                 int64
	OrderID            int64
	ProductID          int64
	ProductName        string
	ProductImageURL    string
	ProductDescription string
	Quantity           int
	UnitPrice          decimal.Decimal
	Total              decimal.Decimal
}

// Stats aggregates order counts and revenue for the admin dashboard.
type Stats struct {
	TotalOrders      int
	ByStatus         map[Status]int
	TotalRevenue     decimal.Decimal
	DeliveredRevenue decimal.Decimal
}
