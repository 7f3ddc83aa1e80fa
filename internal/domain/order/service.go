package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zellijstore/commerce/internal/domain/cart"
	"github.com/zellijstore/commerce/internal/domain/coupon"
	"github.com/zellijstore/commerce/internal/domain/pricing"
)

// Service encapsulates checkout and order lifecycle business logic. Every
// mutation runs inside a single store transaction; a failed attempt leaves
// cart, inventory, and coupon state untouched.
type Service struct {
	store        Store
	pricing      *pricing.Calculator
	numberPrefix string
	now          func() time.Time
}

// NewService creates an order Service.
func NewService(store Store, calc *pricing.Calculator, numberPrefix string) *Service {
	if numberPrefix == "" {
		numberPrefix = DefaultNumberPrefix
	}
	return &Service{
		store:        store,
		pricing:      calc,
		numberPrefix: numberPrefix,
		now:          time.Now,
	}
}

// CreateOrderRequest is the checkout input.
type CreateOrderRequest struct {
	UserID            string
	ShippingAddressID int64
	BillingAddressID  *int64
	CouponCode        string
	Notes             string
}

// CreateOrder converts the user's cart into a placed order as one atomic
// transaction: price the cart, evaluate the coupon, reserve stock, allocate
// an order number, snapshot the line items, record the redemption, and clear
// the cart. An inapplicable coupon degrades to zero discount and never blocks
// the purchase; an insufficient stock reservation aborts everything.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var placed *Order

	err := s.store.InTx(ctx, func(tx Tx) error {
		lines, err := tx.CartLines(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		ok, err := tx.AddressOwned(ctx, req.UserID, req.ShippingAddressID)
		if err != nil {
			return fmt.Errorf("check shipping address: %w", err)
		}
		if !ok {
			return ErrInvalidAddress
		}
		if req.BillingAddressID != nil {
			ok, err := tx.AddressOwned(ctx, req.UserID, *req.BillingAddressID)
			if err != nil {
				return fmt.Errorf("check billing address: %w", err)
			}
			if !ok {
				return ErrInvalidAddress
			}
		}

		priced := make([]pricing.Line, len(lines))
		for i, l := range lines {
			priced[i] = pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
		}
		quote := s.pricing.Quote(priced)

		discount := decimal.Zero
		var applied *coupon.Coupon
		if req.CouponCode != "" {
			applied, discount, err = s.evaluateCoupon(ctx, tx, req.UserID, req.CouponCode, quote.SubTotal)
			if err != nil {
				return err
			}
		}

		now := s.now()
		seq, err := tx.NextSequence(ctx, DayKey(now))
		if err != nil {
			return fmt.Errorf("allocate order number: %w", err)
		}

		for _, l := range lines {
			if err := tx.ReserveStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}

		o := &Order{
			UserID:            req.UserID,
			Number:            FormatNumber(s.numberPrefix, now, seq),
			Status:            StatusPending,
			SubTotal:          quote.SubTotal,
			DiscountAmount:    discount,
			ShippingCost:      quote.ShippingCost,
			Tax:               quote.Tax,
			Total:             quote.Total(discount),
			ShippingAddressID: req.ShippingAddressID,
			BillingAddressID:  req.BillingAddressID,
			Notes:             req.Notes,
			OrderDate:         now,
			Items:             snapshotItems(lines),
		}
		if applied != nil {
			o.CouponID = &applied.ID
		}

		id, err := tx.InsertOrder(ctx, o)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		o.ID = id

		if err := tx.InsertItems(ctx, id, o.Items); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		if applied != nil && discount.IsPositive() {
			usage := coupon.Usage{
				CouponID:       applied.ID,
				UserID:         req.UserID,
				OrderID:        &id,
				DiscountAmount: discount,
				UsedAt:         now,
			}
			if err := tx.RedeemCoupon(ctx, usage); err != nil {
				return fmt.Errorf("redeem coupon: %w", err)
			}
		}

		if err := tx.ClearCart(ctx, req.UserID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("order placed",
		zap.String("order_number", placed.Number),
		zap.String("user_id", placed.UserID),
		zap.String("total", placed.Total.String()),
	)
	return placed, nil
}

// evaluateCoupon runs the coupon evaluator against transaction state. An
// inapplicable coupon is logged and degraded to zero discount; that is a
// product decision, not an oversight.
func (s *Service) evaluateCoupon(ctx context.Context, tx Tx, userID, code string, subtotal decimal.Decimal) (*coupon.Coupon, decimal.Decimal, error) {
	ev := coupon.NewEvaluator(tx, tx)
	c, err := ev.CanApply(ctx, userID, code)
	if err != nil {
		var na *coupon.NotApplicableError
		if errors.As(err, &na) {
			zctx.From(ctx).Info("coupon not applied",
				zap.String("code", code),
				zap.String("reason", string(na.Reason)),
			)
			return nil, decimal.Zero, nil
		}
		return nil, decimal.Zero, fmt.Errorf("evaluate coupon: %w", err)
	}

	discount := coupon.ComputeDiscount(c, subtotal)
	if !discount.IsPositive() {
		return nil, decimal.Zero, nil
	}
	return c, discount, nil
}

// snapshotItems copies the cart lines into immutable order items. Each item
// total is unit price times quantity; their sum is the order subtotal.
func snapshotItems(lines []cart.Line) []Item {
	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{
			ProductID:          l.ProductID,
			ProductName:        l.ProductName,
			ProductImageURL:    l.ProductImageURL,
			ProductDescription: l.ProductDescription,
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice,
			Total:              l.Total(),
		}
	}
	return items
}

// Get returns an order with its items when it belongs to the user.
func (s *Service) Get(ctx context.Context, id int64, userID string) (*Order, error) {
	return s.store.GetOrder(ctx, id, userID)
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	return s.store.ListOrders(ctx, userID)
}
