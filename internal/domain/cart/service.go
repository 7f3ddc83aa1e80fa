package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/domain/pricing"
	"github.com/zellijstore/commerce/internal/domain/product"
)

// Service implements cart operations on top of the cart repository and the
// product catalog. Stock checks here are advisory (a courtesy to the user);
// the authoritative check happens at checkout via the inventory ledger.
type Service struct {
	lines    Repository
	products product.Repository
	pricing  *pricing.Calculator
	now      func() time.Time
}

// NewService creates a cart Service.
func NewService(lines Repository, products product.Repository, calc *pricing.Calculator) *Service {
	return &Service{
		lines:    lines,
		products: products,
		pricing:  calc,
		now:      time.Now,
	}
}

// Add puts qty units of a product into the user's cart, snapshotting the
// current price. Adding a product already in the cart merges quantities;
// the merged quantity must still fit available stock.
func (s *Service) Add(ctx context.Context, userID string, productID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if !p.InStock || p.StockQuantity < qty {
		return ErrOutOfStock
	}

	newQty := qty
	if existing, err := s.lines.Get(ctx, userID, productID); err == nil {
		newQty = existing.Quantity + qty
		if newQty > p.StockQuantity {
			return ErrOutOfStock
		}
	} else if !isNotFound(err) {
		return fmt.Errorf("get cart line: %w", err)
	}

	line := Line{
		UserID:    userID,
		ProductID: productID,
		Quantity:  newQty,
		UnitPrice: p.Price,
		AddedAt:   s.now(),
	}
	if err := s.lines.Upsert(ctx, line); err != nil {
		return fmt.Errorf("upsert cart line: %w", err)
	}
	return nil
}

// UpdateQuantity sets the quantity of an existing line. A non-positive
// quantity removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID string, productID int64, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	if _, err := s.lines.Get(ctx, userID, productID); err != nil {
		return err
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if qty > p.StockQuantity {
		return ErrOutOfStock
	}

	if err := s.lines.UpdateQuantity(ctx, userID, productID, qty); err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	return nil
}

// Remove deletes a single line from the user's cart.
func (s *Service) Remove(ctx context.Context, userID string, productID int64) error {
	return s.lines.Remove(ctx, userID, productID)
}

// Clear deletes every line in the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.lines.Clear(ctx, userID)
}

// Count returns the total quantity across the user's cart lines.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	return s.lines.Count(ctx, userID)
}

// Summary returns the user's cart lines with the priced breakdown the
// checkout would produce, before any coupon.
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	lines, err := s.lines.Lines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}

	priced := make([]pricing.Line, len(lines))
	items := 0
	for i, l := range lines {
		priced[i] = pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
		items += l.Quantity
	}
	q := s.pricing.Quote(priced)

	return &Summary{
		Lines:        lines,
		TotalItems:   items,
		SubTotal:     q.SubTotal,
		Tax:          q.Tax,
		ShippingCost: q.ShippingCost,
		Total:        q.Total(decimal.Zero),
	}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrLineNotFound)
}
