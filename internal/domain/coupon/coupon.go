// Package coupon holds the discount coupon aggregate and its evaluation
// rules: time window, usage limit, minimum order amount, one redemption per
// user, and the confirmed-account requirement.
package coupon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a percentage discount with eligibility constraints. TimesUsed is
// mutated only inside a checkout transaction, together with the creation of
// the matching Usage row.
type Coupon struct {
	ID                    int64
	Code                  string
	Description           string
	DiscountPercentage    decimal.Decimal
	MinimumOrderAmount    *decimal.Decimal
	ValidFrom             time.Time
	ValidUntil            time.Time
	UsageLimit            *int
	TimesUsed             int
	Active                bool
	RequireConfirmedEmail bool
	CreatedAt             time.Time
}

// IsValid reports whether the coupon can be redeemed at the given instant:
// active, inside its validity window, and not usage-exhausted.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.Active {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit {
		return false
	}
	return true
}

// Usage records a single redemption of a coupon by a user, linked to the
// order it discounted. At most one row exists per (coupon, user); the
// database enforces this with a uniqueness constraint.
type Usage struct {
	ID             int64
	CouponID       int64
	UserID         string
	OrderID        *int64
	DiscountAmount decimal.Decimal
	UsedAt         time.Time
}

// Finder is the minimal lookup surface the Evaluator needs. FindByCode
// matches codes case-insensitively against active coupons only; the checkout
// transaction provides an implementation that locks the row it returns.
type Finder interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	HasUsage(ctx context.Context, couponID int64, userID string) (bool, error)
}

// Repository is the full coupon persistence surface.
type Repository interface {
	Finder
	ListActive(ctx context.Context, now time.Time) ([]Coupon, error)
}
