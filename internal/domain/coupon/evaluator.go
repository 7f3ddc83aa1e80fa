package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/domain/identity"
)

// ErrNotFound is returned when no active coupon matches a code.
var ErrNotFound = errors.New("coupon not found")

// Reason explains why a coupon cannot be applied, precise enough for a
// user-facing message.
type Reason string

const (
	ReasonNotFound               Reason = "not_found"
	ReasonNotValid               Reason = "not_valid"
	ReasonRequiresConfirmedEmail Reason = "requires_confirmed_email"
	ReasonAlreadyUsed            Reason = "already_used"
)

// NotApplicableError reports that a coupon cannot be applied and why.
type NotApplicableError struct {
	Code   string
	Reason Reason
}

func (e *NotApplicableError) Error() string {
	switch e.Reason {
	case ReasonNotFound:
		return fmt.Sprintf("coupon %q not found", e.Code)
	case ReasonNotValid:
		return fmt.Sprintf("coupon %q is expired or no longer available", e.Code)
	case ReasonRequiresConfirmedEmail:
		return fmt.Sprintf("coupon %q requires a confirmed email address", e.Code)
	case ReasonAlreadyUsed:
		return fmt.Sprintf("coupon %q has already been used", e.Code)
	default:
		return fmt.Sprintf("coupon %q is not applicable", e.Code)
	}
}

// Evaluator decides whether a user may apply a coupon and what it is worth.
// It never mutates state; redemption happens inside the checkout transaction.
type Evaluator struct {
	coupons  Finder
	identity identity.Provider
	now      func() time.Time
}

// NewEvaluator creates an Evaluator backed by the given lookups.
func NewEvaluator(coupons Finder, idp identity.Provider) *Evaluator {
	return &Evaluator{
		coupons:  coupons,
		identity: idp,
		now:      time.Now,
	}
}

// Lookup returns the active coupon for a code, matching case-insensitively.
func (e *Evaluator) Lookup(ctx context.Context, code string) (*Coupon, error) {
	return e.coupons.FindByCode(ctx, code)
}

// CanApply returns the coupon when the user may redeem it, or a
// NotApplicableError naming the first failing check.
func (e *Evaluator) CanApply(ctx context.Context, userID, code string) (*Coupon, error) {
	c, err := e.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotApplicableError{Code: code, Reason: ReasonNotFound}
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.IsValid(e.now()) {
		return nil, &NotApplicableError{Code: code, Reason: ReasonNotValid}
	}

	if c.RequireConfirmedEmail {
		confirmed, err := e.identity.EmailConfirmed(ctx, userID)
		if err != nil {
			return nil, errors.Wrap(err, "check email confirmation")
		}
		if !confirmed {
			return nil, &NotApplicableError{Code: code, Reason: ReasonRequiresConfirmedEmail}
		}
	}

	used, err := e.coupons.HasUsage(ctx, c.ID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "check coupon usage")
	}
	if used {
		return nil, &NotApplicableError{Code: code, Reason: ReasonAlreadyUsed}
	}

	return c, nil
}

// ComputeDiscount returns the discount a coupon grants on the given subtotal:
// zero when the subtotal is below the coupon's minimum order amount,
// otherwise subtotal * percentage / 100 rounded to 2 decimal places.
func ComputeDiscount(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if c.MinimumOrderAmount != nil && subtotal.LessThan(*c.MinimumOrderAmount) {
		return decimal.Zero
	}
	return subtotal.Mul(c.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(2)
}
