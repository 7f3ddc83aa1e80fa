// Package pricing computes order totals from cart lines. It has no side
// effects and no persistence dependencies.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Rates holds the pricing constants applied to every checkout.
type Rates struct {
	// TaxRate is the fraction of the subtotal charged as tax, e.g. 0.10.
	TaxRate decimal.Decimal
	// FreeShippingThreshold is the subtotal at or above which shipping is free.
	FreeShippingThreshold decimal.Decimal
	// FlatShippingRate is charged when the subtotal is below the threshold.
	FlatShippingRate decimal.Decimal
}

// DefaultRates returns the store's standard rates: 10% tax, free shipping
// from 500, flat 25 otherwise.
func DefaultRates() Rates {
	return Rates{
		TaxRate:               decimal.RequireFromString("0.10"),
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingRate:      decimal.NewFromInt(25),
	}
}

// Line is the priced portion of a cart line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Quote is the priced breakdown of a cart before discounts.
type Quote struct {
	SubTotal     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
}

// Calculator prices carts according to a fixed set of rates.
type Calculator struct {
	rates Rates
}

// NewCalculator returns a Calculator using the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Quote computes subtotal, tax, and shipping cost for the given lines.
// Tax is rounded to 2 decimal places; the subtotal is the exact sum of
// unit price times quantity.
func (c *Calculator) Quote(lines []Line) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	tax := subtotal.Mul(c.rates.TaxRate).Round(2)

	shipping := c.rates.FlatShippingRate
	if subtotal.GreaterThanOrEqual(c.rates.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Quote{
		SubTotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
	}
}

// Total applies a discount to a quote: subtotal + tax + shipping - discount,
// rounded to 2 decimal places.
func (q Quote) Total(discount decimal.Decimal) decimal.Decimal {
	return q.SubTotal.Add(q.Tax).Add(q.ShippingCost).Sub(discount).Round(2)
}
