package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFinder struct {
	coupon  *Coupon
	findErr error
	used    bool
	usedErr error
}

func (m *mockFinder) FindByCode(_ context.Context, _ string) (*Coupon, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.coupon, nil
}

func (m *mockFinder) HasUsage(_ context.Context, _ int64, _ string) (bool, error) {
	return m.used, m.usedErr
}

type mockIdentity struct {
	confirmed bool
	err       error
}

func (m *mockIdentity) EmailConfirmed(_ context.Context, _ string) (bool, error) {
	return m.confirmed, m.err
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCanApply(t *testing.T) {
	fixedNow := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	valid := func() *Coupon {
		return &Coupon{
			ID:                 1,
			Code:               "SAVE10",
			DiscountPercentage: d("10"),
			ValidFrom:          fixedNow.Add(-24 * time.Hour),
			ValidUntil:         fixedNow.Add(24 * time.Hour),
			Active:             true,
		}
	}

	tests := []struct {
		name       string
		finder     *mockFinder
		identity   *mockIdentity
		wantReason Reason
	}{
		{
			name:     "applicable",
			finder:   &mockFinder{coupon: valid()},
			identity: &mockIdentity{confirmed: true},
		},
		{
			name:       "unknown code",
			finder:     &mockFinder{findErr: ErrNotFound},
			identity:   &mockIdentity{},
			wantReason: ReasonNotFound,
		},
		{
			name: "not yet valid",
			finder: &mockFinder{coupon: func() *Coupon {
				c := valid()
				c.ValidFrom = fixedNow.Add(time.Hour)
				return c
			}()},
			identity:   &mockIdentity{},
			wantReason: ReasonNotValid,
		},
		{
			name: "expired",
			finder: &mockFinder{coupon: func() *Coupon {
				c := valid()
				c.ValidUntil = fixedNow.Add(-time.Hour)
				return c
			}()},
			identity:   &mockIdentity{},
			wantReason: ReasonNotValid,
		},
		{
			name: "inactive",
			finder: &mockFinder{coupon: func() *Coupon {
				c := valid()
				c.Active = false
				return c
			}()},
			identity:   &mockIdentity{},
			wantReason: ReasonNotValid,
		},
		{
			name: "usage limit exhausted",
			finder: &mockFinder{coupon: func() *Coupon {
				c := valid()
				limit := 3
				c.UsageLimit = &limit
				c.TimesUsed = 3
				return c
			}()},
			identity:   &mockIdentity{},
			wantReason: ReasonNotValid,
		},
		{
			name: "requires confirmed email",
			finder: &mockFinder{coupon: func() *Coupon {
				c := valid()
				c.RequireConfirmedEmail = true
				return c
			}()},
			identity:   &mockIdentity{confirmed: false},
			wantReason: ReasonRequiresConfirmedEmail,
		},
		{
			name:       "already used by this user",
			finder:     &mockFinder{coupon: valid(), used: true},
			identity:   &mockIdentity{},
			wantReason: ReasonAlreadyUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvaluator(tt.finder, tt.identity)
			ev.now = func() time.Time { return fixedNow }

			c, err := ev.CanApply(context.Background(), "u1", "SAVE10")
			if tt.wantReason == "" {
				require.NoError(t, err)
				require.NotNil(t, c)
				return
			}

			var na *NotApplicableError
			require.ErrorAs(t, err, &na)
			assert.Equal(t, tt.wantReason, na.Reason)
			assert.NotEmpty(t, na.Error())
		})
	}
}

func TestCanApply_RepositoryErrorPropagates(t *testing.T) {
	ev := NewEvaluator(&mockFinder{findErr: errors.New("db down")}, &mockIdentity{})

	_, err := ev.CanApply(context.Background(), "u1", "SAVE10")
	require.Error(t, err)

	var na *NotApplicableError
	assert.False(t, errors.As(err, &na), "infrastructure errors are not coupon reasons")
}

func TestComputeDiscount(t *testing.T) {
	min := d("200.00")

	tests := []struct {
		name     string
		coupon   *Coupon
		subtotal string
		want     string
	}{
		{
			name:     "flat percentage",
			coupon:   &Coupon{DiscountPercentage: d("10")},
			subtotal: "1000.00",
			want:     "100.00",
		},
		{
			name:     "rounds to cents",
			coupon:   &Coupon{DiscountPercentage: d("15")},
			subtotal: "33.33",
			want:     "5.00",
		},
		{
			name:     "below minimum order amount",
			coupon:   &Coupon{DiscountPercentage: d("10"), MinimumOrderAmount: &min},
			subtotal: "199.99",
			want:     "0",
		},
		{
			name:     "at minimum order amount",
			coupon:   &Coupon{DiscountPercentage: d("10"), MinimumOrderAmount: &min},
			subtotal: "200.00",
			want:     "20.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(tt.coupon, d(tt.subtotal))
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestIsValid(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	limit := 5

	c := Coupon{
		Active:     true,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
		UsageLimit: &limit,
		TimesUsed:  4,
	}
	assert.True(t, c.IsValid(now))

	c.TimesUsed = 5
	assert.False(t, c.IsValid(now), "exhausted usage limit")
}
