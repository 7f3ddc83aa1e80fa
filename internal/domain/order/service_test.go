package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/zellijstore/commerce/internal/domain/cart"
	"github.com/zellijstore/commerce/internal/domain/coupon"
	"github.com/zellijstore/commerce/internal/domain/pricing"
	"github.com/zellijstore/commerce/internal/domain/product"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newTestService(store *memStore) *Service {
	svc := NewService(store, pricing.NewCalculator(pricing.DefaultRates()), "ZMM")
	svc.now = func() time.Time { return testNow }
	return svc
}

// seedCheckout populates a store with one user owning address 1, a product
// in stock, and the product in the user's cart.
func seedCheckout(store *memStore, userID string, productID int64, stock, cartQty int, unitPrice string) {
	store.st.addrOwners[1] = userID
	store.st.stock[productID] = stock
	store.st.emailOK[userID] = true
	store.st.carts[userID] = append(store.st.carts[userID], cart.Line{
		UserID:      userID,
		ProductID:   productID,
		Quantity:    cartQty,
		UnitPrice:   d(unitPrice),
		ProductName: "Carrara Tile",
		AddedAt:     testNow,
	})
}

func seedCoupon(store *memStore, c coupon.Coupon) {
	cp := c
	store.st.coupons[cp.Code] = &cp
}

func validCoupon(id int64, code, pct string) coupon.Coupon {
	return coupon.Coupon{
		ID:                 id,
		Code:               code,
		DiscountPercentage: d(pct),
		ValidFrom:          testNow.Add(-time.Hour),
		ValidUntil:         testNow.Add(time.Hour),
		Active:             true,
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	store := newMemStore()
	store.st.addrOwners[1] = "u1"
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:            "u1",
		ShippingAddressID: 1,
	})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrder_InvalidShippingAddress(t *testing.T) {
	store := newMemStore()
	seedCheckout(store, "u1", 10, 5, 1, "100.00")
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:            "u1",
		ShippingAddressID: 99,
	})
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestCreateOrder_ForeignBillingAddress(t *testing.T) {
	store := newMemStore()
	seedCheckout(store, "u1", 10, 5, 1, "100.00")
	store.st.addrOwners[2] = "someone-else"
	svc := newTestService(store)

	other := int64(2)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:            "u1",
		ShippingAddressID: 1,
		BillingAddressID:  &other,
	})
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestCreateOrder_TotalsAndSideEffects(t *testing.T) {
	store := newMemStore()
	// Subtotal 1000: tax 100, free shipping, 10% coupon discount 100.
	seedCheckout(store, "u1", 10, 8, 2, "500.00")
	seedCoupon(store, validCoupon(1, "SAVE10", "10"))
	svc := newTestService(store)

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:            "u1",
		ShippingAddressID: 1,
		CouponCode:        "save10",
	})
	require.NoError(t, err)

	assert.Equal(t, "ZMM202608280001", o.Number)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, d("1000.00").Equal(o.SubTotal), "subtotal %s", o.SubTotal)
	assert.True(t, d("100.00").Equal(o.Tax), "tax %s", o.Tax)
	assert.True(t, decimal.Zero.Equal(o.ShippingCost), "shipping %s", o.ShippingCost)
	assert.True(t, d("100.00").Equal(o.DiscountAmount), "discount %s", o.DiscountAmount)
	assert.True(t, d("1000.00").Equal(o.Total), "total %s", o.Total)
	require.NotNil(t, o.CouponID)

	// Item snapshot carries name and price; item totals sum to the subtotal.
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Carrara Tile", o.Items[0].ProductName)
	assert.True(t, o.Items[0].Total.Equal(o.SubTotal))

	// Stock reserved, cart cleared, redemption recorded, counter bumped.
	assert.Equal(t, 6, store.st.stock[10])
	assert.Empty(t, store.st.carts["u1"])
	assert.Len(t, store.st.usages, 1)
	assert.Equal(t, 1, store.st.coupons["SAVE10"].TimesUsed)
}

func TestCreateOrder_ShippingBelowThreshold(t *testing.T) {
	store := newMemStore()
	seedCheckout(store, "u1", 10, 5, 1, "499.99")
	svc := newTestService(store)

	o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:            "u1",
		ShippingAddressID: 1,
	})
	require.NoError(t, err)
	assert.True(t, d("25").Equal(o.ShippingCost), "shipping %s", o.ShippingCost)
	// 499.99 + 50.00 tax + 25 shipping
	assert.True(t, d("574.99").Equal(o.Total), "total %s", o.Total)
}

func TestCreateOrder_InsufficientStockRollsBackEverything(t *testing.T) {
	store := newMemStore()
	seedCheckout(store, "u1", 10, 5, 3, "100.00")
	store.st.stock[11] = 1
	store.st.carts["u1"] = append(store.st.carts["u1"], cart.Line{
		UserID:    "u1",
		ProductID: 11,
		Quantity:  2, // only 1 in stock
		UnitPrice: d("50.00"),
	})
	seedCoupon(store, validCoupon(1, "SAVE10", "10"))
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:            "u1",
		ShippingAddressID: 1,
		CouponCode:        "SAVE10",
	})

	var ise *product.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(11), ise.ProductID)

	// Nothing moved: first line's reservation undone, cart intact, no order,
	// no redemption, counter untouched.
	assert.Equal(t, 5, store.st.stock[10])
	assert.Equal(t, 1, store.st.stock[11])
	assert.Len(t, store.st.carts["u1"], 2)
	assert.Empty(t, store.st.orders)
	assert.Empty(t, store.st.usages)
	assert.Equal(t, 0, store.st.coupons["SAVE10"].TimesUsed)
}

func TestCreateOrder_InapplicableCouponDegradesToNoDiscount(t *testing.T) {
	expired := validCoupon(1, "OLD10", "10")
	expired.ValidUntil = testNow.Add(-time.Minute)

	tests := []struct {
		name string
		prep func(*memStore)
		code string
	}{
		{name: "unknown code", prep: func(*memStore) {}, code: "NOPE"},
		{name: "expired", prep: func(s *memStore) { seedCoupon(s, expired) }, code: "OLD10"},
		{
			name: "already used",
			prep: func(s *memStore) {
				seedCoupon(s, validCoupon(1, "SAVE10", "10"))
				s.st.usages[usageKey{1, "u1"}] = coupon.Usage{CouponID: 1, UserID: "u1"}
			},
			code: "SAVE10",
		},
		{
			name: "unconfirmed email",
			prep: func(s *memStore) {
				c := validCoupon(1, "SAVE10", "10")
				c.RequireConfirmedEmail = true
				seedCoupon(s, c)
				s.st.emailOK["u1"] = false
			},
			code: "SAVE10",
		},
		{
			name: "below minimum order amount",
			prep: func(s *memStore) {
				c := validCoupon(1, "BIG10", "10")
				min := d("5000.00")
				c.MinimumOrderAmount = &min
				seedCoupon(s, c)
			},
			code: "BIG10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedCheckout(store, "u1", 10, 5, 1, "100.00")
			tt.prep(store)
			svc := newTestService(store)

			o, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
				UserID:            "u1",
				ShippingAddressID: 1,
				CouponCode:        tt.code,
			})
			require.NoError(t, err, "a bad coupon must not block checkout")
			assert.True(t, decimal.Zero.Equal(o.DiscountAmount))
			assert.Nil(t, o.CouponID)
			assert.Empty(t, store.st.usages[usageKey{1, "u1"}].OrderID)
		})
	}
}

func TestCreateOrder_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	const stock = 5
	const buyers = 12

	store := newMemStore()
	store.st.stock[10] = stock
	for i := 0; i < buyers; i++ {
		userID := string(rune('a' + i))
		store.st.addrOwners[int64(100+i)] = userID
		store.st.carts[userID] = []cart.Line{{
			UserID:    userID,
			ProductID: 10,
			Quantity:  1,
			UnitPrice: d("10.00"),
		}}
	}
	svc := newTestService(store)

	var g errgroup.Group
	results := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		g.Go(func() error {
			_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
				UserID:            string(rune('a' + i)),
				ShippingAddressID: int64(100 + i),
			})
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			var ise *product.InsufficientStockError
			require.ErrorAs(t, err, &ise)
		}
	}
	assert.Equal(t, stock, succeeded)
	assert.Equal(t, 0, store.st.stock[10])

	// Every successful checkout got a distinct order number.
	numbers := map[string]bool{}
	for _, o := range store.st.orders {
		require.False(t, numbers[o.Number], "duplicate order number %s", o.Number)
		numbers[o.Number] = true
	}
	assert.Len(t, numbers, stock)
}

func TestGetAndList(t *testing.T) {
	store := newMemStore()
	seedCheckout(store, "u1", 10, 5, 1, "100.00")
	svc := newTestService(store)

	placed, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:            "u1",
		ShippingAddressID: 1,
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), placed.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, placed.Number, got.Number)
	require.Len(t, got.Items, 1)

	_, err = svc.Get(context.Background(), placed.ID, "intruder")
	require.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestCreateOrder_StoreErrorPropagates(t *testing.T) {
	store := newMemStore()
	seedCheckout(store, "u1", 10, 5, 1, "100.00")
	svc := newTestService(store)
	svc.store = failingStore{inner: store, failOn: "clear"}

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:            "u1",
		ShippingAddressID: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear cart")

	// The failure rolled the whole transaction back.
	assert.Equal(t, 5, store.st.stock[10])
	assert.Empty(t, store.st.orders)
}

// failingStore injects an error into a chosen Tx operation.
type failingStore struct {
	inner  *memStore
	failOn string
}

func (f failingStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return f.inner.InTx(ctx, func(tx Tx) error {
		return fn(failingTx{Tx: tx, failOn: f.failOn})
	})
}

func (f failingStore) GetOrder(ctx context.Context, id int64, userID string) (*Order, error) {
	return f.inner.GetOrder(ctx, id, userID)
}

func (f failingStore) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	return f.inner.ListOrders(ctx, userID)
}

func (f failingStore) OrderStats(ctx context.Context) (*Stats, error) {
	return f.inner.OrderStats(ctx)
}

func (f failingStore) RecentOrders(ctx context.Context, limit int) ([]Order, error) {
	return f.inner.RecentOrders(ctx, limit)
}

type failingTx struct {
	Tx
	failOn string
}

func (f failingTx) ClearCart(ctx context.Context, userID string) error {
	if f.failOn == "clear" {
		return errors.New("db write failed")
	}
	return f.Tx.ClearCart(ctx, userID)
}
