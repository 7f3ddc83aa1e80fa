package order

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/domain/cart"
	"github.com/zellijstore/commerce/internal/domain/coupon"
	"github.com/zellijstore/commerce/internal/domain/product"
)

// memStore is an in-memory Store with copy-on-write transactions: a
// transaction works on a deep copy and the copy replaces the live state only
// when the transaction function returns nil. Errors therefore roll back
// everything, matching the contract the postgres store provides.
type memStore struct {
	mu sync.Mutex
	st memState
}

type memState struct {
	carts       map[string][]cart.Line
	addrOwners  map[int64]string
	stock       map[int64]int
	coupons     map[string]*coupon.Coupon
	usages      map[usageKey]coupon.Usage
	emailOK     map[string]bool
	orders      map[int64]*Order
	counters    map[string]int
	nextOrderID int64
}

type usageKey struct {
	couponID int64
	userID   string
}

func newMemStore() *memStore {
	return &memStore{st: memState{
		carts:      map[string][]cart.Line{},
		addrOwners: map[int64]string{},
		stock:      map[int64]int{},
		coupons:    map[string]*coupon.Coupon{},
		usages:     map[usageKey]coupon.Usage{},
		emailOK:    map[string]bool{},
		orders:     map[int64]*Order{},
		counters:   map[string]int{},
	}}
}

func (s *memState) clone() memState {
	out := memState{
		carts:       make(map[string][]cart.Line, len(s.carts)),
		addrOwners:  make(map[int64]string, len(s.addrOwners)),
		stock:       make(map[int64]int, len(s.stock)),
		coupons:     make(map[string]*coupon.Coupon, len(s.coupons)),
		usages:      make(map[usageKey]coupon.Usage, len(s.usages)),
		emailOK:     make(map[string]bool, len(s.emailOK)),
		orders:      make(map[int64]*Order, len(s.orders)),
		counters:    make(map[string]int, len(s.counters)),
		nextOrderID: s.nextOrderID,
	}
	for k, v := range s.carts {
		out.carts[k] = append([]cart.Line(nil), v...)
	}
	for k, v := range s.addrOwners {
		out.addrOwners[k] = v
	}
	for k, v := range s.stock {
		out.stock[k] = v
	}
	for k, v := range s.coupons {
		cp := *v
		out.coupons[k] = &cp
	}
	for k, v := range s.usages {
		out.usages[k] = v
	}
	for k, v := range s.emailOK {
		out.emailOK[k] = v
	}
	for k, v := range s.orders {
		o := *v
		o.Items = append([]Item(nil), v.Items...)
		out.orders[k] = &o
	}
	for k, v := range s.counters {
		out.counters[k] = v
	}
	return out
}

func (m *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.st.clone()
	if err := fn(&memTx{st: &staged}); err != nil {
		return err
	}
	m.st = staged
	return nil
}

func (m *memStore) GetOrder(_ context.Context, id int64, userID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.st.orders[id]
	if !ok || (userID != "" && o.UserID != userID) {
		return nil, ErrNotFound
	}
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp, nil
}

func (m *memStore) ListOrders(_ context.Context, userID string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Order
	for _, o := range m.st.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (m *memStore) OrderStats(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := &Stats{ByStatus: map[Status]int{}, TotalRevenue: decimal.Zero, DeliveredRevenue: decimal.Zero}
	for _, o := range m.st.orders {
		st.TotalOrders++
		st.ByStatus[o.Status]++
		st.TotalRevenue = st.TotalRevenue.Add(o.Total)
		if o.Status == StatusDelivered {
			st.DeliveredRevenue = st.DeliveredRevenue.Add(o.Total)
		}
	}
	return st, nil
}

func (m *memStore) RecentOrders(_ context.Context, limit int) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Order
	for _, o := range m.st.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memTx implements Tx over a staged state copy.
type memTx struct {
	st *memState
}

func (t *memTx) CartLines(_ context.Context, userID string) ([]cart.Line, error) {
	return append([]cart.Line(nil), t.st.carts[userID]...), nil
}

func (t *memTx) ClearCart(_ context.Context, userID string) error {
	delete(t.st.carts, userID)
	return nil
}

func (t *memTx) AddressOwned(_ context.Context, userID string, addressID int64) (bool, error) {
	return t.st.addrOwners[addressID] == userID, nil
}

func (t *memTx) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := t.st.coupons[strings.ToUpper(code)]
	if !ok || !c.Active {
		return nil, coupon.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (t *memTx) HasUsage(_ context.Context, couponID int64, userID string) (bool, error) {
	_, ok := t.st.usages[usageKey{couponID, userID}]
	return ok, nil
}

func (t *memTx) EmailConfirmed(_ context.Context, userID string) (bool, error) {
	return t.st.emailOK[userID], nil
}

func (t *memTx) ReserveStock(_ context.Context, productID int64, qty int) error {
	have, ok := t.st.stock[productID]
	if !ok {
		return product.ErrNotFound
	}
	if have < qty {
		return &product.InsufficientStockError{ProductID: productID}
	}
	t.st.stock[productID] = have - qty
	return nil
}

func (t *memTx) ReleaseStock(_ context.Context, productID int64, qty int) error {
	t.st.stock[productID] += qty
	return nil
}

func (t *memTx) NextSequence(_ context.Context, day string) (int, error) {
	t.st.counters[day]++
	return t.st.counters[day], nil
}

func (t *memTx) InsertOrder(_ context.Context, o *Order) (int64, error) {
	t.st.nextOrderID++
	cp := *o
	cp.ID = t.st.nextOrderID
	t.st.orders[cp.ID] = &cp
	return cp.ID, nil
}

func (t *memTx) InsertItems(_ context.Context, orderID int64, items []Item) error {
	o := t.st.orders[orderID]
	o.Items = append([]Item(nil), items...)
	return nil
}

func (t *memTx) RedeemCoupon(_ context.Context, usage coupon.Usage) error {
	key := usageKey{usage.CouponID, usage.UserID}
	if _, ok := t.st.usages[key]; ok {
		return ErrConflict
	}
	for _, c := range t.st.coupons {
		if c.ID == usage.CouponID {
			if c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit {
				return ErrConflict
			}
			c.TimesUsed++
		}
	}
	t.st.usages[key] = usage
	return nil
}

func (t *memTx) OrderForUpdate(_ context.Context, id int64) (*Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp, nil
}

func (t *memTx) UpdateStatus(_ context.Context, o *Order) error {
	cur, ok := t.st.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Status = o.Status
	cur.TrackingNumber = o.TrackingNumber
	cur.ShippedDate = o.ShippedDate
	cur.DeliveredDate = o.DeliveredDate
	return nil
}

var _ Store = (*memStore)(nil)

var _ Tx = (*memTx)(nil)
