package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/zellijstore/commerce/internal/domain/cart"
	"github.com/zellijstore/commerce/internal/domain/coupon"
	"github.com/zellijstore/commerce/internal/domain/order"
)

const (
	txAddressOwnedSQL = `SELECT EXISTS (
		SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`

	// Locks the coupon row so the usage-limit check and the times_used bump
	// cannot interleave with a concurrent checkout of the same code.
	txFindCouponSQL = `SELECT id, code, description, discount_percentage, minimum_order_amount,
		valid_from, valid_until, usage_limit, times_used, active, require_confirmed_email, created_at
		FROM coupons WHERE UPPER(code) = UPPER($1) FOR UPDATE`

	txEmailConfirmedSQL = `SELECT email_confirmed FROM users WHERE id = $1`

	txNextSequenceSQL = `INSERT INTO order_counters (day, last_seq) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_seq = order_counters.last_seq + 1
		RETURNING last_seq`

	txInsertOrderSQL = `INSERT INTO orders (user_id, order_number, status, sub_total,
		discount_amount, shipping_cost, tax, total, coupon_id, shipping_address_id,
		billing_address_id, notes, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	txInsertItemSQL = `INSERT INTO order_items (order_id, product_id, product_name,
		product_image_url, product_description, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	txInsertUsageSQL = `INSERT INTO coupon_usages (coupon_id, user_id, order_id,
		discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5)`

	txBumpTimesUsedSQL = `UPDATE coupons
		SET times_used = times_used + 1
		WHERE id = $1 AND (usage_limit IS NULL OR times_used < usage_limit)`

	txOrderForUpdateSQL = `SELECT ` + selectOrderColumns + ` FROM orders
		WHERE id = $1 FOR UPDATE`

	txUpdateStatusSQL = `UPDATE orders
		SET status = $2, tracking_number = $3, shipped_date = $4, delivered_date = $5
		WHERE id = $1`
)

var _ order.Tx = (*orderTx)(nil)

// orderTx exposes the in-transaction operation set on top of a pgx.Tx.
type orderTx struct {
	db pgx.Tx
}

func (t *orderTx) CartLines(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := t.db.Query(ctx, cartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("loading cart lines: %w", err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

func (t *orderTx) ClearCart(ctx context.Context, userID string) error {
	if _, err := t.db.Exec(ctx, clearCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

func (t *orderTx) AddressOwned(ctx context.Context, userID string, addressID int64) (bool, error) {
	var owned bool
	if err := t.db.QueryRow(ctx, txAddressOwnedSQL, addressID, userID).Scan(&owned); err != nil {
		return false, fmt.Errorf("checking address %d: %w", addressID, err)
	}
	return owned, nil
}

func (t *orderTx) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := t.db.Query(ctx, txFindCouponSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon: %w", err)
	}
	return &c, nil
}

func (t *orderTx) HasUsage(ctx context.Context, couponID int64, userID string) (bool, error) {
	var used bool
	if err := t.db.QueryRow(ctx, couponHasUsageSQL, couponID, userID).Scan(&used); err != nil {
		return false, fmt.Errorf("checking coupon usage: %w", err)
	}
	return used, nil
}

func (t *orderTx) EmailConfirmed(ctx context.Context, userID string) (bool, error) {
	var confirmed bool
	err := t.db.QueryRow(ctx, txEmailConfirmedSQL, userID).Scan(&confirmed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking email confirmation: %w", err)
	}
	return confirmed, nil
}

func (t *orderTx) ReserveStock(ctx context.Context, productID int64, qty int) error {
	return reserveStock(ctx, t.db, productID, qty)
}

func (t *orderTx) ReleaseStock(ctx context.Context, productID int64, qty int) error {
	return releaseStock(ctx, t.db, productID, qty)
}

func (t *orderTx) NextSequence(ctx context.Context, day string) (int, error) {
	var seq int
	if err := t.db.QueryRow(ctx, txNextSequenceSQL, day).Scan(&seq); err != nil {
		return 0, fmt.Errorf("advancing order counter for %s: %w", day, err)
	}
	return seq, nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx, txInsertOrderSQL,
		o.UserID, o.Number, string(o.Status), o.SubTotal, o.DiscountAmount,
		o.ShippingCost, o.Tax, o.Total, o.CouponID, o.ShippingAddressID,
		o.BillingAddressID, o.Notes, o.OrderDate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting order %s: %w", o.Number, err)
	}
	return id, nil
}

func (t *orderTx) InsertItems(ctx context.Context, orderID int64, items []order.Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(txInsertItemSQL, orderID, it.ProductID, it.ProductName,
			it.ProductImageURL, it.ProductDescription, it.Quantity, it.UnitPrice, it.Total)
	}
	if err := t.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting %d order items: %w", len(items), err)
	}
	return nil
}

// RedeemCoupon records the usage and bumps times_used in one step. The unique
// (coupon_id, user_id) constraint and the guarded counter update keep a
// double redemption from slipping through between evaluation and commit.
func (t *orderTx) RedeemCoupon(ctx context.Context, usage coupon.Usage) error {
	_, err := t.db.Exec(ctx, txInsertUsageSQL,
		usage.CouponID, usage.UserID, usage.OrderID, usage.DiscountAmount, usage.UsedAt)
	if err != nil {
		return fmt.Errorf("recording coupon usage: %w", err)
	}

	tag, err := t.db.Exec(ctx, txBumpTimesUsedSQL, usage.CouponID)
	if err != nil {
		return fmt.Errorf("incrementing coupon usage count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("coupon %d: %w", usage.CouponID, order.ErrConflict)
	}
	return nil
}

func (t *orderTx) OrderForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := t.db.Query(ctx, txOrderForUpdateSQL, id)
	if err != nil {
		return nil, fmt.Errorf("locking order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %d: %w", id, err)
	}

	items, err := listOrderItems(ctx, t.db, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (t *orderTx) UpdateStatus(ctx context.Context, o *order.Order) error {
	tag, err := t.db.Exec(ctx, txUpdateStatusSQL,
		o.ID, string(o.Status), o.TrackingNumber, o.ShippedDate, o.DeliveredDate)
	if err != nil {
		return fmt.Errorf("updating order %d status: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
