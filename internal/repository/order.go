package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/domain/order"
)

const (
	selectOrderColumns = `id, user_id, order_number, status, sub_total, discount_amount,
		shipping_cost, tax, total, coupon_id, shipping_address_id, billing_address_id,
		notes, tracking_number, order_date, shipped_date, delivered_date`

	getOrderSQL = `SELECT ` + selectOrderColumns + ` FROM orders WHERE id = $1`

	getOrderOwnedSQL = `SELECT ` + selectOrderColumns + ` FROM orders
		WHERE id = $1 AND user_id = $2`

	listOrdersSQL = `SELECT ` + selectOrderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY order_date DESC, id DESC`

	recentOrdersSQL = `SELECT ` + selectOrderColumns + ` FROM orders
		ORDER BY order_date DESC, id DESC LIMIT $1`

	listOrderItemsSQL = `SELECT id, order_id, product_id, product_name, product_image_url,
		product_description, quantity, unit_price, total
		FROM order_items WHERE order_id = $1 ORDER BY id`

	orderStatsSQL = `SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders GROUP BY status`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. Checkout and
// lifecycle mutations run inside InTx; reads go straight to the pool.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// InTx runs fn inside a single database transaction. Conflict SQLSTATEs
// (serialization failure, deadlock, unique violation) surface as
// order.ErrConflict so callers can retry the whole operation.
func (s *OrderStore) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	ptx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer ptx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&orderTx{db: ptx}); err != nil {
		return mapConcurrencyError(err)
	}

	if err := ptx.Commit(ctx); err != nil {
		return mapConcurrencyError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// GetOrder returns an order with its items. With a non-empty userID the
// order must belong to that user; admins pass an empty userID.
func (s *OrderStore) GetOrder(ctx context.Context, id int64, userID string) (*order.Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if userID == "" {
		rows, err = s.pool.Query(ctx, getOrderSQL, id)
	} else {
		rows, err = s.pool.Query(ctx, getOrderOwnedSQL, id, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	items, err := listOrderItems(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

// ListOrders returns the user's orders, newest first, without items.
func (s *OrderStore) ListOrders(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, listOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// RecentOrders returns the latest orders across all users.
func (s *OrderStore) RecentOrders(ctx context.Context, limit int) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, recentOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// OrderStats aggregates order counts and revenue by status.
func (s *OrderStore) OrderStats(ctx context.Context) (*order.Stats, error) {
	rows, err := s.pool.Query(ctx, orderStatsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying order stats: %w", err)
	}
	defer rows.Close()

	stats := &order.Stats{
		ByStatus:         map[order.Status]int{},
		TotalRevenue:     decimal.Zero,
		DeliveredRevenue: decimal.Zero,
	}
	for rows.Next() {
		var (
			status  string
			count   int
			revenue decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, fmt.Errorf("scanning order stats: %w", err)
		}
		st := order.Status(status)
		stats.ByStatus[st] = count
		stats.TotalOrders += count
		stats.TotalRevenue = stats.TotalRevenue.Add(revenue)
		if st == order.StatusDelivered {
			stats.DeliveredRevenue = revenue
		}
	}
	return stats, rows.Err()
}

func listOrderItems(ctx context.Context, db dbtx, orderID int64) ([]order.Item, error) {
	rows, err := db.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %d: %w", orderID, err)
	}
	return pgx.CollectRows(rows, scanOrderItem)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Number, &status, &o.SubTotal, &o.DiscountAmount,
		&o.ShippingCost, &o.Tax, &o.Total, &o.CouponID, &o.ShippingAddressID,
		&o.BillingAddressID, &o.Notes, &o.TrackingNumber, &o.OrderDate,
		&o.ShippedDate, &o.DeliveredDate,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductImageURL,
		&it.ProductDescription, &it.Quantity, &it.UnitPrice, &it.Total,
	)
	return it, err
}
