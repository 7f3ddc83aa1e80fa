package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/zellijstore/commerce/internal/domain/cart"
)

const (
	selectCartLineColumns = `c.user_id, c.product_id, c.quantity, c.unit_price, c.added_at,
		p.name, p.image_url, p.description`

	cartLinesSQL = `SELECT ` + selectCartLineColumns + `
		FROM cart_items c JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1 ORDER BY c.added_at`

	getCartLineSQL = `SELECT ` + selectCartLineColumns + `
		FROM cart_items c JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1 AND c.product_id = $2`

	upsertCartLineSQL = `INSERT INTO cart_items (user_id, product_id, quantity, unit_price, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = $3, unit_price = $4`

	updateCartQuantitySQL = `UPDATE cart_items SET quantity = $3
		WHERE user_id = $1 AND product_id = $2`

	removeCartLineSQL = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`

	countCartItemsSQL = `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository persists cart lines, joining the catalog for the product
// snapshot fields on every read.
type CartRepository struct {
	db dbtx
}

// NewCartRepository returns a CartRepository using the given connection.
func NewCartRepository(db dbtx) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) Lines(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.db.Query(ctx, cartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

func (r *CartRepository) Get(ctx context.Context, userID string, productID int64) (*cart.Line, error) {
	rows, err := r.db.Query(ctx, getCartLineSQL, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("getting cart line: %w", err)
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, fmt.Errorf("getting cart line: %w", err)
	}
	return &l, nil
}

func (r *CartRepository) Upsert(ctx context.Context, line cart.Line) error {
	_, err := r.db.Exec(ctx, upsertCartLineSQL,
		line.UserID, line.ProductID, line.Quantity, line.UnitPrice, line.AddedAt)
	if err != nil {
		return fmt.Errorf("upserting cart line: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, userID string, productID int64, qty int) error {
	tag, err := r.db.Exec(ctx, updateCartQuantitySQL, userID, productID, qty)
	if err != nil {
		return fmt.Errorf("updating cart quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (r *CartRepository) Remove(ctx context.Context, userID string, productID int64) error {
	tag, err := r.db.Exec(ctx, removeCartLineSQL, userID, productID)
	if err != nil {
		return fmt.Errorf("removing cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, clearCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

func (r *CartRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countCartItemsSQL, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cart items: %w", err)
	}
	return n, nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(&l.UserID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.AddedAt,
		&l.ProductName, &l.ProductImageURL, &l.ProductDescription)
	return l, err
}
