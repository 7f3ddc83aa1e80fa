package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/zellijstore/commerce/internal/domain/product"
)

const (
	selectProductColumns = `id, name, description, price, image_url, marble_type, origin,
		color, finish, dimensions, stock_quantity, in_stock, created_at, updated_at`

	listProductsSQL = `SELECT ` + selectProductColumns + ` FROM products ORDER BY name`

	getProductSQL = `SELECT ` + selectProductColumns + ` FROM products WHERE id = $1`

	reserveStockSQL = `UPDATE products
		SET stock_quantity = stock_quantity - $2,
		    in_stock = stock_quantity - $2 > 0,
		    updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2`

	releaseStockSQL = `UPDATE products
		SET stock_quantity = stock_quantity + $2, in_stock = TRUE, updated_at = NOW()
		WHERE id = $1`

	productExistsSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	insertProductSQL = `INSERT INTO products (name, description, price, image_url,
		marble_type, origin, color, finish, dimensions, stock_quantity, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10 > 0)
		RETURNING id`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements the catalog and inventory ledger over PostgreSQL.
type ProductRepository struct {
	db dbtx
}

// NewProductRepository returns a ProductRepository using the given connection.
func NewProductRepository(db dbtx) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.db.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

func (r *ProductRepository) Reserve(ctx context.Context, id int64, qty int) error {
	return reserveStock(ctx, r.db, id, qty)
}

func (r *ProductRepository) Release(ctx context.Context, id int64, qty int) error {
	return releaseStock(ctx, r.db, id, qty)
}

// reserveStock decrements stock with a conditional update so concurrent
// reservations can never drive the quantity negative. A zero-row result means
// either the product vanished or not enough stock remains.
func reserveStock(ctx context.Context, db dbtx, id int64, qty int) error {
	tag, err := db.Exec(ctx, reserveStockSQL, id, qty)
	if err != nil {
		return fmt.Errorf("reserving stock for product %d: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx, productExistsSQL, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking product %d: %w", id, err)
	}
	if !exists {
		return product.ErrNotFound
	}
	return &product.InsufficientStockError{ProductID: id}
}

func releaseStock(ctx context.Context, db dbtx, id int64, qty int) error {
	if _, err := db.Exec(ctx, releaseStockSQL, id, qty); err != nil {
		return fmt.Errorf("releasing stock for product %d: %w", id, err)
	}
	return nil
}

// Insert creates a catalog entry and returns its id. Used by the seeder.
func (r *ProductRepository) Insert(ctx context.Context, p product.Product) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, insertProductSQL,
		p.Name, p.Description, p.Price, p.ImageURL, p.MarbleType, p.Origin,
		p.Color, p.Finish, p.Dimensions, p.StockQuantity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting product %s: %w", p.Name, err)
	}
	return id, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.MarbleType,
		&p.Origin, &p.Color, &p.Finish, &p.Dimensions, &p.StockQuantity,
		&p.InStock, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
