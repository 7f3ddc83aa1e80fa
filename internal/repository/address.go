package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/zellijstore/commerce/internal/domain/address"
)

const (
	selectAddressColumns = `id, user_id, name, street, line2, city, state,
		postal_code, country, phone, is_default, created_at`

	getAddressSQL = `SELECT ` + selectAddressColumns + ` FROM addresses
		WHERE id = $1 AND user_id = $2`

	listAddressesSQL = `SELECT ` + selectAddressColumns + ` FROM addresses
		WHERE user_id = $1 ORDER BY is_default DESC, created_at`

	insertAddressSQL = `INSERT INTO addresses (user_id, name, street, line2, city,
		state, postal_code, country, phone, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository persists the address book. Every lookup is scoped to the
// owning user; there is no unscoped read.
type AddressRepository struct {
	db dbtx
}

// NewAddressRepository returns an AddressRepository using the given connection.
func NewAddressRepository(db dbtx) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) Get(ctx context.Context, userID string, id int64) (*address.Address, error) {
	rows, err := r.db.Query(ctx, getAddressSQL, id, userID)
	if err != nil {
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}
	return &a, nil
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]address.Address, error) {
	rows, err := r.db.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

// Insert creates an address and returns its id. Used by the seeder.
func (r *AddressRepository) Insert(ctx context.Context, a address.Address) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, insertAddressSQL,
		a.UserID, a.Name, a.Street, a.Line2, a.City, a.State,
		a.PostalCode, a.Country, a.Phone, a.IsDefault,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting address: %w", err)
	}
	return id, nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var a address.Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Street, &a.Line2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.Phone, &a.IsDefault, &a.CreatedAt,
	)
	return a, err
}
