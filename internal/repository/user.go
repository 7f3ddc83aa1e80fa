package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/zellijstore/commerce/internal/domain/identity"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

const (
	userEmailConfirmedSQL = `SELECT email_confirmed FROM users WHERE id = $1`

	findUserByAPIKeySQL = `SELECT id, email, email_confirmed, is_admin FROM users
		WHERE api_key_hash = $1`

	insertUserSQL = `INSERT INTO users (id, email, email_confirmed, is_admin, api_key_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`
)

var _ identity.Provider = (*UserRepository)(nil)

// UserRepository reads accounts for authentication and coupon eligibility.
type UserRepository struct {
	db dbtx
}

// NewUserRepository returns a UserRepository using the given connection.
func NewUserRepository(db dbtx) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) EmailConfirmed(ctx context.Context, userID string) (bool, error) {
	var confirmed bool
	err := r.db.QueryRow(ctx, userEmailConfirmedSQL, userID).Scan(&confirmed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking email confirmation: %w", err)
	}
	return confirmed, nil
}

// FindByAPIKeyHash resolves the account holding the given key digest.
func (r *UserRepository) FindByAPIKeyHash(ctx context.Context, hash string) (*identity.User, error) {
	var u identity.User
	err := r.db.QueryRow(ctx, findUserByAPIKeySQL, hash).
		Scan(&u.ID, &u.Email, &u.EmailConfirmed, &u.Admin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding user by api key: %w", err)
	}
	return &u, nil
}

// Insert creates an account, skipping emails that already exist. Used by the
// seeder.
func (r *UserRepository) Insert(ctx context.Context, u identity.User, apiKeyHash string) error {
	_, err := r.db.Exec(ctx, insertUserSQL, u.ID, u.Email, u.EmailConfirmed, u.Admin, apiKeyHash)
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", u.Email, err)
	}
	return nil
}
