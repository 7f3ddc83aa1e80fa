// Package address exposes the address book at the interface the checkout
// needs: ownership verification. Field contents are opaque to the core.
package address

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when an address does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("address not found")

// Address is a stored shipping or billing address.
type Address struct {
	ID         int64
	UserID     string
	Name       string
	Street     string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	IsDefault  bool
	CreatedAt  time.Time
}

// Repository provides address lookups scoped to the owning user.
type Repository interface {
	// Get returns the address only when it belongs to userID;
	// otherwise ErrNotFound.
	Get(ctx context.Context, userID string, id int64) (*Address, error)
	ListByUser(ctx context.Context, userID string) ([]Address, error)
}
