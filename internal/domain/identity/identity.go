// Package identity defines the narrow account surface the commerce core
// consumes. Account management itself lives elsewhere.
package identity

import "context"

// User is the authenticated principal attached to a request.
type User struct {
	ID             string
	Email          string
	EmailConfirmed bool
	Admin          bool
}

// Provider exposes the single account fact the coupon evaluator needs.
type Provider interface {
	EmailConfirmed(ctx context.Context, userID string) (bool, error)
}
