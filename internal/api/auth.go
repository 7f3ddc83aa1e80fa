package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/zellijstore/commerce/internal/domain/identity"
)

// UserSource resolves an API key digest to the account that owns it.
type UserSource interface {
	FindByAPIKeyHash(ctx context.Context, hash string) (*identity.User, error)
}

type userKey struct{}

// UserFromContext returns the authenticated user placed by RequireUser.
func UserFromContext(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(userKey{}).(identity.User)
	return u, ok
}

// Authenticator validates API keys. Keys are never stored: the database holds
// the hex HMAC-SHA256 of the key under a server-side pepper, so a leaked
// table cannot be replayed against the API.
type Authenticator struct {
	users  UserSource
	pepper []byte
}

// NewAuthenticator creates an Authenticator over the given user source.
func NewAuthenticator(users UserSource, pepper []byte) *Authenticator {
	return &Authenticator{users: users, pepper: pepper}
}

// HashAPIKey computes the stored digest for an API key under pepper. The
// seeder uses it to write key hashes without an Authenticator.
func HashAPIKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// HashKey computes the stored digest for an API key.
func (a *Authenticator) HashKey(key string) string {
	return HashAPIKey(a.pepper, key)
}

func (a *Authenticator) authenticate(r *http.Request) (identity.User, bool) {
	key := r.Header.Get("X-API-Key")
	if key == "" {
		key = r.Header.Get("api_key")
	}
	if key == "" {
		return identity.User{}, false
	}

	u, err := a.users.FindByAPIKeyHash(r.Context(), a.HashKey(key))
	if err != nil {
		return identity.User{}, false
	}
	return *u, true
}

// RequireUser wraps next so it only runs with an authenticated user in
// context; anything else gets 401.
func (a *Authenticator) RequireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := a.authenticate(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

// RequireAdmin is RequireUser restricted to administrator accounts.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.Handler {
	return a.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		if !u.Admin {
			respondError(w, http.StatusForbidden, "administrator access required")
			return
		}
		next(w, r)
	})
}
