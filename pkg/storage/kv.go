// Package storage defines the synchronous key-value contract that stands in
// for browser local storage, plus an in-memory backend and a JSON persister.
package storage

import (
	"context"
	"errors"
)

// Keys used by the client-state stores. The names are shared with the web
// storefront and must not change.
const (
	KeyUser      = "hometex-user"
	KeyAuthToken = "hometex-auth-token"
	KeyCart      = "hometex-cart"
	KeyWishlist  = "hometex-wishlist"
	KeyOrders    = "hometex-orders"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// KV is a per-origin key-value space with no expiry.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Provider hands out one isolated KV per device.
type Provider interface {
	ForDevice(deviceID string) KV
	Ping(ctx context.Context) error
}
