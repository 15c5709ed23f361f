package middleware

import (
	"context"

	"github.com/hometex/storefront/internal/session"
)

type contextKey string

const ctxBundle contextKey = "device_bundle"

// BundleFromContext returns the device session attached by Device, or nil.
func BundleFromContext(ctx context.Context) *session.Bundle {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxBundle).(*session.Bundle); ok {
		return v
	}
	return nil
}

// WithBundle injects the device session into the context.
func WithBundle(ctx context.Context, bundle *session.Bundle) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBundle, bundle)
}
