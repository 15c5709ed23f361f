package middleware

import (
	"context"
	"net/http"

	"github.com/hometex/storefront/api/responses"
	"github.com/hometex/storefront/internal/session"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/logger"
)

const deviceIDHeader = "X-Device-Id"

type sessionSource interface {
	Get(ctx context.Context, deviceID string) (*session.Bundle, error)
}

// Device resolves the X-Device-Id header to its hydrated session bundle.
func Device(sessions sessionSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			deviceID := r.Header.Get(deviceIDHeader)
			if deviceID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Device-Id header is required"))
				return
			}

			bundle, err := sessions.Get(ctx, deviceID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			if logg != nil {
				ctx = logg.WithDeviceID(ctx, bundle.DeviceID)
				if identity := bundle.Auth.Current(); identity != nil {
					ctx = logg.WithUserID(ctx, identity.ID)
				}
			}
			ctx = WithBundle(ctx, bundle)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
