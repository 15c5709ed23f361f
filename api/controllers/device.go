package controllers

import (
	"context"
	"net/http"

	"github.com/hometex/storefront/api/middleware"
	"github.com/hometex/storefront/api/responses"
	"github.com/hometex/storefront/internal/session"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/types"
)

// deviceFunc runs under the device lock and returns the response payload.
type deviceFunc func(ctx context.Context, b *session.Bundle) (any, error)

// serveDevice runs fn against the request's device session and answers with
// the payload plus every notice the stores raised meanwhile.
func serveDevice(w http.ResponseWriter, r *http.Request, logg *logger.Logger, status int, fn deviceFunc) {
	ctx := r.Context()
	bundle := middleware.BundleFromContext(ctx)
	if bundle == nil {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "device session missing"))
		return
	}

	var (
		data    any
		notices []types.Notice
	)
	err := bundle.Run(ctx, func(ctx context.Context) error {
		var runErr error
		data, runErr = fn(ctx, bundle)
		notices = bundle.Feed.Drain()
		return runErr
	})
	if err != nil {
		responses.WriteError(ctx, logg, w, err, notices...)
		return
	}
	responses.WriteSuccessStatus(w, status, data, notices...)
}
