package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/hometex/storefront/api/responses"
	"github.com/hometex/storefront/pkg/config"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is satisfied by every storage backend.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Hometex-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the configured storage backend answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, storage Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Hometex-Env", cfg.App.Env)
		if storage != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := storage.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "storage not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{
			"status":  "ready",
			"storage": cfg.Storage.NormalizedDriver(),
		})
	}
}
