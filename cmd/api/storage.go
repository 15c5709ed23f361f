package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/hometex/storefront/pkg/config"
	"github.com/hometex/storefront/pkg/db"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/migrate"
	"github.com/hometex/storefront/pkg/redis"
	"github.com/hometex/storefront/pkg/storage"
)

type rateLimiter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// storageBackend is the key-value provider selected by HOMETEX_STORAGE_DRIVER
// plus the counter used for auth rate limits.
type storageBackend struct {
	provider storage.Provider
	limiter  rateLimiter
	// sweeper is set when counters live in process memory.
	sweeper interface{ Sweep() int }
	closers []func() error
}

func (b *storageBackend) Close() error {
	var errs error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, b.closers[i]())
	}
	return errs
}

func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*storageBackend, error) {
	counter := storage.NewWindowCounter(nil)
	backend := &storageBackend{limiter: counter, sweeper: counter}

	switch driver := cfg.Storage.NormalizedDriver(); driver {
	case config.StorageDriverMemory:
		logg.Warn(ctx, "using in-memory storage; device state is lost on restart")
		backend.provider = storage.NewMemory()

	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, cfg.Storage.Namespace, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		backend.provider = client
		backend.limiter = client
		backend.sweeper = nil
		backend.closers = append(backend.closers, client.Close)

	case config.StorageDriverPostgres, config.StorageDriverSQLite:
		client, err := db.New(ctx, driver, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		backend.closers = append(backend.closers, client.Close)
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(fmt.Errorf("auto-migrate: %w", err), backend.Close())
		}
		backend.provider = db.NewKVProvider(client)

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
	return backend, nil
}
