package migrate

import (
	"context"
	"fmt"

	"github.com/hometex/storefront/pkg/config"
	"github.com/hometex/storefront/pkg/db"
	"github.com/hometex/storefront/pkg/logger"
)

// MaybeRun brings storage_entries up to date at startup. It does nothing
// unless a SQL storage driver is configured with auto-migrate on.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.Storage.IsSQL() || !cfg.DB.AutoMigrate {
		return nil
	}
	if client == nil {
		return fmt.Errorf("auto-migrate needs a database client")
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	dialect := client.Dialect()
	ctx = logg.WithFields(ctx, map[string]any{"driver": cfg.Storage.NormalizedDriver(), "dialect": dialect})

	before, err := CurrentVersion(ctx, sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if err := Run(ctx, sqlDB, dialect, "up"); err != nil {
		return fmt.Errorf("applying storage migrations: %w", err)
	}
	after, err := CurrentVersion(ctx, sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"from_version": before, "to_version": after})
	if before == after {
		logg.Debug(ctx, "storage schema already current")
		return nil
	}
	logg.Info(ctx, "storage schema migrated")
	return nil
}
