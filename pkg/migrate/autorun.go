package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at boot when SHOPFRONT_APP_ENV=dev and
// the auto-migrate flag are both set. The SQL is postgres-only, so sqlite
// databases are left to the test schema helpers.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	switch {
	case !cfg.App.IsDev(), !cfg.FeatureFlags.AutoMigrate:
		return nil
	case cfg.DB.Driver == config.DriverSQLite:
		logg.Warn(ctx, "migrate.autorun_skipped_sqlite")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("autorun: %w", err)
	}
	ctx = logg.WithField(ctx, "dir", DefaultDir)
	if err := Run(ctx, sqlDB, cfg.DB.Driver, DefaultDir, "up"); err != nil {
		return fmt.Errorf("autorun goose up: %w", err)
	}
	logg.Info(ctx, "migrate.autorun_done")
	return nil
}
