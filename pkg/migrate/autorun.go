package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/db"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
)

// autoMigrateEnabled gates startup migrations to dev with the feature flag on.
// Every other environment runs cmd/migrate explicitly.
func autoMigrateEnabled(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev brings the schema up to date from the embedded files when
// autoMigrateEnabled allows it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !autoMigrateEnabled(cfg) {
		return nil
	}
	migrations, err := Source("")
	if err != nil {
		return err
	}
	conn, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	runner, err := NewRunner(conn, migrations, logg)
	if err != nil {
		return err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "env", cfg.App.Env), "migrate.auto_start")
	}
	return runner.Up(ctx)
}
