package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	"github.com/angelmondragon/scoreboard-manager/pkg/db"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

// MaybeRunDev applies the embedded migrations when running in dev with
// SCOREBOARD_AUTO_MIGRATE set. DDL runs on the elevated handle, which owns the schema.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.Elevated().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": "embedded"})
	logg.Info(ctx, "applying migrations")

	if err := Run(ctx, sqlDB, "", CommandUp); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logg.Info(ctx, "migrations applied")
	return nil
}
