package migrate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jhoicas/stock-transfer-api/pkg/config"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
)

// MaybeRun aplica las migraciones pendientes al arrancar si DB_AUTO_MIGRATE está activo.
func MaybeRun(ctx context.Context, cfg config.DBConfig, log *logger.Logger, pool *pgxpool.Pool) error {
	if !cfg.AutoMigrate {
		return nil
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	log.Info().Str("dir", DefaultDir).Msg("aplicando migraciones (auto-migrate)")
	if err := Run(ctx, db, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	log.Info().Msg("migraciones aplicadas")
	return nil
}
