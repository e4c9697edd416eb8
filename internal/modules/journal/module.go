package journal

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"options_bot/internal/modules/config"
	"options_bot/internal/modules/journal/service"
	"options_bot/pkg/db"
	"options_bot/pkg/logger"
)

// Module выбирает реализацию журнала: Postgres при заданном db_dsn,
// иначе память. Пул создаётся только когда он реально нужен.
func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config, lc fx.Lifecycle) (service.Store, error) {
				if cfg.DB == "" {
					logger.Info("journal: db_dsn is empty, using in-memory store")
					return service.NewMemory(), nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}
				if err = poolMaster.Ping(ctx); err != nil {
					return nil, err
				}

				txm := db.NewPgTxManager(poolMaster)
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						txm.Close()
						return nil
					},
				})
				return service.NewPg(ctx, txm)
			},
		),
	)
}
