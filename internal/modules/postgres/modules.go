package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"quantum_bot/internal/modules/config"
	"quantum_bot/internal/store"
	"quantum_bot/pkg/db"
)

// Module provides the history store: Postgres-backed when a DSN is
// configured, in-memory otherwise (local runs, paper trading).
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (store.Store, error) {
				if cfg.DB == "" {
					return store.NewMemory(), nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return store.NewPg(db.NewPgTxManager(poolMaster)), nil
			},
		),
	)
}
