package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/omslab/ordercore/internal/config"
	"github.com/omslab/ordercore/internal/domain"
	healthcheck "github.com/omslab/ordercore/internal/health"
	"github.com/omslab/ordercore/internal/storage/memory"
	"github.com/omslab/ordercore/internal/storage/postgres"
)

type storageDependencies struct {
	repo           domain.OrderRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

// initStorage поднимает хранилище заказов выбранного драйвера.
func initStorage(ctx context.Context, cfg config.Config, logger *log.Entry) (storageDependencies, error) {
	switch cfg.Storage.Driver {
	case "", config.DriverMemory:
		logger.Info("using in-memory order storage")
		return storageDependencies{
			repo: memory.NewOrderRepository(),
			storageChecker: healthcheck.NewSimpleChecker("storage", func(context.Context) error {
				return nil
			}),
		}, nil
	case config.DriverPostgres:
		if cfg.Storage.PostgresDSN == "" {
			return storageDependencies{}, fmt.Errorf("postgres dsn is required for postgres storage")
		}

		store, err := postgres.Open(ctx, cfg.Storage.PostgresDSN,
			postgres.WithOpTimeout(cfg.Order.Timeout),
			postgres.WithPoolSize(cfg.Storage.MaxOpenConns, cfg.Storage.MaxIdleConns),
		)
		if err != nil {
			return storageDependencies{}, err
		}
		if cfg.Storage.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return storageDependencies{}, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		logger.Info("using postgres order storage")
		return storageDependencies{
			repo:           postgres.NewOrderRepository(store),
			storageChecker: healthcheck.NewPingChecker("storage", store),
			closeFn:        store.Close,
		}, nil
	default:
		return storageDependencies{}, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}
