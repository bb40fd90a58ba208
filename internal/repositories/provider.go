package repositories

import (
	"context"
	"fmt"
	"log/slog"

	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/platform/config"
	"github.com/SscSPs/club_ledger/internal/repositories/database/boltdb"
	"github.com/SscSPs/club_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/club_ledger/internal/repositories/database/redisdb"
	"github.com/SscSPs/club_ledger/pkg/database"
)

// Open connects the storage driver selected in cfg and returns its repositories
// together with a function that releases the connection.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Info("Using PostgreSQL storage")
		return pgsql.NewRepositoryProvider(pool), func() { database.ClosePgxPool(pool) }, nil

	case config.DriverRedis:
		client, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Info("Using Redis storage", slog.String("addr", cfg.RedisAddr), slog.String("prefix", cfg.RedisKeyPrefix))
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Error("Error closing Redis client", slog.String("error", err.Error()))
			}
		}
		return redisdb.NewRepositoryProvider(client, cfg.RedisKeyPrefix), closeFn, nil

	case config.DriverBolt:
		db, err := database.OpenBolt(cfg.BoltPath)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		provider, err := boltdb.NewRepositoryProvider(db)
		if err != nil {
			_ = db.Close()
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Info("Using embedded bolt storage", slog.String("path", cfg.BoltPath))
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Error("Error closing bolt database", slog.String("error", err.Error()))
			}
		}
		return provider, closeFn, nil
	}
	return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
}
