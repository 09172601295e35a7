package persistence

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/healthfirst-provider/config"
	"github.com/oksasatya/healthfirst-provider/internal/domain/repository"
	mongoinfra "github.com/oksasatya/healthfirst-provider/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/healthfirst-provider/internal/infrastructure/postgres"
	sqliteinfra "github.com/oksasatya/healthfirst-provider/internal/infrastructure/sqlite"
)

// Open resolves the configured backend once. When a server backend is
// unreachable it logs a warning and opens the SQLite fallback instead.
// An unknown DATABASE_TYPE is an error.
func Open(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (repository.ProviderRepository, error) {
	var (
		repo repository.ProviderRepository
		err  error
	)
	switch backend := cfg.Backend(); backend {
	case config.DatabasePostgres:
		repo, err = openPostgres(ctx, cfg, logger)
	case config.DatabaseMongo:
		repo, err = openMongo(ctx, cfg)
	case config.DatabaseSQLite:
		return openSQLite(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_TYPE %q", backend)
	}
	if err == nil {
		logger.WithField("backend", repo.Backend()).Info("persistence backend ready")
		return repo, nil
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"backend":  cfg.Backend(),
		"fallback": config.DatabaseSQLite,
		"path":     cfg.SQLitePath,
	}).Warn("configured backend unavailable, using sqlite fallback")
	return openSQLite(ctx, cfg, logger)
}

func openPostgres(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (repository.ProviderRepository, error) {
	dsn := cfg.PostgresDSN()
	pool, err := pginfra.NewPool(ctx, dsn, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pginfra.RunMigrations(dsn, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return pginfra.NewProviderRepository(pool), nil
}

func openMongo(ctx context.Context, cfg *config.Config) (repository.ProviderRepository, error) {
	client, err := mongoinfra.NewClient(ctx, cfg.MongoURL)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	repo, err := mongoinfra.NewProviderRepository(ctx, client, cfg.MongoDatabase)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (repository.ProviderRepository, error) {
	repo, err := sqliteinfra.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
	}
	logger.WithFields(logrus.Fields{"backend": repo.Backend(), "path": cfg.SQLitePath}).Info("persistence backend ready")
	return repo, nil
}
