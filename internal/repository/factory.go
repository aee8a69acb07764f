package repository

import (
	"context"
	"fmt"
	"time"

	"worldforge/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	connectMaxRetries = 10
	connectRetryDelay = 3 * time.Second
)

// Store bundles the configured world repository with the connections it
// owns. Redis is non-nil when the store or the advancement latch uses it.
type Store struct {
	Worlds WorldRepository
	Redis  redis.UniversalClient

	closers []func()
}

// Close releases every connection opened by Open.
func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Open builds the repository selected by cfg.WorldStore.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	store := &Store{}

	if cfg.WorldStore == config.StoreRedis || cfg.UseRedisLatch {
		client, err := setupRedis(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		store.Redis = client
		store.closers = append(store.closers, func() { _ = client.Close() })
	}

	switch cfg.WorldStore {
	case config.StoreMemory:
		store.Worlds = NewMemoryWorldRepository(logger)
	case config.StoreSQLite:
		repo, err := OpenSQLiteWorldRepository(cfg.SQLitePath, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		store.Worlds = repo
		store.closers = append(store.closers, func() { _ = repo.Close() })
	case config.StorePostgres:
		pool, err := setupPostgres(ctx, cfg, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		store.closers = append(store.closers, pool.Close)
		if err := ApplyMigrations(cfg.GetDSN(), logger); err != nil {
			store.Close()
			return nil, err
		}
		store.Worlds = NewPgWorldRepository(pool, logger)
	case config.StoreRedis:
		repo, err := NewRedisWorldRepository(store.Redis, cfg.RedisKeyPrefix, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		store.Worlds = repo
	default:
		store.Close()
		return nil, fmt.Errorf("unsupported world store %q", cfg.WorldStore)
	}

	logger.Info("World store ready", zap.String("store", cfg.WorldStore))
	return store, nil
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	var lastErr error
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		if err == nil {
			err = pool.Ping(connectCtx)
			if err != nil {
				pool.Close()
			}
		}
		connectCancel()

		if err == nil {
			logger.Info("Connected to PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}
		lastErr = err
		logger.Warn("Postgres connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", connectMaxRetries),
			zap.Error(err),
		)
		if !sleepCtx(ctx, connectRetryDelay) {
			break
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", connectMaxRetries, lastErr)
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	var lastErr error
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		client := redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			logger.Info("Connected to Redis", zap.String("address", opts.Addr), zap.Int("attempt", attempt))
			return client, nil
		}
		_ = client.Close()
		lastErr = err
		logger.Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", connectMaxRetries),
			zap.Error(err),
		)
		if !sleepCtx(ctx, connectRetryDelay) {
			break
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", connectMaxRetries, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
