package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/pkg/config"
)

const (
	defaultMaxConns        = 10
	defaultMinConns        = 2
	defaultMaxConnIdleTime = time.Minute

	connectTimeout = 5 * time.Second
	pingTimeout    = 2 * time.Second
)

// poolConfig parses the DSN and applies pool sizing from cfg, falling back to
// the package defaults for zero values.
func poolConfig(cfg config.DBConfig, logger *zap.Logger) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}

	poolCfg.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = defaultMinConns
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if poolCfg.MinConns > poolCfg.MaxConns {
		poolCfg.MinConns = poolCfg.MaxConns
	}
	poolCfg.MaxConnIdleTime = defaultMaxConnIdleTime
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	poolCfg.ConnConfig.Tracer = NewSlowQueryTracer(logger, cfg.SlowQueryThreshold)
	return poolCfg, nil
}

// NewConnection opens the pgx pool for cfg and pings the server.
func NewConnection(cfg config.DBConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg, logger)
	if err != nil {
		logger.Error("Invalid database config", zap.Error(err))
		return nil, err
	}

	logger.Info("Opening PostgreSQL pool",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.Name),
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Int32("min_conns", poolCfg.MinConns),
	)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("PostgreSQL connection failed", zap.Error(err))
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), pingTimeout)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.Error("PostgreSQL ping failed", zap.Error(err))
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	logger.Info("PostgreSQL pool ready")
	return pool, nil
}
