package db

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/pkg/config"
)

// RunMigrations applies every pending up migration found in dir of migrations.
func RunMigrations(cfg config.DBConfig, migrations fs.FS, dir string, logger *zap.Logger) error {
	src, err := iofs.New(migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	databaseURL := "pgx5://" + strings.TrimPrefix(cfg.DSN(), "postgres://")
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("No migrations applied yet")
	case err != nil:
		logger.Warn("Could not read current migration version", zap.Error(err))
	default:
		logger.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err = m.Version()
	if err != nil {
		return fmt.Errorf("failed to get final migration version: %w", err)
	}
	logger.Info("Database migrations completed", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
