package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharma-guard/pharmaguard/internal/database"
	"github.com/pharma-guard/pharmaguard/internal/domain"
)

// Driver names accepted in archive.driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Open builds the store selected by the configuration.
func Open(ctx context.Context, cm domain.ConfigManager, logger *logrus.Logger) (Store, error) {
	cfg := cm.GetConfig()
	driver := strings.ToLower(cfg.Archive.Driver)
	entry := logger.WithField("driver", driver)

	switch driver {
	case DriverMemory, "":
		entry.WithField("max_reports", cfg.Archive.MaxReports).Info("Using in-memory report archive")
		return NewMemoryStore(cfg.Archive.MaxReports)

	case DriverSQLite:
		entry.WithField("path", cfg.Archive.SQLitePath).Info("Using SQLite report archive")
		return NewSQLiteStore(cfg.Archive.SQLitePath)

	case DriverPostgres:
		runner, err := database.NewMigrationRunner(cm.GetDatabaseURL(), logger)
		if err != nil {
			return nil, fmt.Errorf("preparing archive migrations: %w", err)
		}
		if err := runner.Up(ctx); err != nil {
			runner.Close()
			return nil, err
		}
		if err := runner.Close(); err != nil {
			entry.WithError(err).Warn("Failed to close migration runner")
		}

		conn, err := database.NewConnection(ctx, database.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgresStore(conn.SQL)
		if err != nil {
			conn.Close()
			return nil, err
		}
		store.ping = conn.Health
		store.onClose = conn.Close
		entry.Info("Using PostgreSQL report archive")
		return store, nil

	case DriverRedis:
		store, err := NewRedisStore(ctx, cm.GetRedisConnectionString(), cfg.Cache, cfg.Archive.TTL)
		if err != nil {
			return nil, err
		}
		entry.WithField("ttl", cfg.Archive.TTL.String()).Info("Using Redis report archive")
		return store, nil
	}

	return nil, fmt.Errorf("unknown archive driver: %s", cfg.Archive.Driver)
}
