// pkg/connector/sqlite.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/config"
	"github.com/David-Botos/sensor-ingress/pkg/converter"
)

// SQLiteConnector implements the DatabaseConnector interface for SQLite
type SQLiteConnector struct {
	sqlConnector
	cfg *config.SQLiteConfig
}

// NewSQLiteConnector opens (creating if needed) a SQLite database file
func NewSQLiteConnector(ctx context.Context, cfg *config.SQLiteConfig) (*SQLiteConnector, error) {
	logger := zap.L().Named("sqlite-connector")

	logger.Info("Opening SQLite database", zap.String("path", cfg.Path))

	db, err := sql.Open("sqlite3", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite connection: %w", err)
	}

	// SQLite allows a single writer
	ApplyConnectionSettings(db, cfg.MaxOpenConns, cfg.MaxOpenConns, 0, 0)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cfg.Path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			logger.Warn("Failed to enable WAL journal", zap.Error(err))
		}
	}

	connector := &SQLiteConnector{
		sqlConnector: sqlConnector{db: db, driverName: "sqlite3", logger: logger},
		cfg:          cfg,
	}

	LogConnectionStats(logger, cfg.Path, db)
	return connector, nil
}

// Dialect returns the SQLite dialect
func (c *SQLiteConnector) Dialect() converter.Dialect {
	return converter.DialectSQLite
}

// Validate verifies the SQLite database is readable and writable
func (c *SQLiteConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}
	c.logger.Info("Connected to SQLite", zap.String("version", version))

	if _, err := c.ExecWithTimeout(ctx, "CREATE TEMP TABLE IF NOT EXISTS _permission_check (test TEXT)", 5*time.Second); err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}
	if _, err := c.ExecWithTimeout(ctx, "DROP TABLE _permission_check", 5*time.Second); err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}

	return nil
}

// Close closes the database connection
func (c *SQLiteConnector) Close() error {
	c.logger.Info("Closing SQLite connection")
	LogConnectionStats(c.logger, c.cfg.Path, c.db)
	return c.db.Close()
}
