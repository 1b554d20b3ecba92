// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSink creates the connector for the configured sink driver
func (f *ConnectorFactory) CreateSink(ctx context.Context) (DatabaseConnector, error) {
	switch f.cfg.SinkDriver {
	case config.DriverSQLite:
		conn, err := f.CreateSQLiteConnector(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case config.DriverPostgres, config.DriverPgx:
		conn, err := f.CreatePostgresConnector(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case config.DriverSnowflake:
		conn, err := f.CreateSnowflakeConnector(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unsupported sink driver: %s", f.cfg.SinkDriver)
	}
}

// CreateSQLiteConnector creates a new SQLite connector
func (f *ConnectorFactory) CreateSQLiteConnector(ctx context.Context) (*SQLiteConnector, error) {
	f.logger.Info("Creating SQLite connector")

	if f.cfg.SQLite == nil {
		return nil, fmt.Errorf("failed to create SQLite connector: missing configuration")
	}
	connector, err := NewSQLiteConnector(ctx, f.cfg.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite connector: %w", err)
	}

	return connector, nil
}

// CreateSnowflakeConnector creates a new Snowflake connector
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	f.logger.Info("Creating Snowflake connector")

	if f.cfg.Snowflake == nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: missing configuration")
	}
	connector, err := NewSnowflakeConnector(ctx, f.cfg.Snowflake)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}

	return connector, nil
}

// CreatePostgresConnector creates a new PostgreSQL connector using the
// configured driver
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating PostgreSQL connector", zap.String("driver", f.cfg.SinkDriver))

	if f.cfg.Postgres == nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: missing configuration")
	}
	driver := f.cfg.SinkDriver
	if driver != config.DriverPostgres {
		driver = config.DriverPgx
	}
	connector, err := NewPostgresConnector(ctx, f.cfg.Postgres, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}

	return connector, nil
}
