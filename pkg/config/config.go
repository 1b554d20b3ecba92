// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Sink drivers
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverPgx       = "pgx"
	DriverSnowflake = "snowflake"
)

// Config represents the application configuration
type Config struct {
	// Sink database
	SinkDriver string
	SQLite     *SQLiteConfig
	Postgres   *PostgresConfig
	Snowflake  *SnowflakeConfig

	// Pipeline settings
	PipelineVariant string
	LabelTablePath  string
	DefaultTimezone string
	StatusLabels    []string // nil keeps the store defaults
	AuditCleaning   bool

	// Storage settings
	InsertBatchSize int

	// HTTP server
	HTTPAddr        string
	MaxUploadMB     int
	ShutdownTimeout time.Duration

	// Parameter cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ParamCacheTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Default values
		SinkDriver:      strings.ToLower(getEnv("SINK_DRIVER", DriverSQLite)),
		PipelineVariant: strings.ToLower(getEnv("PIPELINE_VARIANT", "extended")),
		LabelTablePath:  getEnv("LABEL_TABLE_PATH", ""),
		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "UTC"),
		StatusLabels:    getEnvAsStringSlice("STATUS_LABELS", nil),
		AuditCleaning:   getEnvAsBool("AUDIT_CLEANING", false),
		InsertBatchSize: getEnvAsInt("INSERT_BATCH_SIZE", 500),
		HTTPAddr:        getEnv("HTTP_ADDR", "0.0.0.0:3012"),
		MaxUploadMB:     getEnvAsInt("MAX_UPLOAD_MB", 32),
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		ParamCacheTTL:   time.Duration(getEnvAsInt("PARAM_CACHE_TTL_SECONDS", 300)) * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "json")),
		SQLite:          LoadSQLiteConfig(),
	}

	// Load the configuration of the selected sink
	switch cfg.SinkDriver {
	case DriverPostgres, DriverPgx:
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
		}
		cfg.Postgres = pgConfig
	case DriverSnowflake:
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
		}
		cfg.Snowflake = snowConfig
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.SinkDriver {
	case DriverSQLite:
		if c.SQLite == nil || c.SQLite.Path == "" {
			return errors.New("sqlite configuration is required")
		}
	case DriverPostgres, DriverPgx:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required")
		}
	case DriverSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
	default:
		return fmt.Errorf("unsupported sink driver: %s", c.SinkDriver)
	}

	if c.PipelineVariant != "basic" && c.PipelineVariant != "extended" {
		return fmt.Errorf("unsupported pipeline variant: %s", c.PipelineVariant)
	}

	if c.InsertBatchSize <= 0 {
		return errors.New("insert batch size must be positive")
	}

	if c.MaxUploadMB <= 0 {
		return errors.New("max upload size must be positive")
	}

	if c.ParamCacheTTL < 0 {
		return errors.New("param cache ttl cannot be negative")
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}

	return nil
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// Helper function to parse string slice from environment
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		v = strings.Trim(strings.TrimSpace(v), `"`)
		if v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
