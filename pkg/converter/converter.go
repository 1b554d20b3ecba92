// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// Dialect identifies the SQL flavour of a sink
type Dialect string

const (
	DialectSQLite    Dialect = "sqlite"
	DialectPostgres  Dialect = "postgres"
	DialectSnowflake Dialect = "snowflake"
)

// TypeConverter handles mapping and conversion of data types and values
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config   TypeConverterConfig
	location *time.Location
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Location applied to report times without an explicit offset
	DefaultTimezone string
	// Whether to treat empty strings as NULL
	EmptyStringAsNull bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		DefaultTimezone:   "UTC",
		EmptyStringAsNull: true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(config.DefaultTimezone)
	if err != nil || config.DefaultTimezone == "" {
		if config.DefaultTimezone != "" {
			logger.Warn("Unknown timezone, falling back to UTC",
				zap.String("timezone", config.DefaultTimezone),
				zap.Error(err))
		}
		loc = time.UTC
	}

	return &TypeConverter{
		logger:   logger,
		config:   config,
		location: loc,
	}
}

// MapColumnType converts a portable column type to the sink dialect
func (c *TypeConverter) MapColumnType(portable string, dialect Dialect) (string, error) {
	portable = strings.ToUpper(strings.TrimSpace(portable))

	switch dialect {
	case DialectSQLite:
		switch portable {
		case "TEXT":
			return "TEXT", nil
		case "INTEGER", "BIGINT":
			return "INTEGER", nil
		case "REAL":
			return "REAL", nil
		case "SERIAL":
			return "INTEGER PRIMARY KEY AUTOINCREMENT", nil
		}
	case DialectPostgres:
		switch portable {
		case "TEXT":
			return "TEXT", nil
		case "INTEGER":
			return "INTEGER", nil
		case "BIGINT":
			return "BIGINT", nil
		case "REAL":
			return "DOUBLE PRECISION", nil
		case "SERIAL":
			return "BIGSERIAL PRIMARY KEY", nil
		}
	case DialectSnowflake:
		switch portable {
		case "TEXT":
			return "VARCHAR", nil
		case "INTEGER":
			return "NUMBER(10,0)", nil
		case "BIGINT":
			return "NUMBER(19,0)", nil
		case "REAL":
			return "FLOAT", nil
		case "SERIAL":
			return "NUMBER AUTOINCREMENT PRIMARY KEY", nil
		}
	default:
		return "", fmt.Errorf("unknown dialect: %s", dialect)
	}

	// Log unexpected type and return error
	c.logger.Warn("Unknown column type encountered",
		zap.String("type", portable),
		zap.String("dialect", string(dialect)))
	return "TEXT", fmt.Errorf("unknown column type: %s (mapped to TEXT as fallback)", portable)
}

// GenerateColumnDefinitions creates column definitions for the sink dialect
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata, dialect Dialect) ([]string, error) {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		sqlType, err := c.MapColumnType(col.DataType, dialect)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}

		def := fmt.Sprintf("%s %s", QuoteIdentifier(col.Name), sqlType)
		if !strings.EqualFold(col.DataType, "SERIAL") && !col.Nullable {
			def += " NOT NULL"
		}

		definitions = append(definitions, def)
	}

	return definitions, nil
}

// QuoteIdentifier properly quotes and escapes an identifier
func QuoteIdentifier(name string) string {
	// Handle case sensitivity by quoting lowercase table/column names
	return fmt.Sprintf("\"%s\"", strings.ToLower(strings.ReplaceAll(name, "\"", "\"\"")))
}
