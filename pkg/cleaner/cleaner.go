// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/calibration"
	"github.com/David-Botos/sensor-ingress/pkg/content"
	"github.com/David-Botos/sensor-ingress/pkg/converter"
	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// AuditTable is the tracking table cleaning operations are written to
const AuditTable = "cleaned_on_ingress"

// Config selects the decoding stages applied while expanding rows
type Config struct {
	Canonicalizer content.Canonicalizer // Required
	Calibration   *calibration.Table    // nil disables calibration
	Decoder       *calibration.Decoder  // nil disables operation decoding and value_raw
}

// ExpandResult is the long-format output of ExpandRows
type ExpandResult struct {
	Readings   []model.LongReading
	Operations []model.CleaningOperation
	Stats      ExpandStats
}

// ExpandStats counts what happened to the content fields of a batch
type ExpandStats struct {
	Rows             int
	Entries          int
	Readings         int
	DroppedEntries   int
	SkippedFragments int
	Calibrated       int
}

// DataCleaner expands content fields into long-format readings and tracks the
// cleaning operations applied along the way
type DataCleaner struct {
	cfg       Config
	converter *converter.TypeConverter
	logger    *zap.Logger
	db        *sqlx.DB
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(cfg Config, conv *converter.TypeConverter, logger *zap.Logger) (*DataCleaner, error) {
	if cfg.Canonicalizer == nil {
		return nil, errors.New("canonicalizer cannot be nil")
	}
	if conv == nil {
		return nil, errors.New("type converter cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &DataCleaner{
		cfg:       cfg,
		converter: conv,
		logger:    logger,
	}, nil
}

// EnableAudit attaches a database for recording cleaning operations and
// ensures the tracking table exists
func (c *DataCleaner) EnableAudit(ctx context.Context, db *sqlx.DB, dialect converter.Dialect) error {
	if db == nil {
		return errors.New("database connection cannot be nil")
	}
	c.db = db

	if err := c.setupCleaningTable(ctx, dialect); err != nil {
		return fmt.Errorf("failed to setup cleaning table: %w", err)
	}
	return nil
}

// setupCleaningTable ensures the cleaned_on_ingress tracking table exists
func (c *DataCleaner) setupCleaningTable(ctx context.Context, dialect converter.Dialect) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	defs, err := c.converter.GenerateColumnDefinitions(auditMetadata(), dialect)
	if err != nil {
		return err
	}

	createTableSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		converter.QuoteIdentifier(AuditTable), strings.Join(defs, ",\n\t"))
	if _, err := c.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	c.logger.Info("Ensured cleaned_on_ingress table exists")
	return nil
}

// ExpandRows turns every row's content field into long-format readings.
// Output follows row order, then content order within a row.
func (c *DataCleaner) ExpandRows(table *model.Table, batchID string) (*ExpandResult, error) {
	if table == nil {
		return nil, errors.New("table cannot be nil")
	}

	contentCol, ok := table.FindColumn(model.ColumnContent)
	if !ok {
		return nil, &model.MissingColumnError{Column: model.ColumnContent, Found: table.Columns}
	}
	reportCol, hasReportTime := table.FindColumn(model.ColumnReportTime)
	assetCol, hasAsset := table.FindColumn(model.ColumnAssetName)

	result := &ExpandResult{}
	result.Stats.Rows = len(table.Rows)

	for idx, row := range table.Rows {
		var reportTime interface{}
		if hasReportTime {
			reportTime = row[reportCol]
		}
		var asset string
		if hasAsset {
			asset = c.converter.ToText(row[assetCol])
		}

		parsed := content.Parse(c.converter.ToText(row[contentCol]))
		if parsed.Skipped > 0 {
			result.Stats.SkippedFragments += parsed.Skipped
			result.Operations = append(result.Operations,
				newSkipFragmentOperation(batchID, idx, parsed.Skipped))
		}

		for _, entry := range parsed.Entries {
			result.Stats.Entries++
			label := c.cfg.Canonicalizer.Label(entry.Key)

			if entry.Value == nil {
				result.Stats.DroppedEntries++
				result.Operations = append(result.Operations,
					newDropOperation(batchID, idx, label))
				continue
			}

			raw := *entry.Value
			value := raw
			if c.cfg.Calibration != nil {
				if formula, ok := c.cfg.Calibration.Formula(asset, label); ok {
					value = formula.Apply(raw)
					result.Stats.Calibrated++
					result.Operations = append(result.Operations,
						newCalibrationOperation(batchID, idx, label, raw, value))
				}
			}

			reading := model.LongReading{
				RowIndex:    idx,
				ReportTime:  reportTime,
				ContentTime: parsed.ContentTime,
				SensorType:  label,
				Value:       value,
			}
			if c.cfg.Decoder != nil {
				rawCopy := raw
				reading.ValueRaw = &rawCopy
				reading.Operation = c.cfg.Decoder.Decode(asset, label, raw)
			}

			result.Readings = append(result.Readings, reading)
		}
	}

	result.Stats.Readings = len(result.Readings)

	c.logger.Debug("Expanded content fields",
		zap.String("batch_id", batchID),
		zap.Int("rows", result.Stats.Rows),
		zap.Int("readings", result.Stats.Readings),
		zap.Int("dropped_entries", result.Stats.DroppedEntries),
		zap.Int("skipped_fragments", result.Stats.SkippedFragments),
		zap.Int("calibrated", result.Stats.Calibrated))

	return result, nil
}

// RecordCleaningOperations batch inserts cleaning operations into tracking table.
// Without an audit database it is a no-op.
func (c *DataCleaner) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 || c.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Begin transaction
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	// Prepare statement
	columns := auditMetadata().ColumnNames(true)
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = converter.QuoteIdentifier(col)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		converter.QuoteIdentifier(AuditTable),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))
	stmt, err := tx.PreparexContext(ctx, c.db.Rebind(insertSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	cleanedAt := time.Now().UTC().Format(time.RFC3339)

	// Execute batch insert
	for _, op := range operations {
		_, err = stmt.ExecContext(ctx,
			op.BatchID,
			op.ColumnName,
			toNullableString(c.converter, op.OriginalValue),
			op.NewValue,
			op.RowIdentifier,
			op.CleaningOperation,
			op.CleaningReason,
			cleanedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}
