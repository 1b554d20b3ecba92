// Package store persists decoded sensor readings and answers the read queries
// of the HTTP surface.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/converter"
	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// SensorTypeAll selects every non-status sensor type in a query
const SensorTypeAll = "all"

// Options tunes a Store
type Options struct {
	BatchSize    int      // rows per INSERT statement
	StatusLabels []string // nil uses StatusLabels
}

// PrepareStats counts the rows handed to PrepareRows and those kept
type PrepareStats struct {
	Prepared int
	Kept     int
	Skipped  int
}

// QueryFilter selects readings for the /get endpoint
type QueryFilter struct {
	SensorType string
	AssetName  string
	Project    string
	Start      int64
	End        int64
}

// Store reads and writes sensor_data
type Store struct {
	db           *sqlx.DB
	dialect      converter.Dialect
	converter    *converter.TypeConverter
	logger       *zap.Logger
	batchSize    int
	statusLabels []string
}

// New wraps an open database connection
func New(db *sqlx.DB, dialect converter.Dialect, conv *converter.TypeConverter, opts Options, logger *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if conv == nil {
		conv = converter.NewTypeConverter(logger)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	labels := opts.StatusLabels
	if labels == nil {
		labels = StatusLabels
	}

	return &Store{
		db:           db,
		dialect:      dialect,
		converter:    conv,
		logger:       logger,
		batchSize:    opts.BatchSize,
		statusLabels: excludedLabels(labels),
	}, nil
}

// DB returns the underlying connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Dialect returns the SQL flavour of the store
func (s *Store) Dialect() converter.Dialect {
	return s.dialect
}

// EnsureSchema creates sensor_data and its timestamp index if missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	defs, err := s.converter.GenerateColumnDefinitions(sensorMetadata(), s.dialect)
	if err != nil {
		return fmt.Errorf("failed to generate column definitions: %w", err)
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		converter.QuoteIdentifier(SensorTable), strings.Join(defs, ",\n\t"))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", SensorTable, err)
	}

	// Snowflake has no secondary indexes
	if s.dialect != converter.DialectSnowflake {
		indexSQL := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s, %s)",
			converter.QuoteIdentifier("idx_sensor_data_type_ts"),
			converter.QuoteIdentifier(SensorTable),
			converter.QuoteIdentifier("sensor_type"),
			converter.QuoteIdentifier("timestamp"))
		if _, err := s.db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	s.logger.Info("Ensured sensor_data table exists", zap.String("dialect", string(s.dialect)))
	return nil
}

// PrepareRows maps a decoded table onto sensor_data rows. Rows with a null
// sensor_type, value or timestamp are dropped. broadened names the wide
// columns to fold into the broadened JSON column.
func (s *Store) PrepareRows(table *model.Table, broadened []string) ([]Reading, PrepareStats) {
	stats := PrepareStats{Prepared: table.Len()}

	sources := make(map[string]string, len(metadataColumns))
	for _, mc := range metadataColumns {
		if col, ok := table.FindColumn(mc.Candidates...); ok {
			sources[mc.Column] = col
		}
	}

	readings := make([]Reading, 0, table.Len())
	for _, row := range table.Rows {
		sensorType := s.converter.ToText(row[model.ColumnSensorType])
		value, hasValue := s.converter.ToFloat(row[model.ColumnValue])
		timestamp, hasTimestamp := toInt64(row[model.ColumnTimestamp])
		if sensorType == "" || !hasValue || !hasTimestamp {
			stats.Skipped++
			continue
		}

		r := Reading{
			Timestamp:  timestamp,
			SensorType: sensorType,
			Value:      value,
		}
		for column, src := range sources {
			r.setMetadata(column, s.nullableText(row[src]))
		}
		r.Operation = s.nullableText(row[model.ColumnOperation])
		if raw, ok := s.converter.ToFloat(row[model.ColumnValueRaw]); ok {
			r.ValueRaw = &raw
		}
		r.Broadened = s.broadenedJSON(row, broadened)

		readings = append(readings, r)
	}
	stats.Kept = len(readings)

	return readings, stats
}

// InsertReadings writes readings under a batch id using chunked multi-row
// inserts inside one transaction
func (s *Store) InsertReadings(ctx context.Context, batchID string, readings []Reading) (inserted int64, err error) {
	if len(readings) == 0 {
		return 0, nil
	}

	columns := sensorMetadata().ColumnNames(true)
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = converter.QuoteIdentifier(col)
	}
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// Process in batches
	for i := 0; i < len(readings); i += s.batchSize {
		end := i + s.batchSize
		if end > len(readings) {
			end = len(readings)
		}
		currentBatch := readings[i:end]

		placeholders := make([]string, len(currentBatch))
		args := make([]interface{}, 0, len(currentBatch)*len(columns))
		for j := range currentBatch {
			currentBatch[j].BatchID = batchID
			placeholders[j] = rowPlaceholder
			args = append(args, currentBatch[j].args()...)
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			converter.QuoteIdentifier(SensorTable),
			strings.Join(quoted, ", "),
			strings.Join(placeholders, ", "))

		result, execErr := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if execErr != nil {
			return 0, fmt.Errorf("batch insert failed at row %d: %w", i, execErr)
		}

		rowsAffected, raErr := result.RowsAffected()
		if raErr != nil {
			s.logger.Warn("Couldn't get rows affected", zap.Error(raErr))
			rowsAffected = int64(len(currentBatch))
		}
		inserted += rowsAffected
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Inserted readings",
		zap.String("batch_id", batchID),
		zap.Int64("rows", inserted))
	return inserted, nil
}

// queryColumns are returned by Query
var queryColumns = []string{
	"data_type", "asset_number", "asset_name", "system", "install_location",
	"device_type", "device_id", "project", "timestamp", "sensor_type", "value",
	"operation", "value_raw",
}

// Query returns distinct readings in [Start, End] ordered by timestamp.
// SensorTypeAll returns every non-status sensor; otherwise the sensor type
// must match exactly and asset name and project filter when set.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]Reading, error) {
	quoted := make([]string, len(queryColumns))
	for i, col := range queryColumns {
		quoted[i] = converter.QuoteIdentifier(col)
	}

	var (
		where []string
		args  []interface{}
	)
	if strings.EqualFold(f.SensorType, SensorTypeAll) {
		if clause, clauseArgs := s.statusClause(); clause != "" {
			where = append(where, clause)
			args = append(args, clauseArgs...)
		}
	} else {
		where = append(where, converter.QuoteIdentifier("sensor_type")+" = ?")
		args = append(args, f.SensorType)
		if f.AssetName != "" && !strings.EqualFold(f.AssetName, SensorTypeAll) {
			where = append(where, converter.QuoteIdentifier("asset_name")+" = ?")
			args = append(args, f.AssetName)
		}
		if f.Project != "" && !strings.EqualFold(f.Project, SensorTypeAll) {
			where = append(where, converter.QuoteIdentifier("project")+" = ?")
			args = append(args, f.Project)
		}
	}
	where = append(where, converter.QuoteIdentifier("timestamp")+" BETWEEN ? AND ?")
	args = append(args, f.Start, f.End)

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s ORDER BY %s ASC",
		strings.Join(quoted, ", "),
		converter.QuoteIdentifier(SensorTable),
		strings.Join(where, " AND "),
		converter.QuoteIdentifier("timestamp"))

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to expand query: %w", err)
	}

	readings := []Reading{}
	if err := s.db.SelectContext(ctx, &readings, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	return readings, nil
}

// Params returns the distinct metadata values of non-status readings
func (s *Store) Params(ctx context.Context) (*Params, error) {
	columns := []string{
		"data_type", "asset_number", "asset_name", "system", "install_location",
		"device_type", "device_id", "project", "sensor_type",
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = converter.QuoteIdentifier(col)
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s",
		strings.Join(quoted, ", "), converter.QuoteIdentifier(SensorTable))
	var args []interface{}
	if clause, clauseArgs := s.statusClause(); clause != "" {
		query += " WHERE " + clause
		args = clauseArgs
	}
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to expand query: %w", err)
	}

	var rows []Reading
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query params: %w", err)
	}

	sets := make([]map[string]struct{}, len(columns))
	for i := range sets {
		sets[i] = make(map[string]struct{})
	}
	for _, r := range rows {
		values := []*string{
			r.DataType, r.AssetNumber, r.AssetName, r.System, r.InstallLocation,
			r.DeviceType, r.DeviceID, r.Project, &r.SensorType,
		}
		for i, v := range values {
			if v != nil {
				sets[i][*v] = struct{}{}
			}
		}
	}

	return &Params{
		DataType:        sortedKeys(sets[0]),
		AssetNumber:     sortedKeys(sets[1]),
		AssetName:       sortedKeys(sets[2]),
		System:          sortedKeys(sets[3]),
		InstallLocation: sortedKeys(sets[4]),
		DeviceType:      sortedKeys(sets[5]),
		DeviceID:        sortedKeys(sets[6]),
		Project:         sortedKeys(sets[7]),
		SensorType:      sortedKeys(sets[8]),
	}, nil
}

// CountBatch returns the number of rows stored under a batch id
func (s *Store) CountBatch(ctx context.Context, batchID string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?",
		converter.QuoteIdentifier(SensorTable), converter.QuoteIdentifier("batch_id"))

	var count int64
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(query), batchID); err != nil {
		return 0, fmt.Errorf("failed to count batch %s: %w", batchID, err)
	}
	return count, nil
}

// statusClause excludes status labels case-insensitively. It is empty when
// no labels are configured.
func (s *Store) statusClause() (string, []interface{}) {
	if len(s.statusLabels) == 0 {
		return "", nil
	}
	return fmt.Sprintf("LOWER(%s) NOT IN (?)", converter.QuoteIdentifier("sensor_type")),
		[]interface{}{s.statusLabels}
}

func (s *Store) nullableText(v interface{}) *string {
	if converter.IsNull(v) {
		return nil
	}
	text := s.converter.ToText(v)
	if text == "" {
		return nil
	}
	return &text
}

// broadenedJSON encodes the non-null wide columns of a row
func (s *Store) broadenedJSON(row model.Row, columns []string) *string {
	values := make(map[string]interface{}, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok && !converter.IsNull(v) {
			values[col] = v
		}
	}
	if len(values) == 0 {
		return nil
	}

	encoded, err := s.converter.ToJSON(values)
	if err != nil {
		s.logger.Debug("Failed to encode broadened columns", zap.Error(err))
		return nil
	}
	text := encoded.(string)
	return &text
}

// excludedLabels lowercases status labels and adds their broadened column
// spelling so both pipeline variants are filtered
func excludedLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels)*2)
	out := make([]string, 0, len(labels)*2)
	for _, l := range labels {
		lower := strings.ToLower(strings.TrimSpace(l))
		folded := strings.NewReplacer(" ", "_", "-", "_").Replace(lower)
		for _, v := range []string{lower, folded} {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	return out
}

func toInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		if math.IsNaN(t) {
			return 0, false
		}
		return int64(t), true
	default:
		return 0, false
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
