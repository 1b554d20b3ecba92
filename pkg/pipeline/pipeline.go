// Package pipeline decodes a batch of controller export rows into a typed
// long-format time series and, in the extended variant, a wide per-timestamp
// record set.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/calibration"
	"github.com/David-Botos/sensor-ingress/pkg/cleaner"
	"github.com/David-Botos/sensor-ingress/pkg/content"
	"github.com/David-Botos/sensor-ingress/pkg/converter"
	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// Pipeline variants
const (
	VariantBasic    = "basic"
	VariantExtended = "extended"
)

// MissingColumnError is returned when the input lacks the content column.
// It is fatal to the whole batch.
type MissingColumnError = model.MissingColumnError

// Config selects the canonicalization strategy and the optional stages
type Config struct {
	Variant       string
	Canonicalizer content.Canonicalizer
	Calibration   *calibration.Table   // nil skips calibration
	Decoder       *calibration.Decoder // nil skips operation decoding and value_raw
	Pivot         bool                 // reshape to wide records after the join
}

// BasicConfig maps labels through the exact label table and applies no
// calibration, decoding or pivot
func BasicConfig(labels content.LabelTable) Config {
	return Config{
		Variant:       VariantBasic,
		Canonicalizer: content.NewExactMapCanonicalizer(labels),
	}
}

// ExtendedConfig keeps lowercase labels, calibrates, decodes operations and
// pivots to wide records
func ExtendedConfig() Config {
	table := calibration.DefaultTable()
	decoder := calibration.DefaultDecoder()
	return Config{
		Variant:       VariantExtended,
		Canonicalizer: content.LowercaseCanonicalizer{},
		Calibration:   &table,
		Decoder:       &decoder,
		Pivot:         true,
	}
}

// ConfigForVariant returns the preset for a variant name
func ConfigForVariant(variant string, labels content.LabelTable) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(variant)) {
	case VariantBasic:
		return BasicConfig(labels), nil
	case VariantExtended, "":
		return ExtendedConfig(), nil
	default:
		return Config{}, fmt.Errorf("unknown pipeline variant %q", variant)
	}
}

// Extended reports whether the operation and value_raw columns are produced
func (c Config) Extended() bool {
	return c.Decoder != nil
}

// Stats summarizes the soft failures and volumes of one run
type Stats struct {
	InputRows          int
	Readings           int
	DroppedEntries     int
	SkippedFragments   int
	Calibrated         int
	UnparsedTimestamps int
	UnmatchedRows      int
	DegenerateRows     int
	JoinedRows         int
	OutputRows         int
	Locations          []string
	BroadenedColumns   []string // wide columns left after the location rule
}

// Result is the output of one pipeline run
type Result struct {
	Table      *model.Table
	Readings   []model.LongReading
	Operations []model.CleaningOperation
	Stats      Stats
}

// Pipeline runs the content decoding stages over whole tables
type Pipeline struct {
	cfg       Config
	cleaner   *cleaner.DataCleaner
	converter *converter.TypeConverter
	logger    *zap.Logger
}

// New creates a pipeline for the given configuration
func New(cfg Config, conv *converter.TypeConverter, logger *zap.Logger) (*Pipeline, error) {
	if cfg.Canonicalizer == nil {
		return nil, errors.New("pipeline config has no canonicalizer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if conv == nil {
		conv = converter.NewTypeConverter(logger)
	}

	dc, err := cleaner.NewDataCleaner(cleaner.Config{
		Canonicalizer: cfg.Canonicalizer,
		Calibration:   cfg.Calibration,
		Decoder:       cfg.Decoder,
	}, conv, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create data cleaner: %w", err)
	}

	return &Pipeline{
		cfg:       cfg,
		cleaner:   dc,
		converter: conv,
		logger:    logger,
	}, nil
}

// Config returns the configuration the pipeline was built with
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Cleaner returns the row expander, which also records cleaning operations
func (p *Pipeline) Cleaner() *cleaner.DataCleaner {
	return p.cleaner
}

// Run decodes one batch. Only a missing content column fails the batch;
// every field-level problem is counted in the stats instead.
func (p *Pipeline) Run(table *model.Table, batchID string) (*Result, error) {
	expanded, err := p.cleaner.ExpandRows(table, batchID)
	if err != nil {
		return nil, err
	}

	joined, joinStats := Join(p.converter, table, expanded.Readings, p.cfg.Extended())

	ops := expanded.Operations
	for _, idx := range joinStats.DegenerateRows {
		ops = append(ops, cleaner.NewDegenerateOperation(batchID, idx, DegenerateSensorType))
	}

	res := &Result{
		Table:      joined,
		Readings:   expanded.Readings,
		Operations: ops,
		Stats: Stats{
			InputRows:          table.Len(),
			Readings:           expanded.Stats.Readings,
			DroppedEntries:     expanded.Stats.DroppedEntries,
			SkippedFragments:   expanded.Stats.SkippedFragments,
			Calibrated:         expanded.Stats.Calibrated,
			UnparsedTimestamps: joinStats.UnparsedTimestamps,
			UnmatchedRows:      joinStats.UnmatchedRows,
			DegenerateRows:     len(joinStats.DegenerateRows),
			JoinedRows:         joined.Len(),
		},
	}

	if p.cfg.Pivot {
		wide, pivotStats := Pivot(joined)
		res.Table = wide
		res.Stats.Locations = pivotStats.Locations
		for _, col := range pivotStats.BroadenedColumns {
			if wide.HasColumn(col) {
				res.Stats.BroadenedColumns = append(res.Stats.BroadenedColumns, col)
			}
		}
	}
	res.Stats.OutputRows = res.Table.Len()

	p.logger.Info("Pipeline run completed",
		zap.String("batch_id", batchID),
		zap.String("variant", p.cfg.Variant),
		zap.Int("input_rows", res.Stats.InputRows),
		zap.Int("readings", res.Stats.Readings),
		zap.Int("joined_rows", res.Stats.JoinedRows),
		zap.Int("output_rows", res.Stats.OutputRows),
		zap.Int("unparsed_timestamps", res.Stats.UnparsedTimestamps),
		zap.Int("degenerate_rows", res.Stats.DegenerateRows))

	return res, nil
}
