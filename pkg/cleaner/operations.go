// pkg/cleaner/operations.go
package cleaner

import (
	"strconv"

	"github.com/David-Botos/sensor-ingress/pkg/converter"
	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// auditMetadata describes the cleaned_on_ingress tracking table
func auditMetadata() *model.TableMetadata {
	return &model.TableMetadata{
		Table: AuditTable,
		Columns: []model.Column{
			{Name: "id", DataType: "SERIAL", IsPrimaryKey: true},
			{Name: "batch_id", DataType: "TEXT"},
			{Name: "column_name", DataType: "TEXT"},
			{Name: "original_value", DataType: "TEXT", Nullable: true},
			{Name: "new_value", DataType: "TEXT"},
			{Name: "row_identifier", DataType: "TEXT"},
			{Name: "cleaning_operation", DataType: "TEXT"},
			{Name: "cleaning_reason", DataType: "TEXT"},
			{Name: "cleaned_at", DataType: "TEXT"},
		},
		PrimaryKeys: []string{"id"},
	}
}

// newCalibrationOperation records an asset calibration applied to a reading
func newCalibrationOperation(batchID string, rowIdx int, label string, raw, calibrated float64) model.CleaningOperation {
	return model.CleaningOperation{
		BatchID:           batchID,
		ColumnName:        label,
		OriginalValue:     raw,
		NewValue:          strconv.FormatFloat(calibrated, 'f', -1, 64),
		RowIdentifier:     strconv.Itoa(rowIdx),
		CleaningOperation: model.OperationCalibration,
		CleaningReason:    "asset_calibration_table",
	}
}

// newDropOperation records a content entry whose value held no number
func newDropOperation(batchID string, rowIdx int, label string) model.CleaningOperation {
	return model.CleaningOperation{
		BatchID:           batchID,
		ColumnName:        label,
		OriginalValue:     nil,
		NewValue:          "",
		RowIdentifier:     strconv.Itoa(rowIdx),
		CleaningOperation: model.OperationDropUnparsed,
		CleaningReason:    "no_numeric_value",
	}
}

// newSkipFragmentOperation records content fragments lacking a key/value colon
func newSkipFragmentOperation(batchID string, rowIdx int, count int) model.CleaningOperation {
	return model.CleaningOperation{
		BatchID:           batchID,
		ColumnName:        model.ColumnContent,
		OriginalValue:     count,
		NewValue:          "",
		RowIdentifier:     strconv.Itoa(rowIdx),
		CleaningOperation: model.OperationSkipFragment,
		CleaningReason:    "fragment_without_colon",
	}
}

// NewDegenerateOperation records a joined row dropped for its degenerate sensor type
func NewDegenerateOperation(batchID string, rowIdx int, sensorType string) model.CleaningOperation {
	return model.CleaningOperation{
		BatchID:           batchID,
		ColumnName:        model.ColumnSensorType,
		OriginalValue:     sensorType,
		NewValue:          "",
		RowIdentifier:     strconv.Itoa(rowIdx),
		CleaningOperation: model.OperationDropDegenerate,
		CleaningReason:    "degenerate_parse_artifact",
	}
}

// toNullableString safely converts an interface to a nullable string
func toNullableString(conv *converter.TypeConverter, v interface{}) *string {
	if v == nil {
		return nil
	}
	s := conv.ToText(v)
	return &s
}
