// pkg/model/cleaning.go
package model

import (
	"time"
)

// Cleaning operation kinds recorded while decoding content fields
const (
	OperationCalibration    = "calibration"
	OperationDropUnparsed   = "drop_unparsed_value"
	OperationSkipFragment   = "skip_fragment"
	OperationDropDegenerate = "drop_degenerate_sensor_type"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	BatchID           string      // Upload batch the row belongs to
	ColumnName        string      // Column or sensor label that was cleaned
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning
	RowIdentifier     string      // Identifies the row within the batch
	CleaningOperation string      // Type of cleaning performed (e.g., "calibration")
	CleaningReason    string      // Reason for cleaning (e.g., "asset_calibration_table")
	CleanedAt         time.Time   // When the cleaning occurred (set by database)
}
