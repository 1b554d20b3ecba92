// pkg/model/reading.go
package model

// Column names produced by the decoding pipeline
const (
	ColumnContent         = "content"
	ColumnReportTime      = "report time"
	ColumnAssetName       = "asset name"
	ColumnInstallLocation = "install location"

	ColumnSensorType = "sensor_type"
	ColumnValue      = "value"
	ColumnValueRaw   = "value_raw"
	ColumnOperation  = "operation"
	ColumnTimestamp  = "timestamp"
)

// LongReading is one decoded sensor observation taken from a row's content field
type LongReading struct {
	RowIndex    int         // Index of the originating row in the input table
	ReportTime  interface{} // Raw report time cell of the originating row (may be nil)
	ContentTime *string     // HH:MM token leading the content field, if any
	SensorType  string      // Canonical sensor label
	Operation   string      // Decoded operation label (extended pipeline only)
	ValueRaw    *float64    // Value before calibration (extended pipeline only)
	Value       float64     // Calibrated value
}
