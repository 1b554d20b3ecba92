// pkg/store/reading.go
package store

// Reading is one row of sensor_data
type Reading struct {
	DataType        *string  `db:"data_type" json:"data_type"`
	AssetNumber     *string  `db:"asset_number" json:"asset_number"`
	AssetName       *string  `db:"asset_name" json:"asset_name"`
	System          *string  `db:"system" json:"system"`
	InstallLocation *string  `db:"install_location" json:"install_location"`
	DeviceType      *string  `db:"device_type" json:"device_type"`
	DeviceID        *string  `db:"device_id" json:"device_id"`
	Project         *string  `db:"project" json:"project"`
	ReportTime      *string  `db:"report_time" json:"report_time,omitempty"`
	Timestamp       int64    `db:"timestamp" json:"timestamp"`
	SensorType      string   `db:"sensor_type" json:"sensor_type"`
	Value           float64  `db:"value" json:"value"`
	Operation       *string  `db:"operation" json:"operation,omitempty"`
	ValueRaw        *float64 `db:"value_raw" json:"value_raw,omitempty"`
	Broadened       *string  `db:"broadened" json:"broadened,omitempty"`
	BatchID         string   `db:"batch_id" json:"batch_id,omitempty"`
}

// args returns the insert arguments in sensorMetadata column order
func (r *Reading) args() []interface{} {
	return []interface{}{
		r.DataType,
		r.AssetNumber,
		r.AssetName,
		r.System,
		r.InstallLocation,
		r.DeviceType,
		r.DeviceID,
		r.Project,
		r.ReportTime,
		r.Timestamp,
		r.SensorType,
		r.Value,
		r.Operation,
		r.ValueRaw,
		r.Broadened,
		r.BatchID,
	}
}

// setMetadata assigns a metadata column by its sensor_data name
func (r *Reading) setMetadata(column string, v *string) {
	switch column {
	case "data_type":
		r.DataType = v
	case "asset_number":
		r.AssetNumber = v
	case "asset_name":
		r.AssetName = v
	case "system":
		r.System = v
	case "install_location":
		r.InstallLocation = v
	case "device_type":
		r.DeviceType = v
	case "device_id":
		r.DeviceID = v
	case "project":
		r.Project = v
	case "report_time":
		r.ReportTime = v
	}
}

// Params lists the distinct metadata values found in sensor_data
type Params struct {
	DataType        []string `json:"data_type"`
	AssetNumber     []string `json:"asset_number"`
	AssetName       []string `json:"asset_name"`
	System          []string `json:"system"`
	InstallLocation []string `json:"install_location"`
	DeviceType      []string `json:"device_type"`
	DeviceID        []string `json:"device_id"`
	Project         []string `json:"project"`
	SensorType      []string `json:"sensor_type"`
}
