// pkg/store/schema.go
package store

import (
	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// SensorTable is the long-format readings table
const SensorTable = "sensor_data"

// StatusLabels are the status and alarm sensor types left out of
// sensor_type=all queries and parameter listings
var StatusLabels = []string{
	"Register Start Address",
	"Number of Registers",
	"HLR Connect Status",
	"HLR Operation Mode",
	"Switch-Interlock State",
	"Switch-CO2 State",
	"Co2 Level Scrub Mode",
	"Co2 Level Enable Scrub Mode",
	"Interlock Status",
	"Clean Air Damper Open-Alarm",
	"Exhaust Air Damper Open-Alarm",
	"KM1 No Feedback-Alarm",
	"Fire-Alarm",
	"Service Door-Alarm",
	"Fan-Alarm",
	"High Temperature-Alarm",
}

// metadataColumns maps sensor_data metadata columns to the spreadsheet
// headers they are read from
var metadataColumns = []struct {
	Column     string
	Candidates []string
}{
	{"data_type", []string{"data type", "datatype", "data_type"}},
	{"asset_number", []string{"asset number", "asset_number"}},
	{"asset_name", []string{"asset name", "asset_name"}},
	{"system", []string{"system"}},
	{"install_location", []string{"install location", "install_location"}},
	{"device_type", []string{"device type", "device_type"}},
	{"device_id", []string{"device id", "device_id"}},
	{"project", []string{"project", "project id", "project_id"}},
	{"report_time", []string{"report time", "report_time"}},
}

// sensorMetadata describes the sensor_data table
func sensorMetadata() *model.TableMetadata {
	return &model.TableMetadata{
		Table: SensorTable,
		Columns: []model.Column{
			{Name: "id", DataType: "SERIAL", IsPrimaryKey: true},
			{Name: "data_type", DataType: "TEXT", Nullable: true},
			{Name: "asset_number", DataType: "TEXT", Nullable: true},
			{Name: "asset_name", DataType: "TEXT", Nullable: true},
			{Name: "system", DataType: "TEXT", Nullable: true},
			{Name: "install_location", DataType: "TEXT", Nullable: true},
			{Name: "device_type", DataType: "TEXT", Nullable: true},
			{Name: "device_id", DataType: "TEXT", Nullable: true},
			{Name: "project", DataType: "TEXT", Nullable: true},
			{Name: "report_time", DataType: "TEXT", Nullable: true},
			{Name: "timestamp", DataType: "BIGINT"},
			{Name: "sensor_type", DataType: "TEXT"},
			{Name: "value", DataType: "REAL"},
			{Name: "operation", DataType: "TEXT", Nullable: true},
			{Name: "value_raw", DataType: "REAL", Nullable: true},
			{Name: "broadened", DataType: "TEXT", Nullable: true},
			{Name: "batch_id", DataType: "TEXT"},
		},
		PrimaryKeys: []string{"id"},
	}
}
