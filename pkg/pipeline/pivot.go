// pkg/pipeline/pivot.go
package pipeline

import (
	"fmt"
	"strings"

	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// LocationInlet is the install location whose rows keep no broadened
// air-quality columns
const LocationInlet = "Inlet"

// NarrowSensorTypes are the readings kept as narrow rows of the wide table
var NarrowSensorTypes = []string{"co2", "voc", "temperature", "humidity"}

var (
	inletDropColumns   = []string{"co2", "temperature", "humidity", "rssi", "voc", "voltage", "version_number", "diff_pressure"}
	defaultDropColumns = []string{"co2", "temperature", "humidity", "rssi", "voltage", "version_number"}
)

// PivotStats describes the wide reshaping of one batch
type PivotStats struct {
	WideRows          int
	BroadenedColumns  []string
	DuplicatesDropped int
	Locations         []string // distinct install locations, in order of first appearance
}

// DropColumnsForLocation returns the broadened columns removed for rows at a
// given install location
func DropColumnsForLocation(location string) []string {
	if location == LocationInlet {
		return inletDropColumns
	}
	return defaultDropColumns
}

// Pivot reshapes a joined table into wide records. Every distinct timestamp
// gets one column per normalized sensor type holding the first value observed
// for that pair. The wide values are attached to the co2/voc/temperature/
// humidity narrow rows sharing the timestamp, exact duplicate rows are
// removed and the broadened columns irrelevant to each row's install location
// are dropped.
func Pivot(joined *model.Table) (*model.Table, PivotStats) {
	var stats PivotStats

	// sensor_type values are normalized in place
	for _, row := range joined.Rows {
		if s, ok := row[model.ColumnSensorType].(string); ok {
			row[model.ColumnSensorType] = normalizeSensorColumn(s)
		}
	}

	// wide table: timestamp -> sensor column -> first value
	var sensorOrder []string
	seenSensor := make(map[string]struct{})
	wide := make(map[int64]map[string]interface{})
	for _, row := range joined.Rows {
		ts, ok := row[model.ColumnTimestamp].(int64)
		if !ok {
			continue
		}
		sensor, ok := row[model.ColumnSensorType].(string)
		if !ok {
			continue
		}
		value := row[model.ColumnValue]
		if value == nil {
			continue
		}

		if _, seen := seenSensor[sensor]; !seen {
			seenSensor[sensor] = struct{}{}
			sensorOrder = append(sensorOrder, sensor)
		}
		cells, ok := wide[ts]
		if !ok {
			cells = make(map[string]interface{})
			wide[ts] = cells
		}
		if _, set := cells[sensor]; !set {
			cells[sensor] = value
		}
	}
	stats.WideRows = len(wide)

	out := model.NewTable(joined.Columns...)

	// broadened column names, suffixed when they clash with a narrow column
	wideColumn := make(map[string]string, len(sensorOrder))
	for _, sensor := range sensorOrder {
		name := sensor
		if out.HasColumn(name) {
			name = sensor + "_sensor"
		}
		wideColumn[sensor] = name
		out.AddColumn(name)
		stats.BroadenedColumns = append(stats.BroadenedColumns, name)
	}

	narrow := make(map[string]struct{}, len(NarrowSensorTypes))
	for _, s := range NarrowSensorTypes {
		narrow[s] = struct{}{}
	}

	seenRow := make(map[string]struct{})
	for _, row := range joined.Rows {
		sensor, ok := row[model.ColumnSensorType].(string)
		if !ok {
			continue
		}
		if _, ok := narrow[sensor]; !ok {
			continue
		}
		ts, ok := row[model.ColumnTimestamp].(int64)
		if !ok {
			continue
		}
		cells, ok := wide[ts]
		if !ok {
			continue
		}

		merged := row.Clone()
		for _, s := range sensorOrder {
			merged[wideColumn[s]] = cells[s]
		}

		key := rowKey(out.Columns, merged)
		if _, dup := seenRow[key]; dup {
			stats.DuplicatesDropped++
			continue
		}
		seenRow[key] = struct{}{}
		out.Append(merged)
	}

	stats.Locations = dropLocationColumns(out, wideColumn)
	return out, stats
}

// dropLocationColumns applies the install-location column rule to each row.
// A column stays in the table while at least one location keeps it.
func dropLocationColumns(table *model.Table, wideColumn map[string]string) []string {
	locCol, hasLoc := table.FindColumn(model.ColumnInstallLocation, "install_location")

	var locations []string
	dropped := make(map[string]int)
	seen := make(map[string]struct{})
	for _, row := range table.Rows {
		var loc string
		if hasLoc {
			if s, ok := row[locCol].(string); ok {
				loc = strings.TrimSpace(s)
			}
		}
		if _, ok := seen[loc]; !ok {
			seen[loc] = struct{}{}
			locations = append(locations, loc)
			for _, sensor := range DropColumnsForLocation(loc) {
				if col, ok := wideColumn[sensor]; ok {
					dropped[col]++
				}
			}
		}
		for _, sensor := range DropColumnsForLocation(loc) {
			if col, ok := wideColumn[sensor]; ok {
				delete(row, col)
			}
		}
	}

	var drop []string
	for col, n := range dropped {
		if n == len(locations) {
			drop = append(drop, col)
		}
	}
	if len(table.Rows) == 0 {
		for _, sensor := range defaultDropColumns {
			if col, ok := wideColumn[sensor]; ok {
				drop = append(drop, col)
			}
		}
	}
	table.DropColumns(drop...)

	return locations
}

// normalizeSensorColumn turns a sensor label into a broadened column name:
// lowercase with spaces and hyphens folded to underscores
func normalizeSensorColumn(sensorType string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(sensorType))
}

// rowKey renders a row for exact-duplicate detection
func rowKey(columns []string, row model.Row) string {
	var b strings.Builder
	for _, col := range columns {
		fmt.Fprintf(&b, "%T:%v\x1f", row[col], row[col])
	}
	return b.String()
}
