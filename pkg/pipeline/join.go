// pkg/pipeline/join.go
package pipeline

import (
	"time"

	"github.com/David-Botos/sensor-ingress/pkg/converter"
	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// JoinStats counts what happened while rejoining readings to their rows
type JoinStats struct {
	UnparsedTimestamps int   // left rows whose report time failed to parse
	UnmatchedRows      int   // left rows kept with null sensor columns
	DegenerateRows     []int // left row indexes of dropped artifact rows
}

type timeKey struct {
	sec  int64
	nsec int
}

func keyOf(t time.Time) timeKey {
	return timeKey{sec: t.Unix(), nsec: t.Nanosecond()}
}

// Join attaches readings back onto the rows of table with a left equi-join on
// the parsed report time. A row fans out into one output row per reading that
// shares its timestamp, and rows with no match survive with null sensor
// columns. The content column is removed and an epoch millisecond timestamp
// is added from each row's own report time.
func Join(conv *converter.TypeConverter, table *model.Table, readings []model.LongReading, extended bool) (*model.Table, JoinStats) {
	var stats JoinStats

	contentCol, _ := table.FindColumn(model.ColumnContent)
	reportCol, hasReportTime := table.FindColumn(model.ColumnReportTime)

	columns := make([]string, 0, len(table.Columns)+5)
	for _, col := range table.Columns {
		if col != contentCol {
			columns = append(columns, col)
		}
	}
	out := model.NewTable(columns...)
	out.AddColumn(model.ColumnSensorType)
	out.AddColumn(model.ColumnValue)
	if extended {
		out.AddColumn(model.ColumnOperation)
		out.AddColumn(model.ColumnValueRaw)
	}
	out.AddColumn(model.ColumnTimestamp)

	// right side keyed by parsed report time, readings kept in order
	byKey := make(map[timeKey][]int)
	for i, r := range readings {
		if t, ok := conv.ParseTimestamp(r.ReportTime); ok {
			k := keyOf(t)
			byKey[k] = append(byKey[k], i)
		}
	}

	for idx, row := range table.Rows {
		base := make(model.Row, len(out.Columns))
		for _, col := range columns {
			base[col] = row[col]
		}

		var matches []int
		var timestamp interface{}
		if hasReportTime {
			if t, ok := conv.ParseTimestamp(row[reportCol]); ok {
				matches = byKey[keyOf(t)]
				timestamp = converter.EpochMillis(t)
			} else {
				stats.UnparsedTimestamps++
			}
		} else {
			stats.UnparsedTimestamps++
		}

		if len(matches) == 0 {
			stats.UnmatchedRows++
			joined := base.Clone()
			joined[model.ColumnSensorType] = nil
			joined[model.ColumnValue] = nil
			if extended {
				joined[model.ColumnOperation] = nil
				joined[model.ColumnValueRaw] = nil
			}
			joined[model.ColumnTimestamp] = timestamp
			out.Append(joined)
			continue
		}

		for _, ri := range matches {
			r := readings[ri]
			if IsDegenerateSensorType(r.SensorType) {
				stats.DegenerateRows = append(stats.DegenerateRows, idx)
				continue
			}

			joined := base.Clone()
			joined[model.ColumnSensorType] = r.SensorType
			joined[model.ColumnValue] = r.Value
			if extended {
				joined[model.ColumnOperation] = r.Operation
				if r.ValueRaw != nil {
					joined[model.ColumnValueRaw] = *r.ValueRaw
				} else {
					joined[model.ColumnValueRaw] = nil
				}
			}
			joined[model.ColumnTimestamp] = timestamp
			out.Append(joined)
		}
	}

	return out, stats
}
