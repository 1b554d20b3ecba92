// pkg/converter/mapping.go
package converter

import (
	"math"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Month-first slash dates win over
// day-first ones, matching the spreadsheet exports of the controllers.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-1-2T15:04:05",
	"2006-1-2 15:04:05Z07:00",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"1/2/06 15:04:05",
	"1/2/06 15:04",
	"02-Jan-2006 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// excelEpoch is day zero of spreadsheet serial dates
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DetectTimeFormat analyzes a value to determine its timestamp layout
func (c *TypeConverter) DetectTimeFormat(value string) string {
	for _, layout := range timestampLayouts {
		if _, err := time.ParseInLocation(layout, value, c.location); err == nil {
			return layout
		}
	}
	return ""
}

// ParseTimestamp converts a report time cell into a calendar timestamp.
// The second return value is false for nulls and unparsable values.
func (c *TypeConverter) ParseTimestamp(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return c.ParseTimestamp(*v)
	case float64:
		return fromSerial(v)
	case float32:
		return fromSerial(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if isNull(s) {
			return time.Time{}, false
		}

		layout := c.DetectTimeFormat(s)
		if layout == "" {
			return time.Time{}, false
		}
		t, err := time.ParseInLocation(layout, s, c.location)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case []byte:
		return c.ParseTimestamp(string(v))
	default:
		return time.Time{}, false
	}
}

// EpochMillis returns t as milliseconds since the Unix epoch, truncated
// towards negative infinity
func EpochMillis(t time.Time) int64 {
	ns := t.UnixNano()
	ms := ns / int64(time.Millisecond)
	if ns%int64(time.Millisecond) < 0 {
		ms--
	}
	return ms
}

// fromSerial converts a spreadsheet serial day number to a timestamp
func fromSerial(days float64) (time.Time, bool) {
	if math.IsNaN(days) || math.IsInf(days, 0) || days <= 0 {
		return time.Time{}, false
	}
	ms := math.Round(days * 24 * float64(time.Hour/time.Millisecond))
	return excelEpoch.Add(time.Duration(ms) * time.Millisecond), true
}
