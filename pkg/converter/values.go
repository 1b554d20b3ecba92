// pkg/converter/values.go
package converter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// IsNull determines if a cell value should be treated as NULL
func IsNull(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return isNull(v)
	case float64:
		return math.IsNaN(v)
	case *float64:
		return v == nil || math.IsNaN(*v)
	case *string:
		return v == nil || isNull(*v)
	}
	return false
}

// isNull checks string representations of NULL
func isNull(s string) bool {
	nullValues := []string{"null", "NULL", "nil", "NIL", "NaN", "nan", ""}
	for _, null := range nullValues {
		if s == null {
			return true
		}
	}
	return false
}

// ToText converts a cell value to text. Nulls become the empty string.
func (c *TypeConverter) ToText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		if c.config.EmptyStringAsNull && isNull(v) {
			return ""
		}
		return v
	case *string:
		if v == nil {
			return ""
		}
		return c.ToText(*v)
	case []byte:
		return string(v)
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case *float64:
		if v == nil {
			return ""
		}
		return c.ToText(*v)
	case time.Time:
		return v.Format(time.RFC3339)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, bool:
		return fmt.Sprintf("%v", v)
	default:
		// Try JSON marshaling for complex types
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(jsonBytes)
	}
}

// ToFloat coerces a cell value to a float. Values that are not numbers yield
// false rather than an error.
func (c *TypeConverter) ToFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, !math.IsNaN(v)
	case *float64:
		if v == nil {
			return 0, false
		}
		return c.ToFloat(*v)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToJSON encodes a value for storage in a text column
func (c *TypeConverter) ToJSON(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(jsonBytes), nil
}
