// pkg/content/canonical.go
package content

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeKey trims and lowercases a raw field label, collapses internal
// whitespace to single spaces and folds the subscript two to an ASCII digit
func NormalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.Join(strings.Fields(k), " ")
	return strings.ReplaceAll(k, "₂", "2")
}

// Canonicalizer maps raw field labels to canonical sensor labels.
// Implementations must be pure and total.
type Canonicalizer interface {
	Label(rawKey string) string
}

// LabelTable is an immutable lookup from normalized keys to canonical labels
type LabelTable struct {
	labels map[string]string
}

// NewLabelTable builds a label table. Keys are normalized on the way in so
// "Duct CO₂" and "duct co2" address the same entry.
func NewLabelTable(labels map[string]string) LabelTable {
	m := make(map[string]string, len(labels))
	for k, v := range labels {
		m[NormalizeKey(k)] = v
	}
	return LabelTable{labels: m}
}

// Lookup returns the canonical label for a normalized key
func (t LabelTable) Lookup(key string) (string, bool) {
	v, ok := t.labels[key]
	return v, ok
}

// Len returns the number of entries in the table
func (t LabelTable) Len() int {
	return len(t.labels)
}

// DefaultLabelTable returns the labels known to the controller firmware
func DefaultLabelTable() LabelTable {
	return NewLabelTable(map[string]string{
		"co2":                           "CO2",
		"temperature":                   "Temperature",
		"humidity":                      "Humidity",
		"voltage":                       "Voltage",
		"rssi":                          "RSSI",
		"temp before filter":            "Temp Before Filter",
		"diff pressure":                 "Diff Pressure",
		"fan speed":                     "Fan Speed",
		"duct temperature":              "Duct Temperature",
		"duct humidity":                 "Duct Humidity",
		"duct co2":                      "Duct CO2",
		"duct voc":                      "Duct VOC",
		"hlr connect status":            "HLR Connect Status",
		"hlr operation mode":            "HLR Operation Mode",
		"switch-interlock state":        "Switch-Interlock State",
		"switch-co2 state":              "Switch-CO2 State",
		"co2 level scrub mode":          "Co2 Level Scrub Mode",
		"co2 level enable scrub mode":   "Co2 Level Enable Scrub Mode",
		"interlock status":              "Interlock Status",
		"clean air damper open-alarm":   "Clean Air Damper Open-Alarm",
		"exhaust air damper open-alarm": "Exhaust Air Damper Open-Alarm",
		"km1 no feedback-alarm":         "KM1 No Feedback-Alarm",
		"fire-alarm":                    "Fire-Alarm",
		"service door-alarm":            "Service Door-Alarm",
		"fan-alarm":                     "Fan-Alarm",
		"high temperature-alarm":        "High Temperature-Alarm",
	})
}

// ExactMapCanonicalizer resolves labels through a LabelTable and falls back to
// capitalizing the first letter of the normalized key
type ExactMapCanonicalizer struct {
	table LabelTable
}

// NewExactMapCanonicalizer creates a canonicalizer over the given table
func NewExactMapCanonicalizer(table LabelTable) *ExactMapCanonicalizer {
	return &ExactMapCanonicalizer{table: table}
}

// Label implements Canonicalizer
func (c *ExactMapCanonicalizer) Label(rawKey string) string {
	key := NormalizeKey(rawKey)
	if label, ok := c.table.Lookup(key); ok {
		return label
	}
	return capitalize(key)
}

// LowercaseCanonicalizer uses the normalized key as the label
type LowercaseCanonicalizer struct{}

// Label implements Canonicalizer
func (LowercaseCanonicalizer) Label(rawKey string) string {
	return NormalizeKey(rawKey)
}

// capitalize upper-cases the first rune and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
