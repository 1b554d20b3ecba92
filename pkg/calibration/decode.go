// pkg/calibration/decode.go
package calibration

import (
	"fmt"
	"math"
	"strconv"
)

// Operation labels produced by the decoder
const (
	OperationNone        = "none"
	OperationNotDetected = "No operation detect"
	OperationBeforeScrub = "before_scrub"
	OperationAfterScrub  = "after_scrub"
	OperationCodeFormat  = "operation_code %d"
)

// RuleKey addresses a decode rule by asset and normalized sensor label
type RuleKey struct {
	Asset string
	Label string
}

// Decoder turns (asset, sensor label, raw value) into an advisory operation label
type Decoder struct {
	codes    map[RuleKey]map[int]string
	defaults map[string]string
	fallback string
}

// NewDecoder builds a decoder from code rules, per-asset default labels and a
// label for assets with no entry at all
func NewDecoder(codes map[RuleKey]map[int]string, defaults map[string]string, fallback string) Decoder {
	c := make(map[RuleKey]map[int]string, len(codes))
	for k, m := range codes {
		inner := make(map[int]string, len(m))
		for code, label := range m {
			inner[code] = label
		}
		c[RuleKey{Asset: k.Asset, Label: normalizeLabel(k.Label)}] = inner
	}
	d := make(map[string]string, len(defaults))
	for asset, label := range defaults {
		d[asset] = label
	}
	return Decoder{codes: c, defaults: d, fallback: fallback}
}

// DefaultDecoder returns the HLR operation mode decoding of the scrubber line
func DefaultDecoder() Decoder {
	return NewDecoder(
		map[RuleKey]map[int]string{
			{Asset: AssetInterlock4C, Label: LabelHLROperationMode}: {
				0: "manual_mode",
				1: "standby_mode",
				2: "scrubbing_mode",
				3: "regen_mode",
				4: "cooldown_mode",
				5: "alarming",
			},
		},
		map[string]string{
			AssetInterlock4C: OperationNotDetected,
			AssetBeforeScrub: OperationBeforeScrub,
			AssetAfterScrub:  OperationAfterScrub,
		},
		OperationNone,
	)
}

// Decode returns the operation label for a reading. Unknown codes of a
// decodable sensor become "operation_code {v}".
func (d Decoder) Decode(asset, label string, raw float64) string {
	if codes, ok := d.codes[RuleKey{Asset: asset, Label: normalizeLabel(label)}]; ok {
		code := math.Trunc(raw)
		if math.IsNaN(code) || code < math.MinInt64 || code >= math.MaxInt64 {
			// int conversion is platform defined outside the int64 range
			return fmt.Sprintf("operation_code %s", strconv.FormatFloat(code, 'f', 0, 64))
		}
		v := int(code)
		if name, ok := codes[v]; ok {
			return name
		}
		return fmt.Sprintf(OperationCodeFormat, v)
	}
	if name, ok := d.defaults[asset]; ok {
		return name
	}
	return d.fallback
}
