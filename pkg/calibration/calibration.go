// Package calibration holds the per-asset sensor corrections and the
// categorical decode rules applied to content readings.
package calibration

import (
	"strings"
)

// Asset names with characterised sensors
const (
	AssetBeforeScrub = "Before Scrub"
	AssetInterlock4C = "Interlock 4C"
	AssetAfterScrub  = "After Scrub"
)

// Sensor labels the calibration table applies to, in normalized form
const (
	LabelCO2                 = "co2"
	LabelCO2LevelScrubMode   = "co2 level scrub mode"
	LabelCO2LevelEnableScrub = "co2 level enable scrub mode"
	LabelHLROperationMode    = "hlr operation mode"
)

// Affine is a linear correction calibrated = A + B*raw
type Affine struct {
	A float64
	B float64
}

// Apply returns the corrected value
func (f Affine) Apply(raw float64) float64 {
	return f.A + f.B*raw
}

// Table maps literal asset names to their CO2 sensor correction. It is keyed
// by the exact asset name, never by device class.
type Table struct {
	formulas map[string]Affine
	labels   map[string]struct{}
}

// NewTable builds a calibration table applying to the given sensor labels
func NewTable(formulas map[string]Affine, labels ...string) Table {
	f := make(map[string]Affine, len(formulas))
	for asset, formula := range formulas {
		f[asset] = formula
	}
	l := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		l[normalizeLabel(label)] = struct{}{}
	}
	return Table{formulas: f, labels: l}
}

// DefaultTable returns the sensor characterisation measured for the scrubber line
func DefaultTable() Table {
	return NewTable(map[string]Affine{
		AssetBeforeScrub: {A: 55.215733, B: 1.072297996},
		AssetInterlock4C: {A: 16.238157, B: 1.048766343},
		AssetAfterScrub:  {A: 52.831276, B: 1.064001400},
	}, LabelCO2, LabelCO2LevelScrubMode, LabelCO2LevelEnableScrub)
}

// Formula returns the correction for an (asset, label) pair, if one applies
func (t Table) Formula(asset, label string) (Affine, bool) {
	if _, ok := t.labels[normalizeLabel(label)]; !ok {
		return Affine{}, false
	}
	f, ok := t.formulas[asset]
	return f, ok
}

// Calibrate applies the asset correction to raw, or passes raw through when
// no correction is registered for the pair
func (t Table) Calibrate(asset, label string, raw float64) float64 {
	if f, ok := t.Formula(asset, label); ok {
		return f.Apply(raw)
	}
	return raw
}

// normalizeLabel lowercases and collapses whitespace so exact-map labels such
// as "CO2" and lowercase labels such as "co2" select the same rule
func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
