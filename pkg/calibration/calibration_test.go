package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Calibrate(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name  string
		asset string
		label string
		raw   float64
		want  float64
	}{
		{"before scrub co2", AssetBeforeScrub, "co2", 100, 55.215733 + 1.072297996*100},
		{"interlock co2", AssetInterlock4C, "co2", 400, 16.238157 + 1.048766343*400},
		{"after scrub co2", AssetAfterScrub, "co2", 0, 52.831276},
		{"scrub mode label", AssetBeforeScrub, "co2 level scrub mode", 10, 55.215733 + 1.072297996*10},
		{"enable scrub mode label", AssetAfterScrub, "co2 level enable scrub mode", 10, 52.831276 + 1.0640014*10},
		{"exact-map label casing", AssetBeforeScrub, "CO2", 100, 55.215733 + 1.072297996*100},
		{"other sensor passes through", AssetBeforeScrub, "temperature", 21.5, 21.5},
		{"duct co2 passes through", AssetBeforeScrub, "duct co2", 500, 500},
		{"unknown asset passes through", "Outlet 2", "co2", 500, 500},
		{"asset name is literal", "before scrub", "co2", 500, 500},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, table.Calibrate(tc.asset, tc.label, tc.raw), 1e-9)
		})
	}
}

func TestTable_BeforeScrubReference(t *testing.T) {
	got := DefaultTable().Calibrate(AssetBeforeScrub, LabelCO2, 100)
	assert.InDelta(t, 162.4455326, got, 1e-7)
}

func TestTable_Deterministic(t *testing.T) {
	table := DefaultTable()
	first := table.Calibrate(AssetInterlock4C, LabelCO2, 812.25)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, table.Calibrate(AssetInterlock4C, LabelCO2, 812.25))
	}
}

func TestTable_Formula(t *testing.T) {
	f, ok := DefaultTable().Formula(AssetAfterScrub, LabelCO2)
	assert.True(t, ok)
	assert.Equal(t, Affine{A: 52.831276, B: 1.064001400}, f)

	_, ok = DefaultTable().Formula(AssetAfterScrub, "humidity")
	assert.False(t, ok)
}

func TestDecoder_Decode(t *testing.T) {
	d := DefaultDecoder()

	tests := []struct {
		name  string
		asset string
		label string
		raw   float64
		want  string
	}{
		{"manual", AssetInterlock4C, "hlr operation mode", 0, "manual_mode"},
		{"standby", AssetInterlock4C, "hlr operation mode", 1, "standby_mode"},
		{"scrubbing", AssetInterlock4C, "hlr operation mode", 2, "scrubbing_mode"},
		{"regen", AssetInterlock4C, "hlr operation mode", 3, "regen_mode"},
		{"cooldown", AssetInterlock4C, "hlr operation mode", 4, "cooldown_mode"},
		{"alarming", AssetInterlock4C, "hlr operation mode", 5, "alarming"},
		{"unknown code", AssetInterlock4C, "hlr operation mode", 9, "operation_code 9"},
		{"truncated code", AssetInterlock4C, "hlr operation mode", 2.9, "scrubbing_mode"},
		{"exact-map casing", AssetInterlock4C, "HLR Operation Mode", 3, "regen_mode"},
		{"interlock other label", AssetInterlock4C, "co2", 2, "No operation detect"},
		{"before scrub", AssetBeforeScrub, "hlr operation mode", 2, "before_scrub"},
		{"after scrub", AssetAfterScrub, "temperature", 2, "after_scrub"},
		{"other asset", "Outlet 2", "hlr operation mode", 2, "none"},
		{"empty asset", "", "co2", 1, "none"},
		{"negative fraction", AssetInterlock4C, "hlr operation mode", -0.5, "manual_mode"},
		{"huge code", AssetInterlock4C, "hlr operation mode", 1e20, "operation_code 100000000000000000000"},
		{"huge negative code", AssetInterlock4C, "hlr operation mode", -1e19, "operation_code -10000000000000000000"},
		{"positive infinity", AssetInterlock4C, "hlr operation mode", math.Inf(1), "operation_code +Inf"},
		{"negative infinity", AssetInterlock4C, "hlr operation mode", math.Inf(-1), "operation_code -Inf"},
		{"nan", AssetInterlock4C, "hlr operation mode", math.NaN(), "operation_code NaN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, d.Decode(tc.asset, tc.label, tc.raw))
		})
	}
}

func TestDecoder_CustomRules(t *testing.T) {
	d := NewDecoder(
		map[RuleKey]map[int]string{{Asset: "Unit 7", Label: "Fan Mode"}: {1: "fan_on"}},
		nil,
		"unmapped",
	)

	assert.Equal(t, "fan_on", d.Decode("Unit 7", "fan mode", 1))
	assert.Equal(t, "operation_code 0", d.Decode("Unit 7", "fan mode", 0))
	assert.Equal(t, "unmapped", d.Decode("Unit 8", "fan mode", 1))
}
