package content

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"ascii comma", "CO2: 1, Temp: 2", "CO2: 1; Temp: 2"},
		{"full-width comma", "CO2: 1，Temp: 2", "CO2: 1;Temp: 2"},
		{"full-width colon", "CO2：1", "CO2:1"},
		{"semicolons untouched", "a:1;b:2", "a:1;b:2"},
		{"full-width digits", "０８：１５，CO2：４１２．５", "08:15;CO2:412.5"},
		{"arabic-indic digits", "CO2: ٤١٢", "CO2: 412"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.input))
		})
	}
}

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		found bool
	}{
		{"integer", "412", 412, true},
		{"decimal with unit", "21.3 C", 21.3, true},
		{"negative", "-4.5", -4.5, true},
		{"explicit plus", "+7", 7, true},
		{"leading dot", ".25", 0.25, true},
		{"exponent", "1.5e3 ppm", 1500, true},
		{"first numeral wins", "abc 12 then 99", 12, true},
		{"full-width digits", "４１２．５", 412.5, true},
		{"full-width sign", "－３", -3, true},
		{"devanagari digits", "४२ ppm", 42, true},
		{"no number", "abc", 0, false},
		{"empty", "", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractNumber(tc.input)
			assert.Equal(t, tc.found, ok)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestExtractNumber_RoundTrip(t *testing.T) {
	values := []float64{0, 7, -13, 412.5, -0.0031, 6.02e23, -1.6e-19, 123456789}

	for _, v := range values {
		for _, format := range []byte{'f', 'e', 'g'} {
			s := strconv.FormatFloat(v, format, -1, 64)
			got, ok := ExtractNumber(s)
			require.True(t, ok, s)
			assert.InEpsilon(t, v+1, got+1, 1e-9, s)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "co2", NormalizeKey("  CO₂ "))
	assert.Equal(t, "duct co2", NormalizeKey("Duct \t  CO2"))
	assert.Equal(t, "fire-alarm", NormalizeKey("Fire-Alarm"))
}

func TestExactMapCanonicalizer(t *testing.T) {
	c := NewExactMapCanonicalizer(DefaultLabelTable())

	tests := []struct {
		input string
		want  string
	}{
		{"co2", "CO2"},
		{"CO₂", "CO2"},
		{"fire-alarm", "Fire-Alarm"},
		{"KM1 No  Feedback-Alarm", "KM1 No Feedback-Alarm"},
		{"register start address", "Register start address"},
		{"1", "1"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Label(tc.input))
		})
	}
}

func TestExactMapCanonicalizer_AlternateTable(t *testing.T) {
	c := NewExactMapCanonicalizer(NewLabelTable(map[string]string{"Duct CO₂": "DUCT-CO2"}))

	assert.Equal(t, "DUCT-CO2", c.Label("duct co2"))
	assert.Equal(t, "Co2", c.Label("co2"))
}

func TestCanonicalizers_Idempotent(t *testing.T) {
	keys := []string{"CO2", "Temperature", " Duct   VOC ", "HLR Operation Mode", "unknown thing", "co₂ level scrub mode", "Fire-Alarm", "rssi"}
	canonicalizers := map[string]Canonicalizer{
		"exact-map": NewExactMapCanonicalizer(DefaultLabelTable()),
		"lowercase": LowercaseCanonicalizer{},
	}

	for name, c := range canonicalizers {
		for _, k := range keys {
			once := c.Label(k)
			assert.Equal(t, once, c.Label(once), "%s: %q", name, k)
		}
	}
}

func TestParse_TimeTokenAndFields(t *testing.T) {
	p := Parse("08:15; CO2: 412.5; Temperature: 21.3")

	require.NotNil(t, p.ContentTime)
	assert.Equal(t, "08:15", *p.ContentTime)
	require.Len(t, p.Entries, 2)

	co2, ok := p.Lookup("co2")
	require.True(t, ok)
	require.NotNil(t, co2.Value)
	assert.Equal(t, 412.5, *co2.Value)

	temp, ok := p.Lookup("temperature")
	require.True(t, ok)
	require.NotNil(t, temp.Value)
	assert.Equal(t, 21.3, *temp.Value)
}

func TestParse_SoftFailures(t *testing.T) {
	p := Parse("CO2:abc; ;Temp:19")

	assert.Nil(t, p.ContentTime)

	co2, ok := p.Lookup("co2")
	require.True(t, ok)
	assert.Nil(t, co2.Value)

	temp, ok := p.Lookup("temp")
	require.True(t, ok)
	require.NotNil(t, temp.Value)
	assert.Equal(t, 19.0, *temp.Value)
}

func TestParse_FragmentWithoutColonIsSkipped(t *testing.T) {
	p := Parse("status ok; Temp: 19")

	assert.Equal(t, 1, p.Skipped)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, "temp", p.Entries[0].Key)
}

func TestParse_TimeTokenOnlyWhenFirst(t *testing.T) {
	p := Parse("CO2: 400; 08:15")

	assert.Nil(t, p.ContentTime)
	e, ok := p.Lookup("08")
	require.True(t, ok)
	assert.Equal(t, 15.0, *e.Value)
}

func TestParse_TimeTokenNotCalendarValidated(t *testing.T) {
	p := Parse("99:99, CO2: 1")

	require.NotNil(t, p.ContentTime)
	assert.Equal(t, "99:99", *p.ContentTime)
}

func TestParse_SplitsOnFirstColonOnly(t *testing.T) {
	p := Parse("Last Seen: 10:45")

	e, ok := p.Lookup("last seen")
	require.True(t, ok)
	assert.Equal(t, 10.0, *e.Value)
}

func TestParse_DuplicateKeyLaterWins(t *testing.T) {
	p := Parse("CO2: 400; Temp: 20; co2: 410")

	require.Len(t, p.Entries, 2)
	assert.Equal(t, "co2", p.Entries[0].Key)
	assert.Equal(t, 410.0, *p.Entries[0].Value)
}

func TestParse_FullWidthMatchesASCII(t *testing.T) {
	ascii := Parse("08:15, CO2: 412.5, Temperature: 21.3")
	wide := Parse("08：15，CO2：412.5，Temperature：21.3")

	assert.Equal(t, ascii, wide)
}

func TestParse_FullWidthDigits(t *testing.T) {
	p := Parse("０８：１５，CO2：４１２")

	require.NotNil(t, p.ContentTime)
	assert.Equal(t, "08:15", *p.ContentTime)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, "co2", p.Entries[0].Key)
	require.NotNil(t, p.Entries[0].Value)
	assert.Equal(t, 412.0, *p.Entries[0].Value)
	assert.Equal(t, Parse("08:15, CO2: 412"), p)
}

func TestParse_Empty(t *testing.T) {
	assert.Equal(t, Parsed{}, Parse(""))
	assert.Equal(t, Parsed{}, Parse(" ; ;"))
}
