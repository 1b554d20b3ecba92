package ingest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/content"
	"github.com/David-Botos/sensor-ingress/pkg/converter"
	"github.com/David-Botos/sensor-ingress/pkg/pipeline"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"export.csv", FormatCSV, false},
		{"EXPORT.XLSX", FormatXLSX, false},
		{"macro.xlsm", FormatXLSX, false},
		{"legacy.xls", "", true},
		{"notes.txt", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadTableCSV(t *testing.T) {
	data := "\ufeffReport time,Asset name,Content,,Content\n" +
		"2025-10-09 14:04:20,Before Scrub,\"08:15, CO2: 412.5, Temperature: 21.3\",,x\n" +
		",,,,\n" +
		"2025-10-09 14:05:20,After Scrub\n"

	table, err := ReadTable(strings.NewReader(data), "upload.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Report time", "Asset name", "Content", "Unnamed: 3", "Content.1"}, table.Columns)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "08:15, CO2: 412.5, Temperature: 21.3", table.Rows[0]["Content"])
	assert.Nil(t, table.Rows[0]["Unnamed: 3"])
	assert.Equal(t, "x", table.Rows[0]["Content.1"])

	assert.Equal(t, "After Scrub", table.Rows[1]["Asset name"])
	assert.Nil(t, table.Rows[1]["Content"])
	_, present := table.Rows[1]["Content"]
	assert.True(t, present, "short rows are padded with nulls")
}

func TestReadTableXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Report time", "Asset name", "Install location", "Content"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2025-10-09 14:04:20", "Interlock 4C", "Inlet", "HLR Operation Mode：2，CO₂：400"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"2025-10-09 14:05:20", "Interlock 4C", nil, "CO2: 401"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	table, err := ReadTable(bytes.NewReader(buf.Bytes()), "export.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"Report time", "Asset name", "Install location", "Content"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "HLR Operation Mode：2，CO₂：400", table.Rows[0]["Content"])
	assert.Equal(t, "Inlet", table.Rows[0]["Install location"])
	assert.Nil(t, table.Rows[1]["Install location"])
	assert.Equal(t, "CO2: 401", table.Rows[1]["Content"])
}

func TestReadTableXLSXDateCells(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Report time", "Content", "Reading"}))

	// time values get m/d/yy hh:mm (22), whole days get mm-dd-yy (14)
	require.NoError(t, f.SetCellValue(sheet, "A2", time.Date(2025, time.October, 9, 14, 30, 10, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "A3", time.Date(2025, time.October, 9, 14, 30, 50, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "A4", time.Date(2025, time.October, 9, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "A5", time.Date(2025, time.October, 9, 14, 31, 5, 0, time.UTC)))
	custom := `yyyy"年"mm"月"dd"日" hh:mm`
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "A5", "A5", style))

	for i, content := range []string{"CO2: 400", "CO2: 500", "CO2: 600", "CO2: 700"} {
		cell, err := excelize.CoordinatesToCellName(2, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, content))
	}
	require.NoError(t, f.SetCellValue(sheet, "C2", 412.5))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	table, err := ReadTable(bytes.NewReader(buf.Bytes()), "export.xlsx")
	require.NoError(t, err)
	require.Len(t, table.Rows, 4)

	conv := converter.NewTypeConverter(zap.NewNop())
	want := []int64{1760020210000, 1760020250000, 1759968000000, 1760020265000}
	for i, row := range table.Rows {
		_, isSerial := row["Report time"].(float64)
		require.True(t, isSerial, "row %d report time should be a serial, got %#v", i, row["Report time"])

		ts, ok := conv.ParseTimestamp(row["Report time"])
		require.True(t, ok, "row %d", i)
		assert.Equal(t, want[i], converter.EpochMillis(ts), "row %d", i)
	}

	// plain numbers keep their stored text
	assert.Equal(t, "412.5", table.Rows[0]["Reading"])
}

// Two readings in the same minute must not share a join key.
func TestReadTableXLSXSameMinuteJoin(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Report time", "Content"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{time.Date(2025, time.October, 9, 14, 30, 10, 0, time.UTC), "CO2: 400"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{time.Date(2025, time.October, 9, 14, 30, 50, 0, time.UTC), "CO2: 500"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	table, err := ReadTable(bytes.NewReader(buf.Bytes()), "export.xlsx")
	require.NoError(t, err)

	p, err := pipeline.New(pipeline.BasicConfig(content.DefaultLabelTable()), nil, zap.NewNop())
	require.NoError(t, err)
	res, err := p.Run(table, "batch")
	require.NoError(t, err)

	require.Len(t, res.Table.Rows, 2)
	assert.Equal(t, 400.0, res.Table.Rows[0]["value"])
	assert.Equal(t, int64(1760020210000), res.Table.Rows[0]["timestamp"])
	assert.Equal(t, 500.0, res.Table.Rows[1]["value"])
	assert.Equal(t, int64(1760020250000), res.Table.Rows[1]["timestamp"])
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd hh:mm:ss", true},
		{"[$-409]m/d/yy h:mm AM/PM", true},
		{`yyyy"年"m"月"d"日"`, true},
		{"0.00", false},
		{"#,##0 ;[Red](#,##0)", false},
		{`0.0" days"`, false},
		{"0.00E+00", false},
		{`_("$"* #,##0.00_)`, false},
		{"General", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormatCode(tt.code))
		})
	}
}

func TestReadTableErrors(t *testing.T) {
	_, err := ReadTable(strings.NewReader("a,b\n1,2\n"), "upload.xls")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadTable(strings.NewReader(""), "empty.csv")
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadTable(strings.NewReader("\n , \n"), "blank.csv")
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadTable(strings.NewReader("not a zip archive"), "broken.xlsx")
	assert.Error(t, err)
}
