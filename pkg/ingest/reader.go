// Package ingest reads uploaded spreadsheet exports into tables.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/David-Botos/sensor-ingress/pkg/model"
)

// Format is a supported upload file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	// ErrUnsupportedFormat is returned for file extensions that cannot be read
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrNoHeader is returned when the file has no header row
	ErrNoHeader = errors.New("file has no header row")
)

// DetectFormat picks the reader for a file name by its extension
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadTable reads the first sheet (or the whole csv) of an upload. The first
// row is the header; empty cells become nil and blank rows are skipped.
func ReadTable(r io.Reader, filename string) (*model.Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var records [][]interface{}
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	}
	if err != nil {
		return nil, err
	}

	return buildTable(records)
}

func readCSV(r io.Reader) ([][]interface{}, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	records := make([][]interface{}, len(rows))
	for i, row := range rows {
		rec := make([]interface{}, len(row))
		for j, cell := range row {
			rec[j] = cell
		}
		records[i] = rec
	}
	return records, nil
}

// readXLSX reads stored cell values rather than their display text. Cells
// styled with a date or time number format come back as float64 serial days
// so report times keep their seconds.
func readXLSX(r io.Reader) ([][]interface{}, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	dateStyles := make(map[int]bool)
	records := make([][]interface{}, len(rows))
	for i, row := range rows {
		rec := make([]interface{}, len(row))
		for j, cell := range row {
			rec[j] = cell
			serial, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue
			}
			isDate, err := dateStyled(f, sheet, j+1, i+1, dateStyles)
			if err != nil {
				return nil, err
			}
			if isDate {
				rec[j] = serial
			}
		}
		records[i] = rec
	}
	return records, nil
}

// dateStyled reports whether the cell at (col, row) carries a date or time
// number format. Results are memoized per style id.
func dateStyled(f *excelize.File, sheet string, col, row int, memo map[int]bool) (bool, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false, fmt.Errorf("failed to address cell: %w", err)
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false, fmt.Errorf("failed to read style of %s: %w", cell, err)
	}
	if isDate, ok := memo[styleID]; ok {
		return isDate, nil
	}

	// workbooks without a usable style table hold no date formats
	var isDate bool
	if style, err := f.GetStyle(styleID); err == nil {
		isDate = isDateNumFmt(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	memo[styleID] = isDate
	return isDate, nil
}

// isDateNumFmt reports whether a built-in number format id renders a date or
// time, including the east asian date formats
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code holds date or time
// tokens once literals, escapes and bracketed sections are removed
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			inQuote = ch != '"'
		case inBracket:
			inBracket = ch != ']'
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ydhms")
}

// buildTable turns raw records into a table. Header names are kept as found,
// with blanks named "Unnamed: i" and repeats suffixed ".1", ".2", ...
func buildTable(records [][]interface{}) (*model.Table, error) {
	start := 0
	for start < len(records) && blank(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, ErrNoHeader
	}

	header := records[start]
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := cellText(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		columns[i] = name
	}

	table := model.NewTable(columns...)
	for _, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		row := make(model.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) && cellText(rec[i]) != "" {
				row[col] = rec[i]
			} else {
				row[col] = nil
			}
		}
		table.Append(row)
	}

	return table, nil
}

// cellText renders a record cell for header naming and blank checks
func cellText(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}

func blank(rec []interface{}) bool {
	for _, v := range rec {
		if strings.TrimSpace(cellText(v)) != "" {
			return false
		}
	}
	return true
}
