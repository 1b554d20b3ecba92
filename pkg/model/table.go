// pkg/model/table.go
package model

// Row is a single tabular record keyed by column name. A nil value is a null cell.
type Row map[string]interface{}

// Table is an ordered set of columns and the rows carrying them
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given column order
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows in the table
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// FindColumn returns the actual name of the first column matching any of the
// candidates, compared case-insensitively and ignoring surrounding whitespace
func (t *Table) FindColumn(candidates ...string) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, cand := range candidates {
		want := normalizeColumnName(cand)
		for _, col := range t.Columns {
			if normalizeColumnName(col) == want {
				return col, true
			}
		}
	}
	return "", false
}

// HasColumn reports whether a column with exactly this name exists
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column to the column order if it is not already present
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// DropColumns removes the named columns from the column order and from every row
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}

	kept := t.Columns[:0]
	for _, col := range t.Columns {
		if _, ok := drop[col]; !ok {
			kept = append(kept, col)
		}
	}
	t.Columns = kept

	for _, row := range t.Rows {
		for n := range drop {
			delete(row, n)
		}
	}
}

// Append adds a row to the table
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Lookup returns the value of the first column matching any candidate name,
// compared case-insensitively. Missing columns yield nil.
func (r Row) Lookup(candidates ...string) interface{} {
	for _, cand := range candidates {
		if v, ok := r[cand]; ok {
			return v
		}
	}
	for _, cand := range candidates {
		want := normalizeColumnName(cand)
		for k, v := range r {
			if normalizeColumnName(k) == want {
				return v
			}
		}
	}
	return nil
}
