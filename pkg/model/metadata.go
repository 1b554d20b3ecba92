// pkg/model/metadata.go
package model

import "strings"

// TableMetadata contains the structure information for a sink table
type TableMetadata struct {
	Schema      string   // Schema name (empty for the default schema)
	Table       string   // Table name
	Columns     []Column // Column definitions
	PrimaryKeys []string // List of primary key column names
}

// Column represents metadata about a sink column
type Column struct {
	Name         string // Column name
	DataType     string // Portable type (TEXT, INTEGER, BIGINT, REAL, SERIAL)
	Nullable     bool   // Whether column allows NULL values
	IsPrimaryKey bool   // Whether column is part of primary key
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range tm.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in declaration order, optionally
// leaving out generated primary keys
func (tm *TableMetadata) ColumnNames(skipSerial bool) []string {
	names := make([]string, 0, len(tm.Columns))
	for _, col := range tm.Columns {
		if skipSerial && strings.EqualFold(col.DataType, "SERIAL") {
			continue
		}
		names = append(names, col.Name)
	}
	return names
}

// FullName returns the schema-qualified table name
func (tm *TableMetadata) FullName() string {
	if tm.Schema == "" {
		return tm.Table
	}
	return tm.Schema + "." + tm.Table
}

// normalizeColumnName lowercases and trims a column name so spreadsheet headers
// like " Report Time" and "report time" compare equal
func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
