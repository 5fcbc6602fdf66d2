// Package schema is the wire and DDL model for table definitions: the closed
// data-type enum, column and table specs, and the rendering of columns into
// SQLite column-definition fragments. It does no I/O and no validation; the
// provisioner owns both.
package schema

import "strings"

type (
	// DataType enumerates the column types callers may request.
	DataType string

	// Column is a single column definition, both as accepted over the wire
	// and as returned in the materialized schema.
	Column struct {
		Name          string   `json:"name" validate:"required,sqlident"`
		Type          DataType `json:"type" validate:"required,oneof=text integer float boolean timestamp"`
		PrimaryKey    bool     `json:"primary_key"`
		AutoIncrement bool     `json:"auto_increment"`
		Unique        bool     `json:"unique"`
		NotNull       bool     `json:"not_null"`

		// Default is a raw SQL expression pasted into the DEFAULT clause.
		// DDL cannot be parameterized, so this stays a trusted input.
		Default string `json:"default,omitempty"`
	}

	// Table is a named, ordered list of columns. Column order is the
	// caller's, and is preserved through DDL and into the response.
	Table struct {
		Name    string   `json:"name" validate:"required,sqlident"`
		Columns []Column `json:"columns" validate:"dive"`
	}
)

const (
	TypeText      DataType = "text"
	TypeInteger   DataType = "integer"
	TypeFloat     DataType = "float"
	TypeBoolean   DataType = "boolean"
	TypeTimestamp DataType = "timestamp"
)

// Types lists every member of the enum. Extending the enum means extending
// this list and SQLType together.
var Types = []DataType{TypeText, TypeInteger, TypeFloat, TypeBoolean, TypeTimestamp}

// Valid reports whether d is a member of the closed enum.
func (d DataType) Valid() bool {
	return d.SQLType() != ""
}

// SQLType maps a DataType onto the SQLite type name used in DDL. Unknown
// values map to "" and must be rejected before rendering.
func (d DataType) SQLType() string {
	switch d {
	case TypeText:
		return "TEXT"
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "REAL"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeTimestamp:
		return "TIMESTAMP"
	}
	return ""
}

// DefinitionSQL renders the column-definition fragment for CREATE TABLE:
// quoted name, type, then PRIMARY KEY, AUTOINCREMENT, UNIQUE, NOT NULL,
// DEFAULT. SQLite only accepts AUTOINCREMENT directly after PRIMARY KEY, so
// the clause order is fixed no matter how the flags were set.
func (c Column) DefinitionSQL() string {
	var sb strings.Builder
	sb.WriteString(QuoteIdent(c.Name))
	sb.WriteByte(' ')
	sb.WriteString(c.Type.SQLType())
	if c.PrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}
	if c.AutoIncrement {
		sb.WriteString(" AUTOINCREMENT")
	}
	if c.Unique {
		sb.WriteString(" UNIQUE")
	}
	if c.NotNull {
		sb.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(c.Default)
	}
	return sb.String()
}

// QuoteIdent wraps an identifier in double quotes, doubling embedded quotes,
// so a name can never merge into the surrounding SQL.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
