package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxBogovick/fluxorm/dialect"
)

// Portable column types. Each maps to a native type per dialect at
// render time; unrecognized strings pass through unchanged.
const (
	TypeSmallInt  = "SMALLINT"
	TypeInt       = "INTEGER"
	TypeBigInt    = "BIGINT"
	TypeReal      = "REAL"
	TypeDouble    = "DOUBLE PRECISION"
	TypeBool      = "BOOLEAN"
	TypeText      = "TEXT"
	TypeTimestamp = "TIMESTAMP"
	TypeUUID      = "UUID"
	TypeJSON      = "JSONB"
)

// Table describes a database table.
type Table struct {
	Name       string
	Columns    []*Column
	Timestamps bool
	SoftDelete bool
}

// NewTable returns a table definition with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumn appends columns to the table definition.
func (t *Table) AddColumn(cols ...*Column) *Table {
	t.Columns = append(t.Columns, cols...)
	return t
}

// WithTimestamps adds created_at and updated_at columns to the rendered DDL.
func (t *Table) WithTimestamps() *Table {
	t.Timestamps = true
	return t
}

// WithSoftDelete adds a nullable deleted_at column to the rendered DDL.
func (t *Table) WithSoftDelete() *Table {
	t.SoftDelete = true
	return t
}

// Column describes a table column.
type Column struct {
	Name string
	Type string

	nullable      bool
	primaryKey    bool
	unique        bool
	indexed       bool
	autoIncrement bool
	maxLength     int
	defaultExpr   string
	hasDefault    bool
}

// NewColumn returns a column with an explicit SQL type. The type string
// is mapped per dialect if it is one of the portable Type constants and
// rendered verbatim otherwise.
func NewColumn(name, sqlType string) *Column {
	return &Column{Name: name, Type: sqlType}
}

// SmallInt returns a 16-bit integer column.
func SmallInt(name string) *Column { return NewColumn(name, TypeSmallInt) }

// Int returns a 32-bit integer column.
func Int(name string) *Column { return NewColumn(name, TypeInt) }

// BigInt returns a 64-bit integer column.
func BigInt(name string) *Column { return NewColumn(name, TypeBigInt) }

// Real returns a single-precision float column.
func Real(name string) *Column { return NewColumn(name, TypeReal) }

// Double returns a double-precision float column.
func Double(name string) *Column { return NewColumn(name, TypeDouble) }

// Bool returns a boolean column.
func Bool(name string) *Column { return NewColumn(name, TypeBool) }

// Text returns a text column. Use MaxLen to render it as VARCHAR.
func Text(name string) *Column { return NewColumn(name, TypeText) }

// Timestamp returns a timestamp column.
func Timestamp(name string) *Column { return NewColumn(name, TypeTimestamp) }

// UUID returns a UUID column.
func UUID(name string) *Column { return NewColumn(name, TypeUUID) }

// JSON returns a JSON document column.
func JSON(name string) *Column { return NewColumn(name, TypeJSON) }

// Nullable allows NULL values in the column.
func (c *Column) Nullable() *Column {
	c.nullable = true
	return c
}

// PrimaryKey marks the column as the table's primary key.
func (c *Column) PrimaryKey() *Column {
	c.primaryKey = true
	return c
}

// Unique adds a unique constraint on the column.
func (c *Column) Unique() *Column {
	c.unique = true
	return c
}

// Indexed creates a secondary index on the column.
func (c *Column) Indexed() *Column {
	c.indexed = true
	return c
}

// AutoIncrement makes a primary key column auto-incrementing.
func (c *Column) AutoIncrement() *Column {
	c.autoIncrement = true
	return c
}

// MaxLen limits the column length. Text columns with a limit render as
// VARCHAR(n) on PostgreSQL and MySQL.
func (c *Column) MaxLen(n int) *Column {
	c.maxLength = n
	return c
}

// Default sets the column's DEFAULT expression, rendered verbatim.
func (c *Column) Default(expr string) *Column {
	c.defaultExpr = expr
	c.hasDefault = true
	return c
}

// CreateSQL renders the CREATE TABLE statement for the given dialect.
func (t *Table) CreateSQL(d string) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(t.Name)
	sb.WriteString(" (\n")

	defs := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		defs = append(defs, "  "+col.DefinitionSQL(d))
	}
	sb.WriteString(strings.Join(defs, ",\n"))

	if t.Timestamps {
		ts := timestampType(d)
		sb.WriteString(",\n  created_at " + ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP")
		sb.WriteString(",\n  updated_at " + ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP")
	}
	if t.SoftDelete {
		sb.WriteString(",\n  deleted_at " + timestampType(d))
	}

	sb.WriteString("\n)")
	if d == dialect.MySQL {
		sb.WriteString(" ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")
	}
	sb.WriteString(";")
	return sb.String()
}

// IndexSQL renders the index statements for the given dialect. Columns
// are visited in declared order; an index statement is emitted for each
// indexed non-key column and a unique constraint for each unique non-key
// column.
func (t *Table) IndexSQL(d string) []string {
	var stmts []string
	for _, col := range t.Columns {
		if col.indexed && !col.primaryKey {
			stmts = append(stmts, fmt.Sprintf(
				"CREATE INDEX idx_%s_%s ON %s (%s);",
				t.Name, col.Name, t.Name, col.Name,
			))
		}
		if col.unique && !col.primaryKey {
			name := fmt.Sprintf("uq_%s_%s", t.Name, col.Name)
			switch d {
			case dialect.MySQL:
				stmts = append(stmts, fmt.Sprintf(
					"ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);",
					t.Name, name, col.Name,
				))
			default:
				stmts = append(stmts, fmt.Sprintf(
					"CREATE UNIQUE INDEX %s ON %s (%s);",
					name, t.Name, col.Name,
				))
			}
		}
	}
	return stmts
}

// DropSQL renders the DROP TABLE statement.
func (t *Table) DropSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", t.Name)
}

// AddColumnSQL renders an ALTER TABLE statement adding the column.
func (t *Table) AddColumnSQL(c *Column, d string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", t.Name, c.DefinitionSQL(d))
}

// DropColumnSQL renders an ALTER TABLE statement dropping the column.
func (t *Table) DropColumnSQL(column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", t.Name, column)
}

// DefinitionSQL renders the column definition for the given dialect.
func (c *Column) DefinitionSQL(d string) string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteString(" ")
	sb.WriteString(c.typeFor(d))

	if c.primaryKey {
		sb.WriteString(" PRIMARY KEY")
		if c.autoIncrement {
			switch d {
			case dialect.Postgres:
				sb.WriteString(" GENERATED ALWAYS AS IDENTITY")
			case dialect.MySQL:
				sb.WriteString(" AUTO_INCREMENT")
			case dialect.SQLite:
				sb.WriteString(" AUTOINCREMENT")
			}
		}
	}
	if !c.nullable && !c.primaryKey {
		sb.WriteString(" NOT NULL")
	}
	if c.hasDefault {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(c.defaultExpr)
	}
	return sb.String()
}

func (c *Column) typeFor(d string) string {
	switch d {
	case dialect.Postgres:
		if c.Type == TypeText && c.maxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.maxLength)
		}
		return c.Type
	case dialect.MySQL:
		switch c.Type {
		case TypeInt:
			return "INT"
		case TypeReal:
			return "FLOAT"
		case TypeDouble:
			return "DOUBLE"
		case TypeBool:
			return "TINYINT(1)"
		case TypeText:
			switch {
			case c.maxLength == 0:
				return "TEXT"
			case c.maxLength <= 255:
				return fmt.Sprintf("VARCHAR(%d)", c.maxLength)
			case c.maxLength <= 65535:
				return "TEXT"
			default:
				return "LONGTEXT"
			}
		case TypeUUID:
			return "CHAR(36)"
		case TypeJSON:
			return "JSON"
		default:
			return c.Type
		}
	case dialect.SQLite:
		switch c.Type {
		case TypeSmallInt, TypeInt, TypeBigInt:
			return "INTEGER"
		case TypeReal, TypeDouble:
			return "REAL"
		case TypeBool:
			return "INTEGER"
		case TypeText:
			return "TEXT"
		case TypeTimestamp:
			return "DATETIME"
		default:
			return "TEXT"
		}
	default:
		return c.Type
	}
}

func timestampType(d string) string {
	if d == dialect.SQLite {
		return "DATETIME"
	}
	return "TIMESTAMP"
}

// Create executes the CREATE TABLE and index statements for each table
// on the driver's dialect.
func Create(ctx context.Context, drv dialect.Driver, tables ...*Table) error {
	d := drv.Dialect()
	for _, t := range tables {
		if _, err := drv.Execute(ctx, t.CreateSQL(d), nil); err != nil {
			return fmt.Errorf("schema: create table %q: %w", t.Name, err)
		}
		for _, stmt := range t.IndexSQL(d) {
			if _, err := drv.Execute(ctx, stmt, nil); err != nil {
				return fmt.Errorf("schema: create index on %q: %w", t.Name, err)
			}
		}
	}
	return nil
}

// Drop executes DROP TABLE statements for each table in reverse order,
// so dependent tables are dropped before the tables they reference.
func Drop(ctx context.Context, drv dialect.Driver, tables ...*Table) error {
	for i := len(tables) - 1; i >= 0; i-- {
		t := tables[i]
		if _, err := drv.Execute(ctx, t.DropSQL(), nil); err != nil {
			return fmt.Errorf("schema: drop table %q: %w", t.Name, err)
		}
	}
	return nil
}
