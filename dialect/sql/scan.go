package sql

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// ScanOption configures how ScanRows decodes column values.
type ScanOption func(*scanConfig)

type scanConfig struct {
	timeAsString bool
}

// TimeAsString makes DATETIME and TIMESTAMP columns on MySQL and SQLite
// decode to their textual form instead of UTC instants. PostgreSQL
// timestamps carry zone information on the wire and always decode to
// instants.
func TimeAsString() ScanOption {
	return func(c *scanConfig) { c.timeAsString = true }
}

// ScanRows drains rows into decoded maps, one per row, keyed by column
// name. Each column is decoded by the dialect's type table: the declared
// database type picks the target kind, and the raw driver value is
// coerced into it. Unknown types fall back to the raw value's own
// representation, except on PostgreSQL where names that look like user
// defined enum types decode to the enum kind.
//
// ScanRows does not close rows.
func ScanRows(rows *sql.Rows, d string, opts ...ScanOption) ([]dialect.Row, error) {
	var cfg scanConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sql: reading columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("sql: reading column types: %w", err)
	}
	typeNames := make([]string, len(columns))
	for i, ct := range types {
		typeNames[i] = ct.DatabaseTypeName()
	}
	dest := make([]any, len(columns))
	for i := range dest {
		dest[i] = new(any)
	}
	var out []dialect.Row
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sql: scanning row: %w", err)
		}
		row := make(dialect.Row, len(columns))
		for i, name := range columns {
			raw := *(dest[i].(*any))
			row[name] = decodeColumn(d, typeNames[i], raw, cfg)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql: iterating rows: %w", err)
	}
	return out, nil
}

// decodeColumn maps one raw driver value to a Value using the dialect's
// type table. typeName is the database type as reported by the driver;
// length suffixes like VARCHAR(255) are ignored.
func decodeColumn(d, typeName string, raw any, cfg scanConfig) value.Value {
	if raw == nil {
		return value.Null()
	}
	tn := normalizeTypeName(typeName)
	switch d {
	case dialect.Postgres:
		return decodePostgres(tn, raw, cfg)
	case dialect.MySQL:
		return decodeMySQL(tn, raw, cfg)
	case dialect.SQLite:
		return decodeSQLite(tn, raw, cfg)
	default:
		return decodeAny(raw)
	}
}

func normalizeTypeName(typeName string) string {
	tn := typeName
	if i := strings.IndexByte(tn, '('); i >= 0 {
		tn = tn[:i]
	}
	return strings.ToUpper(strings.TrimSpace(tn))
}

func decodePostgres(tn string, raw any, cfg scanConfig) value.Value {
	switch tn {
	case "BOOL", "BOOLEAN":
		return boolValue(raw)
	case "INT2", "SMALLINT":
		return int16Value(raw)
	case "INT4", "INTEGER", "INT":
		return int32Value(raw)
	case "INT8", "BIGINT":
		return int64Value(raw)
	case "FLOAT4", "REAL":
		return float32Value(raw)
	case "FLOAT8", "DOUBLE PRECISION", "DOUBLE":
		return float64Value(raw)
	case "DECIMAL", "NUMERIC":
		return decimalValue(raw)
	case "TEXT", "VARCHAR", "CHAR", "BPCHAR", "NAME":
		return stringValue(raw)
	case "BYTEA":
		return bytesValue(raw)
	case "UUID":
		return uuidValue(raw)
	case "JSON", "JSONB":
		return jsonValue(raw)
	case "DATE":
		return dateValue(raw)
	case "TIME":
		return timeOfDayValue(raw)
	case "TIMESTAMP", "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE":
		return instantValue(raw)
	default:
		if isLikelyEnumType(tn) {
			if s, ok := asString(raw); ok {
				return value.Enum(s)
			}
			return value.Null()
		}
		return decodeAny(raw)
	}
}

func decodeMySQL(tn string, raw any, cfg scanConfig) value.Value {
	switch tn {
	case "TINYINT", "BOOL", "BOOLEAN":
		return boolValue(raw)
	case "SMALLINT", "MEDIUMINT", "INT", "INTEGER":
		return int32Value(raw)
	case "BIGINT":
		return int64Value(raw)
	case "FLOAT", "FLOAT4":
		return float32Value(raw)
	case "DOUBLE", "FLOAT8":
		return float64Value(raw)
	case "DECIMAL", "NUMERIC":
		return decimalValue(raw)
	case "VARCHAR", "TEXT", "CHAR", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT":
		return stringValue(raw)
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "VARBINARY", "BINARY":
		return bytesValue(raw)
	case "UUID":
		return uuidValue(raw)
	case "JSON":
		return jsonValue(raw)
	case "DATE":
		return dateValue(raw)
	case "TIME":
		return timeOfDayValue(raw)
	case "DATETIME", "TIMESTAMP":
		return datetimeValue(raw, cfg)
	default:
		return decodeAny(raw)
	}
}

func decodeSQLite(tn string, raw any, cfg scanConfig) value.Value {
	switch tn {
	case "BOOLEAN", "BOOL":
		return boolValue(raw)
	case "INTEGER", "INT":
		return int64Value(raw)
	case "REAL", "FLOAT":
		return float64Value(raw)
	case "DECIMAL", "NUMERIC":
		return decimalValue(raw)
	case "TEXT", "VARCHAR", "CHAR":
		return stringValue(raw)
	case "BLOB":
		return bytesValue(raw)
	case "DATE":
		return dateValue(raw)
	case "TIME":
		return timeOfDayValue(raw)
	case "DATETIME", "TIMESTAMP":
		return datetimeValue(raw, cfg)
	default:
		return decodeAny(raw)
	}
}

// pgBuiltinTypes are names that can never be user defined enum types.
var pgBuiltinTypes = map[string]struct{}{
	"int2": {}, "int4": {}, "int8": {}, "smallint": {}, "integer": {}, "bigint": {},
	"text": {}, "varchar": {}, "char": {}, "bpchar": {}, "name": {},
	"bool": {}, "boolean": {},
	"timestamp": {}, "timestamptz": {}, "timestamp with time zone": {},
	"date": {}, "time": {}, "json": {}, "jsonb": {}, "bytea": {},
	"numeric": {}, "decimal": {}, "float4": {}, "float8": {}, "real": {},
	"double precision": {}, "double": {}, "uuid": {},
}

// isLikelyEnumType reports whether a PostgreSQL type name plausibly
// names a user defined enum or domain. Built-in names, array types, and
// names with characters outside [A-Za-z0-9_] are excluded.
func isLikelyEnumType(typeName string) bool {
	tn := strings.ToLower(typeName)
	if tn == "" {
		return false
	}
	if _, ok := pgBuiltinTypes[tn]; ok {
		return false
	}
	if strings.HasSuffix(tn, "[]") || strings.HasPrefix(tn, "_") {
		return false
	}
	for _, r := range tn {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// decodeAny decodes a value of unknown database type by its runtime
// representation. The driver has already resolved the wire type, so the
// Go type of raw is the best remaining signal.
func decodeAny(raw any) value.Value {
	switch x := raw.(type) {
	case bool:
		return value.Bool(x)
	case int64:
		return value.Int64(x)
	case float64:
		return value.Float64(x)
	case time.Time:
		return value.Time(x)
	case string:
		return value.String(x)
	case []byte:
		if utf8.Valid(x) {
			return value.String(string(x))
		}
		return bytesValue(x)
	default:
		return value.Null()
	}
}

// boolValue decodes booleans with an integer fallback: drivers that
// store booleans as integers report 0 and 1, and any other integer is
// kept as is.
func boolValue(raw any) value.Value {
	switch x := raw.(type) {
	case bool:
		return value.Bool(x)
	case int64:
		switch x {
		case 0:
			return value.Bool(false)
		case 1:
			return value.Bool(true)
		default:
			return value.Int64(x)
		}
	case string, []byte:
		s, _ := asString(raw)
		switch strings.ToLower(s) {
		case "true", "t":
			return value.Bool(true)
		case "false", "f":
			return value.Bool(false)
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return boolValue(n)
		}
		return value.Null()
	default:
		return value.Null()
	}
}

func int16Value(raw any) value.Value {
	n, ok := asInt64(raw)
	if !ok {
		return value.Null()
	}
	if n < -32768 || n > 32767 {
		return value.Int64(n)
	}
	return value.Int16(int16(n))
}

func int32Value(raw any) value.Value {
	n, ok := asInt64(raw)
	if !ok {
		return value.Null()
	}
	if n < -2147483648 || n > 2147483647 {
		return value.Int64(n)
	}
	return value.Int32(int32(n))
}

func int64Value(raw any) value.Value {
	if n, ok := asInt64(raw); ok {
		return value.Int64(n)
	}
	return value.Null()
}

func float32Value(raw any) value.Value {
	if f, ok := asFloat64(raw); ok {
		return value.Float32(float32(f))
	}
	return value.Null()
}

func float64Value(raw any) value.Value {
	if f, ok := asFloat64(raw); ok {
		return value.Float64(f)
	}
	return value.Null()
}

// decimalValue decodes arbitrary precision numerics: exact forms parse
// to the decimal kind, a textual form that fails to parse is kept as a
// string, and a float form stays a float.
func decimalValue(raw any) value.Value {
	switch x := raw.(type) {
	case int64:
		return value.Decimal(decimal.NewFromInt(x))
	case float64:
		return value.Float64(x)
	case string, []byte:
		s, _ := asString(raw)
		d, err := decimal.NewFromString(s)
		if err != nil {
			return value.String(s)
		}
		return value.Decimal(d)
	default:
		return value.Null()
	}
}

func stringValue(raw any) value.Value {
	if s, ok := asString(raw); ok {
		return value.String(s)
	}
	return value.Null()
}

func bytesValue(raw any) value.Value {
	switch x := raw.(type) {
	case []byte:
		b := make([]byte, len(x))
		copy(b, x)
		return value.Bytes(b)
	case string:
		return value.Bytes([]byte(x))
	default:
		return value.Null()
	}
}

// uuidValue decodes UUID columns, keeping unparseable text as a string.
func uuidValue(raw any) value.Value {
	switch x := raw.(type) {
	case string:
		if u, err := uuid.Parse(x); err == nil {
			return value.UUID(u)
		}
		return value.String(x)
	case []byte:
		if len(x) == 16 {
			if u, err := uuid.FromBytes(x); err == nil {
				return value.UUID(u)
			}
		}
		if u, err := uuid.ParseBytes(x); err == nil {
			return value.UUID(u)
		}
		return value.String(string(x))
	default:
		return value.Null()
	}
}

func jsonValue(raw any) value.Value {
	s, ok := asString(raw)
	if !ok {
		return value.Null()
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return value.Null()
	}
	return value.JSON(v)
}

// dateValue decodes DATE columns to midnight UTC of the calendar day.
// A textual value that is not a date is kept as a string.
func dateValue(raw any) value.Value {
	switch x := raw.(type) {
	case time.Time:
		return value.Time(midnightUTC(x.UTC()))
	case string, []byte:
		s, _ := asString(raw)
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return value.Time(midnightUTC(t))
		}
		if v, err := value.ParseTime(s); err == nil {
			t, _ := v.AsTime()
			return value.Time(midnightUTC(t.UTC()))
		}
		return value.String(s)
	default:
		return value.Null()
	}
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// timeOfDayValue decodes TIME columns to their textual form. A bare
// time of day has no calendar component to anchor an instant.
func timeOfDayValue(raw any) value.Value {
	switch x := raw.(type) {
	case time.Time:
		return value.String(x.Format("15:04:05.999999999"))
	case string, []byte:
		s, _ := asString(raw)
		return value.String(s)
	default:
		return value.Null()
	}
}

// instantValue decodes PostgreSQL timestamps, which always become UTC
// instants.
func instantValue(raw any) value.Value {
	switch x := raw.(type) {
	case time.Time:
		return value.Time(x)
	case string, []byte:
		s, _ := asString(raw)
		if v, err := value.ParseTime(s); err == nil {
			return v
		}
		return value.Null()
	default:
		return value.Null()
	}
}

// datetimeValue decodes MySQL and SQLite datetimes. In string mode the
// textual form is kept verbatim; otherwise the value is parsed to a UTC
// instant, and text that fails every known layout is kept as a string.
func datetimeValue(raw any, cfg scanConfig) value.Value {
	switch x := raw.(type) {
	case time.Time:
		if cfg.timeAsString {
			return value.String(x.Format("2006-01-02 15:04:05"))
		}
		return value.Time(x)
	case string, []byte:
		s, _ := asString(raw)
		if cfg.timeAsString {
			return value.String(s)
		}
		if v, err := value.ParseTime(s); err == nil {
			return v
		}
		return value.String(s)
	default:
		return value.Null()
	}
}

func asInt64(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int64:
		return x, true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func asFloat64(raw any) (float64, bool) {
	switch x := raw.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(raw any) (string, bool) {
	switch x := raw.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}
