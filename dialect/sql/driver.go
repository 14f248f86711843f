package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// ExecQuerier wraps the standard Exec and Query methods of sql.DB,
// sql.Conn, and sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.Querier over any ExecQuerier. Parameters are
// lowered per dialect before they reach database/sql, and result rows
// are decoded by the dialect's type table.
type Conn struct {
	ExecQuerier
	dialect string
	scan    []ScanOption
}

// Execute runs a mutating statement and reports the affected row count.
func (c Conn) Execute(ctx context.Context, query string, args []value.Value) (int64, error) {
	argv, err := bindArgs(c.dialect, args)
	if err != nil {
		return 0, err
	}
	res, err := c.ExecContext(ctx, query, argv...)
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: rows affected: %w", err)
	}
	return n, nil
}

// FetchAll runs a query and decodes every result row.
func (c Conn) FetchAll(ctx context.Context, query string, args []value.Value) ([]dialect.Row, error) {
	argv, err := bindArgs(c.dialect, args)
	if err != nil {
		return nil, err
	}
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	defer rows.Close()
	return ScanRows(rows, c.dialect, c.scan...)
}

// FetchOne returns exactly one row. An empty result is an error
// wrapping sql.ErrNoRows.
func (c Conn) FetchOne(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	rows, err := c.FetchAll(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dialect/sql: fetch one: %w", sql.ErrNoRows)
	}
	return rows[0], nil
}

// FetchOptional returns the first row, or (nil, nil) when the result is
// empty.
func (c Conn) FetchOptional(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	rows, err := c.FetchAll(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Dialect reports the dialect the connection was opened with.
func (c Conn) Dialect() string { return c.dialect }

var _ dialect.Driver = (*Driver)(nil)

// Driver is a dialect.Driver backed by a database/sql connection pool.
type Driver struct {
	Conn
	db *sql.DB
}

// Option configures a Driver.
type Option func(*Conn)

// WithScanOptions sets row decoding options applied to every fetch.
func WithScanOptions(opts ...ScanOption) Option {
	return func(c *Conn) { c.scan = opts }
}

// driverNames maps dialect names to registered database/sql drivers.
var driverNames = map[string]string{
	dialect.Postgres: "postgres",
	dialect.MySQL:    "mysql",
	dialect.SQLite:   "sqlite",
}

// Open opens a connection pool for the dialect and wraps it in a
// Driver. The matching database/sql driver must be linked into the
// binary by the caller.
func Open(d, dsn string, opts ...Option) (*Driver, error) {
	name, ok := driverNames[d]
	if !ok {
		return nil, fmt.Errorf("dialect/sql: unsupported dialect %q", d)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", d, err)
	}
	return OpenDB(d, db, opts...), nil
}

// OpenDB wraps an existing database handle in a Driver.
func OpenDB(d string, db *sql.DB, opts ...Option) *Driver {
	c := Conn{ExecQuerier: db, dialect: d}
	for _, opt := range opts {
		opt(&c)
	}
	return &Driver{Conn: c, db: db}
}

// DB returns the underlying database handle.
func (d *Driver) DB() *sql.DB { return d.db }

// Tx begins a transaction with default isolation.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx begins a transaction with the given options.
func (d *Driver) BeginTx(ctx context.Context, opts *sql.TxOptions) (dialect.Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin tx: %w", err)
	}
	return &Tx{
		Conn: Conn{ExecQuerier: tx, dialect: d.dialect, scan: d.scan},
		tx:   tx,
	}, nil
}

// Ping verifies the backend is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the connection pool.
func (d *Driver) Close() error { return d.db.Close() }

var _ dialect.Tx = (*Tx)(nil)

// Tx is a dialect.Tx over a database/sql transaction.
type Tx struct {
	Conn
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("dialect/sql: commit: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("dialect/sql: rollback: %w", err)
	}
	return nil
}

// bindArgs lowers parameter values into driver arguments.
func bindArgs(d string, args []value.Value) ([]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]any, len(args))
	for i, v := range args {
		a, err := bindArg(d, v)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: bind arg %d: %w", i+1, err)
		}
		out[i] = a
	}
	return out, nil
}

// bindArg lowers one value. Scalars pass through natively. UUIDs and
// decimals ride their text forms outside Postgres, JSON documents are
// marshaled to text everywhere, and arrays become typed Postgres arrays
// when their elements share a scalar kind, falling back to JSON text.
func bindArg(d string, v value.Value) (any, error) {
	switch v.Kind() {
	case value.KindNull:
		return nil, nil
	case value.KindBool, value.KindInt16, value.KindInt32, value.KindInt64,
		value.KindFloat64, value.KindString, value.KindBytes, value.KindTime:
		return v.Native(), nil
	case value.KindFloat32:
		f, _ := v.AsFloat32()
		return float64(f), nil
	case value.KindUUID:
		u, _ := v.AsUUID()
		if d == dialect.Postgres {
			return u, nil
		}
		return u.String(), nil
	case value.KindDecimal:
		dec, _ := v.AsDecimal()
		if d == dialect.Postgres {
			return dec, nil
		}
		return dec.String(), nil
	case value.KindEnum:
		s, _ := v.AsString()
		return s, nil
	case value.KindJSON:
		doc, _ := v.AsJSON()
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case value.KindArray:
		elems, _ := v.AsArray()
		if d == dialect.Postgres {
			if arr, ok := typedArray(elems); ok {
				return pq.Array(arr), nil
			}
		}
		b, err := json.Marshal(jsonForms(elems))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", v.Kind())
	}
}

// typedArray projects array elements into a homogeneous slice that
// pq.Array understands. Mixed kinds, nulls, and nested structures
// report false.
func typedArray(elems []value.Value) (any, bool) {
	if len(elems) == 0 {
		return []string{}, true
	}
	switch elems[0].Kind() {
	case value.KindBool:
		out := make([]bool, len(elems))
		for i, e := range elems {
			if e.Kind() != value.KindBool {
				return nil, false
			}
			out[i], _ = e.AsBool()
		}
		return out, true
	case value.KindInt16, value.KindInt32, value.KindInt64:
		out := make([]int64, len(elems))
		for i, e := range elems {
			n, ok := e.AsInt64()
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	case value.KindFloat32, value.KindFloat64:
		out := make([]float64, len(elems))
		for i, e := range elems {
			switch e.Kind() {
			case value.KindFloat32, value.KindFloat64:
			default:
				return nil, false
			}
			out[i], _ = e.AsFloat64()
		}
		return out, true
	case value.KindString, value.KindEnum:
		out := make([]string, len(elems))
		for i, e := range elems {
			s, ok := e.AsString()
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	case value.KindUUID:
		out := make([]string, len(elems))
		for i, e := range elems {
			u, ok := e.AsUUID()
			if !ok {
				return nil, false
			}
			out[i] = u.String()
		}
		return out, true
	case value.KindDecimal:
		out := make([]string, len(elems))
		for i, e := range elems {
			dec, ok := e.AsDecimal()
			if !ok {
				return nil, false
			}
			out[i] = dec.String()
		}
		return out, true
	case value.KindTime:
		out := make([]time.Time, len(elems))
		for i, e := range elems {
			t, ok := e.AsTime()
			if !ok {
				return nil, false
			}
			out[i] = t
		}
		return out, true
	default:
		return nil, false
	}
}

// jsonForms projects values into JSON-marshalable forms: instants as
// RFC 3339 text, UUIDs and decimals as their text forms, arrays
// recursively, everything else as its native representation.
func jsonForms(elems []value.Value) []any {
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = jsonForm(e)
	}
	return out
}

func jsonForm(v value.Value) any {
	switch v.Kind() {
	case value.KindTime:
		t, _ := v.AsTime()
		return t.Format(time.RFC3339Nano)
	case value.KindUUID:
		u, _ := v.AsUUID()
		return u.String()
	case value.KindDecimal:
		d, _ := v.AsDecimal()
		return d.String()
	case value.KindArray:
		arr, _ := v.AsArray()
		return jsonForms(arr)
	default:
		return v.Native()
	}
}
