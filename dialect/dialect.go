package dialect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/maxBogovick/fluxorm/value"
)

// Dialect names.
const (
	// Postgres is the PostgreSQL dialect.
	Postgres = "postgres"
	// MySQL is the MySQL dialect.
	MySQL = "mysql"
	// SQLite is the SQLite dialect.
	SQLite = "sqlite"
)

// Placeholder returns the parameter marker for the 1-based slot n:
// numbered ($n) for Postgres, positional (?) otherwise.
func Placeholder(dialect string, n int) string {
	if dialect == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteIdentifier quotes an identifier per the dialect, doubling any
// embedded quote character.
func QuoteIdentifier(dialect, name string) string {
	if dialect == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ReturningClause returns the clause appended to mutations that should
// report the affected rows, or an empty string when the dialect has no
// such clause.
func ReturningClause(dialect string) string {
	if dialect == Postgres {
		return " RETURNING *"
	}
	return ""
}

// SupportsReturning reports whether the dialect can return generated
// keys from a mutation in the same statement.
func SupportsReturning(dialect string) bool {
	return dialect == Postgres
}

// LimitClause renders a LIMIT clause with an optional OFFSET. All
// three dialects share the spelling.
func LimitClause(_ string, limit int, offset *int) string {
	if offset != nil {
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, *offset)
	}
	return fmt.Sprintf("LIMIT %d", limit)
}

// Row is one decoded result row, keyed by column name.
type Row map[string]value.Value

// Querier is the query surface shared by drivers and transactions.
type Querier interface {
	// Execute runs a statement and reports the affected row count.
	Execute(ctx context.Context, query string, args []value.Value) (int64, error)
	// FetchOne returns exactly one row. A result with no rows is an
	// error wrapping sql.ErrNoRows.
	FetchOne(ctx context.Context, query string, args []value.Value) (Row, error)
	// FetchAll returns every result row.
	FetchAll(ctx context.Context, query string, args []value.Value) ([]Row, error)
	// FetchOptional returns the first row, or (nil, nil) when the
	// result is empty.
	FetchOptional(ctx context.Context, query string, args []value.Value) (Row, error)
	// Dialect reports the driver dialect name.
	Dialect() string
}

// Driver is the abstract backend capability consumed by the ORM layer.
type Driver interface {
	Querier
	// Tx begins a transaction.
	Tx(ctx context.Context) (Tx, error)
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying resources.
	Close() error
}

// Tx is a transaction handle sharing the Querier surface.
type Tx interface {
	Querier
	Commit() error
	Rollback() error
}
