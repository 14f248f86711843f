// Package dialect provides database dialect abstraction for FluxORM.
//
// This package defines the interfaces and types used for database-specific
// operations, allowing FluxORM to support multiple database backends
// including PostgreSQL, MySQL, and SQLite.
//
// # Supported Dialects
//
// The following dialects are supported:
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
//
// # Dialect Constants
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Rendering Functions
//
// Pure functions describe how a dialect spells placeholders, quoting,
// and clauses:
//
//	dialect.Placeholder(dialect.Postgres, 2)        // "$2"
//	dialect.Placeholder(dialect.SQLite, 2)          // "?"
//	dialect.QuoteIdentifier(dialect.MySQL, "name")  // "`name`"
//	dialect.SupportsReturning(dialect.Postgres)     // true
//	dialect.LimitClause(dialect.MySQL, 10, &offset) // "LIMIT 10 OFFSET 20"
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Querier
//	    Tx(ctx context.Context) (Tx, error)
//	    Ping(ctx context.Context) error
//	    Close() error
//	}
//
// # Transaction Interface
//
// The Tx interface pairs the query surface with transaction control:
//
//	type Tx interface {
//	    Querier
//	    Commit() error
//	    Rollback() error
//	}
//
// # Querier Interface
//
// The Querier interface is implemented by both Driver and Tx, so code
// can run the same operations inside and outside a transaction:
//
//	type Querier interface {
//	    Execute(ctx context.Context, query string, args []value.Value) (int64, error)
//	    FetchOne(ctx context.Context, query string, args []value.Value) (Row, error)
//	    FetchAll(ctx context.Context, query string, args []value.Value) ([]Row, error)
//	    FetchOptional(ctx context.Context, query string, args []value.Value) (Row, error)
//	    Dialect() string
//	}
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/maxBogovick/fluxorm/dialect"
//	    "github.com/maxBogovick/fluxorm/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: query builder, typed fields, row decoder, and the
//     database/sql-backed driver implementation
package dialect
