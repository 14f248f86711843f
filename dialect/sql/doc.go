// Package sql provides SQL query building primitives and database drivers.
//
// This package is the foundation for generating and executing SQL queries across
// different database systems (PostgreSQL, MySQL, SQLite). It provides a fluent API
// for constructing parameterized SELECT statements and a driver that converts
// between database rows and value.Value.
//
// # Query Builder
//
// Queries are built by chaining conditions onto a Table. Each condition records
// a placeholder slot; the final SQL uses the placeholder style of the active
// dialect:
//
//	import "github.com/maxBogovick/fluxorm/dialect"
//
//	q := sql.Table("users").
//	    WithDialect(dialect.Postgres).
//	    WhereEQ("status", "active").
//	    WhereGT("age", 18).
//	    OrderBy("created_at").
//	    Limit(10)
//
//	q.SQL()    // SELECT * FROM users WHERE status = $1 AND age > $2 ORDER BY created_at ASC LIMIT 10
//	q.Params() // [active 18]
//
// Builders use value semantics. Every call returns a new Query, so a base
// query can be forked without the forks seeing each other's conditions.
//
// # Predicates
//
// Free functions build reusable predicates by column name:
//
//	sql.FieldEQ("name", "john")            // name = ?
//	sql.FieldIn("status", "active", "new") // status IN (?, ?)
//	sql.FieldIsNull("deleted_at")          // deleted_at IS NULL
//
// Typed fields give models a compile-time checked column vocabulary:
//
//	type userPredicate func(sql.Query) sql.Query
//
//	var (
//	    fieldName = sql.StringField[userPredicate]("name")
//	    fieldAge  = sql.IntField[userPredicate]("age")
//	)
//
//	q := sql.Table("users").Apply(
//	    fieldName.Contains("doe"),
//	    fieldAge.GTE(21),
//	)
//
// # Drivers
//
// Open connects to a database and returns a Driver that executes statements
// with []value.Value arguments and decodes rows into dialect.Row:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	rows, err := drv.FetchAll(ctx, q.SQL(), q.Params())
//
// FetchOne fails on empty results, FetchOptional returns nil instead. Execute
// runs mutating statements and reports affected rows.
//
// # Constraint Errors
//
// ConstraintKindOf classifies driver errors into portable constraint kinds
// (unique, foreign key, check, not null) across all three backends:
//
//	if _, err := drv.Execute(ctx, query, args); err != nil {
//	    if sql.ConstraintKindOf(err) == sql.ConstraintUnique {
//	        // duplicate key
//	    }
//	}
//
// # Statistics and Debugging
//
// Drivers can be wrapped for observability:
//
//	statsDriver := sql.NewStatsDriver(drv, sql.WithSlowQueryLog())
//	debugDriver := sql.NewDebugDriver(drv)
package sql
