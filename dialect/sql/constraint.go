package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ConstraintKind classifies database constraint violations.
type ConstraintKind uint8

// Constraint kinds, in the order backends report them most often.
const (
	ConstraintNone ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
	ConstraintNotNull
)

var constraintNames = [...]string{
	ConstraintNone:       "none",
	ConstraintUnique:     "unique",
	ConstraintForeignKey: "foreign key",
	ConstraintCheck:      "check",
	ConstraintNotNull:    "not null",
}

func (k ConstraintKind) String() string {
	if int(k) < len(constraintNames) {
		return constraintNames[k]
	}
	return "unknown"
}

// sqlStateError is implemented by errors that carry a SQLSTATE code,
// such as pgx's PgError.
type sqlStateError interface {
	SQLState() string
}

// errorNumberer is implemented by errors that carry a numeric vendor
// code, such as MySQL server errors.
type errorNumberer interface {
	Number() uint16
}

// errorCoder is implemented by errors that carry an integer result
// code, such as modernc.org/sqlite errors with extended result codes.
type errorCoder interface {
	Code() int
}

// PostgreSQL SQLSTATE codes for constraint violations (class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlBadNullColumn    = 1048
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451 // cannot delete or update a parent row
	mysqlForeignKeyChild  = 1452 // cannot add or update a child row
	mysqlCheckViolated    = 3819
)

// SQLite extended result codes for constraint violations.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// ConstraintKindOf walks the error chain and reports which constraint
// class the error violated, or ConstraintNone. Structured codes are
// preferred; drivers that expose nothing but text fall back to message
// matching.
func ConstraintKindOf(err error) ConstraintKind {
	if err == nil {
		return ConstraintNone
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return ConstraintUnique
		case pgForeignKeyViolation:
			return ConstraintForeignKey
		case pgCheckViolation:
			return ConstraintCheck
		case pgNotNullViolation:
			return ConstraintNotNull
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return ConstraintUnique
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ConstraintForeignKey
		case mysqlCheckViolated:
			return ConstraintCheck
		case mysqlBadNullColumn:
			return ConstraintNotNull
		}
	}
	if e, ok := asError[sqlStateError](err); ok {
		switch e.SQLState() {
		case pgUniqueViolation:
			return ConstraintUnique
		case pgForeignKeyViolation:
			return ConstraintForeignKey
		case pgCheckViolation:
			return ConstraintCheck
		case pgNotNullViolation:
			return ConstraintNotNull
		}
	}
	if e, ok := asError[errorNumberer](err); ok {
		switch e.Number() {
		case mysqlDuplicateEntry:
			return ConstraintUnique
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ConstraintForeignKey
		case mysqlCheckViolated:
			return ConstraintCheck
		case mysqlBadNullColumn:
			return ConstraintNotNull
		}
	}
	if e, ok := asError[errorCoder](err); ok {
		switch e.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return ConstraintUnique
		case sqliteConstraintForeignKey:
			return ConstraintForeignKey
		case sqliteConstraintCheck:
			return ConstraintCheck
		case sqliteConstraintNotNull:
			return ConstraintNotNull
		}
	}
	msg := err.Error()
	switch {
	case containsAny(msg,
		"Error 1062",                 // MySQL
		"violates unique constraint", // Postgres
		"UNIQUE constraint failed",   // SQLite
	):
		return ConstraintUnique
	case containsAny(msg,
		"Error 1451",
		"Error 1452",
		"violates foreign key constraint",
		"FOREIGN KEY constraint failed",
	):
		return ConstraintForeignKey
	case containsAny(msg,
		"Error 3819",
		"violates check constraint",
		"CHECK constraint failed",
	):
		return ConstraintCheck
	case containsAny(msg,
		"Error 1048",
		"violates not-null constraint",
		"NOT NULL constraint failed",
	):
		return ConstraintNotNull
	}
	return ConstraintNone
}

// IsConstraintError reports whether the error resulted from any
// database constraint violation.
func IsConstraintError(err error) bool {
	return ConstraintKindOf(err) != ConstraintNone
}

// IsUniqueConstraintError reports whether the error resulted from a
// uniqueness violation, e.g. a duplicate value in a unique index.
func IsUniqueConstraintError(err error) bool {
	return ConstraintKindOf(err) == ConstraintUnique
}

// IsForeignKeyConstraintError reports whether the error resulted from a
// foreign key violation, e.g. a missing parent row.
func IsForeignKeyConstraintError(err error) bool {
	return ConstraintKindOf(err) == ConstraintForeignKey
}

// IsCheckConstraintError reports whether the error resulted from a
// check constraint violation.
func IsCheckConstraintError(err error) bool {
	return ConstraintKindOf(err) == ConstraintCheck
}

// IsNotNullConstraintError reports whether the error resulted from a
// NOT NULL violation.
func IsNotNullConstraintError(err error) bool {
	return ConstraintKindOf(err) == ConstraintNotNull
}

// asError extracts an error implementing T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
