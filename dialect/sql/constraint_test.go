package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type pgStateErr struct{ state string }

func (e pgStateErr) Error() string    { return "pq: constraint violated" }
func (e pgStateErr) SQLState() string { return e.state }

type mysqlNumErr struct{ num uint16 }

func (e mysqlNumErr) Error() string  { return "mysql server error" }
func (e mysqlNumErr) Number() uint16 { return e.num }

type sqliteCodeErr struct{ code int }

func (e sqliteCodeErr) Error() string { return "sqlite error" }
func (e sqliteCodeErr) Code() int     { return e.code }

func TestConstraintKindOf(t *testing.T) {
	t.Run("PqError", func(t *testing.T) {
		assert.Equal(t, ConstraintUnique, ConstraintKindOf(&pq.Error{Code: "23505"}))
		assert.Equal(t, ConstraintForeignKey, ConstraintKindOf(&pq.Error{Code: "23503"}))
		assert.Equal(t, ConstraintCheck, ConstraintKindOf(&pq.Error{Code: "23514"}))
		assert.Equal(t, ConstraintNotNull, ConstraintKindOf(&pq.Error{Code: "23502"}))
		assert.Equal(t, ConstraintNone, ConstraintKindOf(&pq.Error{Code: "57014", Message: "canceling statement"}))
	})

	t.Run("MySQLError", func(t *testing.T) {
		assert.Equal(t, ConstraintUnique, ConstraintKindOf(&mysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry 'a@b.c' for key 'users.email'",
		}))
		assert.Equal(t, ConstraintForeignKey, ConstraintKindOf(&mysql.MySQLError{Number: 1452}))
		assert.Equal(t, ConstraintNotNull, ConstraintKindOf(&mysql.MySQLError{Number: 1048}))
		assert.Equal(t, ConstraintNone, ConstraintKindOf(&mysql.MySQLError{
			Number:  1205,
			Message: "Lock wait timeout exceeded",
		}))
	})

	t.Run("SQLState", func(t *testing.T) {
		assert.Equal(t, ConstraintUnique, ConstraintKindOf(pgStateErr{"23505"}))
		assert.Equal(t, ConstraintForeignKey, ConstraintKindOf(pgStateErr{"23503"}))
		assert.Equal(t, ConstraintCheck, ConstraintKindOf(pgStateErr{"23514"}))
		assert.Equal(t, ConstraintNotNull, ConstraintKindOf(pgStateErr{"23502"}))
		assert.Equal(t, ConstraintNone, ConstraintKindOf(pgStateErr{"40001"}))
	})

	t.Run("Number", func(t *testing.T) {
		assert.Equal(t, ConstraintUnique, ConstraintKindOf(mysqlNumErr{1062}))
		assert.Equal(t, ConstraintForeignKey, ConstraintKindOf(mysqlNumErr{1451}))
		assert.Equal(t, ConstraintForeignKey, ConstraintKindOf(mysqlNumErr{1452}))
		assert.Equal(t, ConstraintCheck, ConstraintKindOf(mysqlNumErr{3819}))
		assert.Equal(t, ConstraintNotNull, ConstraintKindOf(mysqlNumErr{1048}))
	})

	t.Run("Code", func(t *testing.T) {
		assert.Equal(t, ConstraintUnique, ConstraintKindOf(sqliteCodeErr{2067}))
		assert.Equal(t, ConstraintUnique, ConstraintKindOf(sqliteCodeErr{1555}))
		assert.Equal(t, ConstraintForeignKey, ConstraintKindOf(sqliteCodeErr{787}))
		assert.Equal(t, ConstraintCheck, ConstraintKindOf(sqliteCodeErr{275}))
		assert.Equal(t, ConstraintNotNull, ConstraintKindOf(sqliteCodeErr{1299}))
	})

	t.Run("Text", func(t *testing.T) {
		cases := map[string]ConstraintKind{
			"pq: duplicate key value violates unique constraint \"users_email_key\"": ConstraintUnique,
			"UNIQUE constraint failed: users.email":                                  ConstraintUnique,
			"Error 1062 (23000): Duplicate entry 'a' for key 'users.email'":          ConstraintUnique,
			"insert or update on table violates foreign key constraint":              ConstraintForeignKey,
			"FOREIGN KEY constraint failed":                                          ConstraintForeignKey,
			"new row violates check constraint \"age_positive\"":                     ConstraintCheck,
			"CHECK constraint failed: age_positive":                                  ConstraintCheck,
			"null value in column \"name\" violates not-null constraint":             ConstraintNotNull,
			"NOT NULL constraint failed: users.name":                                 ConstraintNotNull,
			"connection refused":                                                     ConstraintNone,
		}
		for msg, want := range cases {
			assert.Equal(t, want, ConstraintKindOf(errors.New(msg)), msg)
		}
	})

	t.Run("Wrapped", func(t *testing.T) {
		err := fmt.Errorf("dialect/sql: exec: %w", pgStateErr{"23505"})
		assert.Equal(t, ConstraintUnique, ConstraintKindOf(err))
		assert.True(t, IsConstraintError(err))
		assert.True(t, IsUniqueConstraintError(err))
		assert.False(t, IsForeignKeyConstraintError(err))
	})

	t.Run("Nil", func(t *testing.T) {
		assert.Equal(t, ConstraintNone, ConstraintKindOf(nil))
		assert.False(t, IsConstraintError(nil))
	})
}

func TestConstraintKindString(t *testing.T) {
	assert.Equal(t, "unique", ConstraintUnique.String())
	assert.Equal(t, "foreign key", ConstraintForeignKey.String())
	assert.Equal(t, "check", ConstraintCheck.String())
	assert.Equal(t, "not null", ConstraintNotNull.String())
	assert.Equal(t, "none", ConstraintNone.String())
}

func TestIsNotNullConstraintError(t *testing.T) {
	assert.True(t, IsNotNullConstraintError(mysqlNumErr{1048}))
	assert.False(t, IsNotNullConstraintError(mysqlNumErr{1062}))
	assert.True(t, IsCheckConstraintError(sqliteCodeErr{275}))
}
