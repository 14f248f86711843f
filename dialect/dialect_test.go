package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maxBogovick/fluxorm/dialect"
)

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", dialect.Placeholder(dialect.Postgres, 1))
	assert.Equal(t, "$42", dialect.Placeholder(dialect.Postgres, 42))
	assert.Equal(t, "?", dialect.Placeholder(dialect.MySQL, 1))
	assert.Equal(t, "?", dialect.Placeholder(dialect.SQLite, 7))
}

func TestQuoteIdentifier(t *testing.T) {
	t.Run("postgres and sqlite use double quotes", func(t *testing.T) {
		assert.Equal(t, `"users"`, dialect.QuoteIdentifier(dialect.Postgres, "users"))
		assert.Equal(t, `"users"`, dialect.QuoteIdentifier(dialect.SQLite, "users"))
	})
	t.Run("mysql uses backticks", func(t *testing.T) {
		assert.Equal(t, "`users`", dialect.QuoteIdentifier(dialect.MySQL, "users"))
	})
	t.Run("embedded quotes are doubled", func(t *testing.T) {
		assert.Equal(t, `"we""ird"`, dialect.QuoteIdentifier(dialect.Postgres, `we"ird`))
		assert.Equal(t, "`we``ird`", dialect.QuoteIdentifier(dialect.MySQL, "we`ird"))
	})
}

func TestReturning(t *testing.T) {
	assert.Equal(t, " RETURNING *", dialect.ReturningClause(dialect.Postgres))
	assert.Equal(t, "", dialect.ReturningClause(dialect.MySQL))
	assert.Equal(t, "", dialect.ReturningClause(dialect.SQLite))

	assert.True(t, dialect.SupportsReturning(dialect.Postgres))
	assert.False(t, dialect.SupportsReturning(dialect.MySQL))
	assert.False(t, dialect.SupportsReturning(dialect.SQLite))
}

func TestLimitClause(t *testing.T) {
	assert.Equal(t, "LIMIT 10", dialect.LimitClause(dialect.Postgres, 10, nil))
	offset := 20
	assert.Equal(t, "LIMIT 10 OFFSET 20", dialect.LimitClause(dialect.MySQL, 10, &offset))
}
