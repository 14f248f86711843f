package sql

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

type userPredicate func(Query) Query

var (
	userName   = StringField[userPredicate]("name")
	userAge    = IntField[userPredicate]("age")
	userScore  = Float64Field[userPredicate]("score")
	userActive = BoolField[userPredicate]("active")
	userRef    = Int64Field[userPredicate]("ref")
)

func TestTypedFieldsMatchUntyped(t *testing.T) {
	base := Table("users").WithDialect(dialect.Postgres)

	cases := []struct {
		name    string
		typed   userPredicate
		untyped func(Query) Query
	}{
		{"EQ", userName.EQ("Ada"), func(q Query) Query { return q.WhereEQ("name", "Ada") }},
		{"NEQ", userAge.NEQ(30), func(q Query) Query { return q.WhereNEQ("age", 30) }},
		{"GT", userAge.GT(18), func(q Query) Query { return q.WhereGT("age", 18) }},
		{"GTE", userScore.GTE(1.5), func(q Query) Query { return q.WhereGTE("score", 1.5) }},
		{"LT", userAge.LT(65), func(q Query) Query { return q.WhereLT("age", 65) }},
		{"LTE", userRef.LTE(9), func(q Query) Query { return q.WhereLTE("ref", int64(9)) }},
		{"In", userAge.In(1, 2, 3), func(q Query) Query { return q.WhereIn("age", 1, 2, 3) }},
		{"NotIn", userAge.NotIn(4, 5), func(q Query) Query { return q.WhereNotIn("age", 4, 5) }},
		{"Between", userAge.Between(18, 65), func(q Query) Query { return q.WhereBetween("age", 18, 65) }},
		{"Like", userName.Like("A%"), func(q Query) Query { return q.WhereLike("name", "A%") }},
		{"NotLike", userName.NotLike("A%"), func(q Query) Query { return q.WhereNotLike("name", "A%") }},
		{"IsNull", userName.IsNull(), func(q Query) Query { return q.WhereNull("name") }},
		{"NotNull", userActive.NotNull(), func(q Query) Query { return q.WhereNotNull("active") }},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			a := base.Apply(func(q Query) Query { return tt.typed(q) })
			b := tt.untyped(base)
			assert.Equal(t, b.SQL(), a.SQL())
			assert.Equal(t, b.Params(), a.Params())
			assert.Equal(t, b.Predicates(), a.Predicates())
		})
	}
}

func TestTypedFieldSugar(t *testing.T) {
	base := Table("users").WithDialect(dialect.Postgres)

	t.Run("Contains", func(t *testing.T) {
		q := base.Apply(func(q Query) Query { return userName.Contains("da")(q) })
		assert.Equal(t, "SELECT * FROM users WHERE name LIKE $1", q.SQL())
		s, ok := q.Params()[0].AsString()
		require.True(t, ok)
		assert.Equal(t, "%da%", s)
	})

	t.Run("HasPrefix", func(t *testing.T) {
		q := userName.HasPrefix("Ad")(base)
		s, ok := q.Params()[0].AsString()
		require.True(t, ok)
		assert.Equal(t, "Ad%", s)
	})

	t.Run("HasSuffix", func(t *testing.T) {
		q := userName.HasSuffix("da")(base)
		s, ok := q.Params()[0].AsString()
		require.True(t, ok)
		assert.Equal(t, "%da", s)
	})

	t.Run("Ordering", func(t *testing.T) {
		q := base.Apply(
			func(q Query) Query { return userName.Asc()(q) },
			func(q Query) Query { return userAge.Desc()(q) },
		)
		assert.Equal(t, "SELECT * FROM users ORDER BY name ASC, age DESC", q.SQL())
	})

	t.Run("Name", func(t *testing.T) {
		assert.Equal(t, "name", userName.Name())
		assert.Equal(t, "age", userAge.Name())
	})
}

func TestTypedFieldKinds(t *testing.T) {
	base := Table("events").WithDialect(dialect.Postgres)

	t.Run("Time", func(t *testing.T) {
		at := TimeField[userPredicate]("created_at")
		ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		q := at.GTE(ts)(base)
		assert.Equal(t, "SELECT * FROM events WHERE created_at >= $1", q.SQL())
		assert.Equal(t, value.KindTime, q.Params()[0].Kind())
	})

	t.Run("UUID", func(t *testing.T) {
		id := UUIDField[userPredicate]("id")
		u := uuid.MustParse("6167f543-e2cd-45a6-908a-8fa1e5b8fca3")
		q := id.In(u)(base)
		assert.Equal(t, "SELECT * FROM events WHERE id IN ($1)", q.SQL())
		assert.Equal(t, value.KindUUID, q.Params()[0].Kind())
	})

	t.Run("Enum", func(t *testing.T) {
		type status string
		st := EnumField[userPredicate, status]("status")
		q := st.In("active", "pending")(base)
		assert.Equal(t, "SELECT * FROM events WHERE status IN ($1, $2)", q.SQL())
		for _, p := range q.Params() {
			assert.Equal(t, value.KindEnum, p.Kind())
		}
		q = st.EQ("active")(base)
		assert.Equal(t, value.KindEnum, q.Params()[0].Kind())
	})

	t.Run("Decimal", func(t *testing.T) {
		price := DecimalField[userPredicate]("price")
		lo := decimal.RequireFromString("1.50")
		hi := decimal.RequireFromString("9.99")
		q := price.Between(lo, hi)(base)
		assert.Equal(t, "SELECT * FROM events WHERE price BETWEEN $1 AND $2", q.SQL())
		assert.Equal(t, value.KindDecimal, q.Params()[0].Kind())
		assert.Equal(t, value.KindDecimal, q.Params()[1].Kind())
	})
}

func TestTypedFieldEmptyIn(t *testing.T) {
	base := Table("users").WithDialect(dialect.Postgres)
	q := userAge.In()(base)
	assert.Equal(t, base.SQL(), q.SQL())
	assert.Empty(t, q.Predicates())
}
