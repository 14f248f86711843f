package sql

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maxBogovick/fluxorm/value"
)

// PredicateFunc is a constraint type for predicate functions.
// It allows generic field types to work with any predicate type that is
// based on func(Query) Query.
type PredicateFunc interface {
	~func(Query) Query
}

// FieldEQ returns a predicate that checks if the field equals the given value.
func FieldEQ(name string, v any) func(Query) Query {
	return func(q Query) Query { return q.WhereEQ(name, v) }
}

// FieldNEQ returns a predicate that checks if the field does not equal the given value.
func FieldNEQ(name string, v any) func(Query) Query {
	return func(q Query) Query { return q.WhereNEQ(name, v) }
}

// FieldGT returns a predicate that checks if the field is greater than the given value.
func FieldGT(name string, v any) func(Query) Query {
	return func(q Query) Query { return q.WhereGT(name, v) }
}

// FieldGTE returns a predicate that checks if the field is greater than or equal to the given value.
func FieldGTE(name string, v any) func(Query) Query {
	return func(q Query) Query { return q.WhereGTE(name, v) }
}

// FieldLT returns a predicate that checks if the field is less than the given value.
func FieldLT(name string, v any) func(Query) Query {
	return func(q Query) Query { return q.WhereLT(name, v) }
}

// FieldLTE returns a predicate that checks if the field is less than or equal to the given value.
func FieldLTE(name string, v any) func(Query) Query {
	return func(q Query) Query { return q.WhereLTE(name, v) }
}

// FieldLike returns a predicate that matches the field against the given pattern.
func FieldLike(name, pattern string) func(Query) Query {
	return func(q Query) Query { return q.WhereLike(name, pattern) }
}

// FieldNotLike returns a predicate that excludes rows matching the given pattern.
func FieldNotLike(name, pattern string) func(Query) Query {
	return func(q Query) Query { return q.WhereNotLike(name, pattern) }
}

// FieldIn returns a predicate that checks if the field value is in the
// given list. An empty list leaves the query unchanged.
func FieldIn[T any](name string, vs ...T) func(Query) Query {
	return func(q Query) Query { return q.WhereIn(name, anySlice(vs)...) }
}

// FieldNotIn returns a predicate that checks if the field value is not
// in the given list. An empty list leaves the query unchanged.
func FieldNotIn[T any](name string, vs ...T) func(Query) Query {
	return func(q Query) Query { return q.WhereNotIn(name, anySlice(vs)...) }
}

// FieldBetween returns a predicate that checks if the field is within
// the inclusive range [lo, hi].
func FieldBetween(name string, lo, hi any) func(Query) Query {
	return func(q Query) Query { return q.WhereBetween(name, lo, hi) }
}

// FieldIsNull returns a predicate that checks if the field is NULL.
func FieldIsNull(name string) func(Query) Query {
	return func(q Query) Query { return q.WhereNull(name) }
}

// FieldNotNull returns a predicate that checks if the field is not NULL.
func FieldNotNull(name string) func(Query) Query {
	return func(q Query) Query { return q.WhereNotNull(name) }
}

// FieldAsc returns a predicate that sorts results by the field in ascending order.
func FieldAsc(name string) func(Query) Query {
	return func(q Query) Query { return q.OrderBy(name) }
}

// FieldDesc returns a predicate that sorts results by the field in descending order.
func FieldDesc(name string) func(Query) Query {
	return func(q Query) Query { return q.OrderByDesc(name) }
}

func anySlice[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i := range vs {
		out[i] = vs[i]
	}
	return out
}

// StringField is a generic string field that provides type-safe predicate methods.
// It defines the predicate set once via generics instead of per entity.
//
// Usage:
//
//	var Email = sql.StringField[predicate.User]("email")
//	query.Apply(Email.EQ("test@example.com"))
//	query.Apply(Email.Contains("@gmail"))
type StringField[P PredicateFunc] string

// Name returns the field name.
func (f StringField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField[P]) EQ(v string) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField[P]) NEQ(v string) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f StringField[P]) In(vs ...string) P {
	return P(FieldIn(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f StringField[P]) NotIn(vs ...string) P {
	return P(FieldNotIn(string(f), vs...))
}

// GT returns a predicate that checks if the field is greater than the given value.
func (f StringField[P]) GT(v string) P {
	return P(FieldGT(string(f), v))
}

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f StringField[P]) GTE(v string) P {
	return P(FieldGTE(string(f), v))
}

// LT returns a predicate that checks if the field is less than the given value.
func (f StringField[P]) LT(v string) P {
	return P(FieldLT(string(f), v))
}

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f StringField[P]) LTE(v string) P {
	return P(FieldLTE(string(f), v))
}

// Like returns a predicate that matches the field against the given pattern.
func (f StringField[P]) Like(pattern string) P {
	return P(FieldLike(string(f), pattern))
}

// NotLike returns a predicate that excludes rows matching the given pattern.
func (f StringField[P]) NotLike(pattern string) P {
	return P(FieldNotLike(string(f), pattern))
}

// Contains returns a predicate that checks if the field contains the
// given substring. The substring is embedded in the pattern verbatim.
func (f StringField[P]) Contains(v string) P {
	return P(FieldLike(string(f), "%"+v+"%"))
}

// HasPrefix returns a predicate that checks if the field has the given prefix.
func (f StringField[P]) HasPrefix(v string) P {
	return P(FieldLike(string(f), v+"%"))
}

// HasSuffix returns a predicate that checks if the field has the given suffix.
func (f StringField[P]) HasSuffix(v string) P {
	return P(FieldLike(string(f), "%"+v))
}

// Between returns a predicate that checks if the field is within the inclusive range.
func (f StringField[P]) Between(lo, hi string) P {
	return P(FieldBetween(string(f), lo, hi))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f StringField[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f StringField[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// Asc returns a predicate that sorts results by the field in ascending order.
func (f StringField[P]) Asc() P {
	return P(FieldAsc(string(f)))
}

// Desc returns a predicate that sorts results by the field in descending order.
func (f StringField[P]) Desc() P {
	return P(FieldDesc(string(f)))
}

// IntField is a generic integer field that provides type-safe predicate methods.
type IntField[P PredicateFunc] string

// Name returns the field name.
func (f IntField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f IntField[P]) EQ(v int) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f IntField[P]) NEQ(v int) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f IntField[P]) In(vs ...int) P {
	return P(FieldIn(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f IntField[P]) NotIn(vs ...int) P {
	return P(FieldNotIn(string(f), vs...))
}

// GT returns a predicate that checks if the field is greater than the given value.
func (f IntField[P]) GT(v int) P {
	return P(FieldGT(string(f), v))
}

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f IntField[P]) GTE(v int) P {
	return P(FieldGTE(string(f), v))
}

// LT returns a predicate that checks if the field is less than the given value.
func (f IntField[P]) LT(v int) P {
	return P(FieldLT(string(f), v))
}

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f IntField[P]) LTE(v int) P {
	return P(FieldLTE(string(f), v))
}

// Between returns a predicate that checks if the field is within the inclusive range.
func (f IntField[P]) Between(lo, hi int) P {
	return P(FieldBetween(string(f), lo, hi))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f IntField[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f IntField[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// Asc returns a predicate that sorts results by the field in ascending order.
func (f IntField[P]) Asc() P {
	return P(FieldAsc(string(f)))
}

// Desc returns a predicate that sorts results by the field in descending order.
func (f IntField[P]) Desc() P {
	return P(FieldDesc(string(f)))
}

// Int64Field is a generic int64 field that provides type-safe predicate methods.
type Int64Field[P PredicateFunc] string

// Name returns the field name.
func (f Int64Field[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Int64Field[P]) EQ(v int64) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Int64Field[P]) NEQ(v int64) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f Int64Field[P]) In(vs ...int64) P {
	return P(FieldIn(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f Int64Field[P]) NotIn(vs ...int64) P {
	return P(FieldNotIn(string(f), vs...))
}

// GT returns a predicate that checks if the field is greater than the given value.
func (f Int64Field[P]) GT(v int64) P {
	return P(FieldGT(string(f), v))
}

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Int64Field[P]) GTE(v int64) P {
	return P(FieldGTE(string(f), v))
}

// LT returns a predicate that checks if the field is less than the given value.
func (f Int64Field[P]) LT(v int64) P {
	return P(FieldLT(string(f), v))
}

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Int64Field[P]) LTE(v int64) P {
	return P(FieldLTE(string(f), v))
}

// Between returns a predicate that checks if the field is within the inclusive range.
func (f Int64Field[P]) Between(lo, hi int64) P {
	return P(FieldBetween(string(f), lo, hi))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f Int64Field[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f Int64Field[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// Asc returns a predicate that sorts results by the field in ascending order.
func (f Int64Field[P]) Asc() P {
	return P(FieldAsc(string(f)))
}

// Desc returns a predicate that sorts results by the field in descending order.
func (f Int64Field[P]) Desc() P {
	return P(FieldDesc(string(f)))
}

// Float64Field is a generic float64 field that provides type-safe predicate methods.
type Float64Field[P PredicateFunc] string

// Name returns the field name.
func (f Float64Field[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Float64Field[P]) EQ(v float64) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Float64Field[P]) NEQ(v float64) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f Float64Field[P]) In(vs ...float64) P {
	return P(FieldIn(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f Float64Field[P]) NotIn(vs ...float64) P {
	return P(FieldNotIn(string(f), vs...))
}

// GT returns a predicate that checks if the field is greater than the given value.
func (f Float64Field[P]) GT(v float64) P {
	return P(FieldGT(string(f), v))
}

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Float64Field[P]) GTE(v float64) P {
	return P(FieldGTE(string(f), v))
}

// LT returns a predicate that checks if the field is less than the given value.
func (f Float64Field[P]) LT(v float64) P {
	return P(FieldLT(string(f), v))
}

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Float64Field[P]) LTE(v float64) P {
	return P(FieldLTE(string(f), v))
}

// Between returns a predicate that checks if the field is within the inclusive range.
func (f Float64Field[P]) Between(lo, hi float64) P {
	return P(FieldBetween(string(f), lo, hi))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f Float64Field[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f Float64Field[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// Asc returns a predicate that sorts results by the field in ascending order.
func (f Float64Field[P]) Asc() P {
	return P(FieldAsc(string(f)))
}

// Desc returns a predicate that sorts results by the field in descending order.
func (f Float64Field[P]) Desc() P {
	return P(FieldDesc(string(f)))
}

// BoolField is a generic boolean field that provides type-safe predicate methods.
type BoolField[P PredicateFunc] string

// Name returns the field name.
func (f BoolField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f BoolField[P]) EQ(v bool) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f BoolField[P]) NEQ(v bool) P {
	return P(FieldNEQ(string(f), v))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f BoolField[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f BoolField[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// Asc returns a predicate that sorts results by the field in ascending order.
func (f BoolField[P]) Asc() P {
	return P(FieldAsc(string(f)))
}

// Desc returns a predicate that sorts results by the field in descending order.
func (f BoolField[P]) Desc() P {
	return P(FieldDesc(string(f)))
}

// TimeField is a generic time field that provides type-safe predicate methods.
type TimeField[P PredicateFunc] string

// Name returns the field name.
func (f TimeField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f TimeField[P]) EQ(v time.Time) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f TimeField[P]) NEQ(v time.Time) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f TimeField[P]) In(vs ...time.Time) P {
	return P(FieldIn(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f TimeField[P]) NotIn(vs ...time.Time) P {
	return P(FieldNotIn(string(f), vs...))
}

// GT returns a predicate that checks if the field is after the given time.
func (f TimeField[P]) GT(v time.Time) P {
	return P(FieldGT(string(f), v))
}

// GTE returns a predicate that checks if the field is at or after the given time.
func (f TimeField[P]) GTE(v time.Time) P {
	return P(FieldGTE(string(f), v))
}

// LT returns a predicate that checks if the field is before the given time.
func (f TimeField[P]) LT(v time.Time) P {
	return P(FieldLT(string(f), v))
}

// LTE returns a predicate that checks if the field is at or before the given time.
func (f TimeField[P]) LTE(v time.Time) P {
	return P(FieldLTE(string(f), v))
}

// Between returns a predicate that checks if the field is within the inclusive range.
func (f TimeField[P]) Between(lo, hi time.Time) P {
	return P(FieldBetween(string(f), lo, hi))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f TimeField[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f TimeField[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// Asc returns a predicate that sorts results by the field in ascending order.
func (f TimeField[P]) Asc() P {
	return P(FieldAsc(string(f)))
}

// Desc returns a predicate that sorts results by the field in descending order.
func (f TimeField[P]) Desc() P {
	return P(FieldDesc(string(f)))
}

// UUIDField is a generic UUID field that provides type-safe predicate methods.
type UUIDField[P PredicateFunc] string

// Name returns the field name.
func (f UUIDField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f UUIDField[P]) EQ(v uuid.UUID) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f UUIDField[P]) NEQ(v uuid.UUID) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f UUIDField[P]) In(vs ...uuid.UUID) P {
	return P(FieldIn(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f UUIDField[P]) NotIn(vs ...uuid.UUID) P {
	return P(FieldNotIn(string(f), vs...))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f UUIDField[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f UUIDField[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// Asc returns a predicate that sorts results by the field in ascending order.
func (f UUIDField[P]) Asc() P {
	return P(FieldAsc(string(f)))
}

// Desc returns a predicate that sorts results by the field in descending order.
func (f UUIDField[P]) Desc() P {
	return P(FieldDesc(string(f)))
}

// EnumField is a generic enum field that provides type-safe predicate methods.
// T is the enum type (must be ~string). Values reach the database as the
// enum's string form.
type EnumField[P PredicateFunc, T ~string] string

// Name returns the field name.
func (f EnumField[P, T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f EnumField[P, T]) EQ(v T) P {
	return P(FieldEQ(string(f), value.Enum(string(v))))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f EnumField[P, T]) NEQ(v T) P {
	return P(FieldNEQ(string(f), value.Enum(string(v))))
}

// In returns a predicate that checks if the field value is in the given list.
func (f EnumField[P, T]) In(vs ...T) P {
	return P(FieldIn(string(f), enumValues(vs)...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f EnumField[P, T]) NotIn(vs ...T) P {
	return P(FieldNotIn(string(f), enumValues(vs)...))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f EnumField[P, T]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f EnumField[P, T]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// Asc returns a predicate that sorts results by the field in ascending order.
func (f EnumField[P, T]) Asc() P {
	return P(FieldAsc(string(f)))
}

// Desc returns a predicate that sorts results by the field in descending order.
func (f EnumField[P, T]) Desc() P {
	return P(FieldDesc(string(f)))
}

func enumValues[T ~string](vs []T) []value.Value {
	out := make([]value.Value, len(vs))
	for i := range vs {
		out[i] = value.Enum(string(vs[i]))
	}
	return out
}

// DecimalField is a generic arbitrary-precision numeric field that
// provides type-safe predicate methods.
type DecimalField[P PredicateFunc] string

// Name returns the field name.
func (f DecimalField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f DecimalField[P]) EQ(v decimal.Decimal) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f DecimalField[P]) NEQ(v decimal.Decimal) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f DecimalField[P]) In(vs ...decimal.Decimal) P {
	return P(FieldIn(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f DecimalField[P]) NotIn(vs ...decimal.Decimal) P {
	return P(FieldNotIn(string(f), vs...))
}

// GT returns a predicate that checks if the field is greater than the given value.
func (f DecimalField[P]) GT(v decimal.Decimal) P {
	return P(FieldGT(string(f), v))
}

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f DecimalField[P]) GTE(v decimal.Decimal) P {
	return P(FieldGTE(string(f), v))
}

// LT returns a predicate that checks if the field is less than the given value.
func (f DecimalField[P]) LT(v decimal.Decimal) P {
	return P(FieldLT(string(f), v))
}

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f DecimalField[P]) LTE(v decimal.Decimal) P {
	return P(FieldLTE(string(f), v))
}

// Between returns a predicate that checks if the field is within the inclusive range.
func (f DecimalField[P]) Between(lo, hi decimal.Decimal) P {
	return P(FieldBetween(string(f), lo, hi))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f DecimalField[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f DecimalField[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// Asc returns a predicate that sorts results by the field in ascending order.
func (f DecimalField[P]) Asc() P {
	return P(FieldAsc(string(f)))
}

// Desc returns a predicate that sorts results by the field in descending order.
func (f DecimalField[P]) Desc() P {
	return P(FieldDesc(string(f)))
}
