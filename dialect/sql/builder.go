package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// Op is a predicate operator.
type Op int

// Predicate operators.
const (
	OpEQ Op = iota
	OpNEQ
	OpGT
	OpLT
	OpGTE
	OpLTE
	OpIn
	OpNotIn
	OpBetween
	OpLike
	OpNotLike
	OpIsNull
	OpNotNull
)

var ops = [...]string{
	OpEQ:      "=",
	OpNEQ:     "!=",
	OpGT:      ">",
	OpLT:      "<",
	OpGTE:     ">=",
	OpLTE:     "<=",
	OpIn:      "IN",
	OpNotIn:   "NOT IN",
	OpBetween: "BETWEEN",
	OpLike:    "LIKE",
	OpNotLike: "NOT LIKE",
	OpIsNull:  "IS NULL",
	OpNotNull: "IS NOT NULL",
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(ops) {
		return ops[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// templates hold the positional rendering form of each operator: the
// first slot is the column reference, the rest are placeholders.
var templates = [...]string{
	OpEQ:      "%s = %s",
	OpNEQ:     "%s != %s",
	OpGT:      "%s > %s",
	OpLT:      "%s < %s",
	OpGTE:     "%s >= %s",
	OpLTE:     "%s <= %s",
	OpIn:      "%s IN (%s)",
	OpNotIn:   "%s NOT IN (%s)",
	OpBetween: "%s BETWEEN %s AND %s",
	OpLike:    "%s LIKE %s",
	OpNotLike: "%s NOT LIKE %s",
	OpIsNull:  "%s IS NULL",
	OpNotNull: "%s IS NOT NULL",
}

// Predicate is the metadata record behind one WHERE condition. Slots
// are 1-based positions into the owning query's parameter list, ordered
// and globally sequential across all predicates of that query. The
// record, not any rendered string, is the source of truth for
// re-rendering under a different dialect.
type Predicate struct {
	Column string
	Op     Op
	Slots  []int
}

// Render builds the dialect form of the predicate with a quoted column
// and dialect placeholders. A slot count that does not satisfy the
// operator indicates the builder produced an inconsistent record, and
// panics rather than emitting invalid SQL.
func (p Predicate) Render(d string) string {
	return p.render(d, dialect.QuoteIdentifier(d, p.Column))
}

// render substitutes the given column reference verbatim, so the inline
// path can keep the raw column name while Render quotes it.
func (p Predicate) render(d, column string) string {
	switch p.Op {
	case OpIsNull, OpNotNull:
		return fmt.Sprintf(templates[p.Op], column)
	case OpBetween:
		if len(p.Slots) < 2 {
			panic("sql: BETWEEN predicate requires 2 parameter slots")
		}
		return fmt.Sprintf(templates[p.Op], column,
			dialect.Placeholder(d, p.Slots[0]), dialect.Placeholder(d, p.Slots[1]))
	case OpIn, OpNotIn:
		if len(p.Slots) == 0 {
			panic(fmt.Sprintf("sql: %s predicate requires at least one parameter slot", p.Op))
		}
		phs := make([]string, len(p.Slots))
		for i, s := range p.Slots {
			phs[i] = dialect.Placeholder(d, s)
		}
		return fmt.Sprintf(templates[p.Op], column, strings.Join(phs, ", "))
	default:
		if len(p.Slots) == 0 {
			panic(fmt.Sprintf("sql: %s predicate requires a parameter slot", p.Op))
		}
		return fmt.Sprintf(templates[p.Op], column, dialect.Placeholder(d, p.Slots[0]))
	}
}

// Query accumulates a SELECT statement for one table: columns,
// predicates with their metadata records, bound parameter values,
// ordering, limit and offset, and the active dialect. Builder methods
// return the updated query by value; appends copy the backing arrays,
// so a Query can be forked and reused freely. A Query is never mutated
// concurrently.
type Query struct {
	table      string
	columns    []string
	conditions []string // rendered cache, valid for the dialect below
	predicates []Predicate
	params     []value.Value
	orders     []string
	limit      *int
	offset     *int
	dialect    string
}

// Table starts a query against the named table, selecting all columns.
func Table(name string) Query {
	return Query{table: name}
}

// grow appends to a clipped copy so a forked query never writes into
// its parent's backing array.
func grow[T any](s []T, xs ...T) []T {
	return append(s[:len(s):len(s)], xs...)
}

// Select replaces the column list. An empty list selects all columns.
func (q Query) Select(columns ...string) Query {
	q.columns = columns
	return q
}

// WithDialect sets the active dialect. When it differs from the one the
// cached condition strings were rendered under and predicates exist,
// every condition is re-rendered from its metadata record. Parameter
// values are dialect-independent and untouched.
func (q Query) WithDialect(d string) Query {
	if q.dialect == d || len(q.predicates) == 0 {
		q.dialect = d
		return q
	}
	q.dialect = d
	conditions := make([]string, len(q.predicates))
	for i, p := range q.predicates {
		conditions[i] = p.Render(d)
	}
	q.conditions = conditions
	return q
}

// appendPredicate is the single mutation path behind every predicate
// method: it records the metadata, renders the condition under the
// active dialect, and appends the values, keeping all three lists in
// lock-step. Slot numbering continues from the current parameter count.
func (q Query) appendPredicate(column string, op Op, vs ...value.Value) Query {
	start := len(q.params) + 1
	slots := make([]int, len(vs))
	for i := range slots {
		slots[i] = start + i
	}
	p := Predicate{Column: column, Op: op, Slots: slots}
	q.conditions = grow(q.conditions, p.render(q.dialect, column))
	q.predicates = grow(q.predicates, p)
	q.params = grow(q.params, vs...)
	return q
}

// WhereEQ adds column = value.
func (q Query) WhereEQ(column string, v any) Query {
	return q.appendPredicate(column, OpEQ, value.From(v))
}

// WhereNEQ adds column != value.
func (q Query) WhereNEQ(column string, v any) Query {
	return q.appendPredicate(column, OpNEQ, value.From(v))
}

// WhereGT adds column > value.
func (q Query) WhereGT(column string, v any) Query {
	return q.appendPredicate(column, OpGT, value.From(v))
}

// WhereGTE adds column >= value.
func (q Query) WhereGTE(column string, v any) Query {
	return q.appendPredicate(column, OpGTE, value.From(v))
}

// WhereLT adds column < value.
func (q Query) WhereLT(column string, v any) Query {
	return q.appendPredicate(column, OpLT, value.From(v))
}

// WhereLTE adds column <= value.
func (q Query) WhereLTE(column string, v any) Query {
	return q.appendPredicate(column, OpLTE, value.From(v))
}

// WhereLike adds column LIKE pattern.
func (q Query) WhereLike(column, pattern string) Query {
	return q.appendPredicate(column, OpLike, value.String(pattern))
}

// WhereNotLike adds column NOT LIKE pattern.
func (q Query) WhereNotLike(column, pattern string) Query {
	return q.appendPredicate(column, OpNotLike, value.String(pattern))
}

// WhereIn adds column IN (values...). An empty value list is a no-op:
// the query is returned unmodified rather than emitting an invalid
// empty list.
func (q Query) WhereIn(column string, vs ...any) Query {
	if len(vs) == 0 {
		return q
	}
	return q.appendPredicate(column, OpIn, fromAll(vs)...)
}

// WhereNotIn adds column NOT IN (values...). An empty value list is a
// no-op.
func (q Query) WhereNotIn(column string, vs ...any) Query {
	if len(vs) == 0 {
		return q
	}
	return q.appendPredicate(column, OpNotIn, fromAll(vs)...)
}

// WhereBetween adds column BETWEEN lo AND hi, appending the two bounds
// in order.
func (q Query) WhereBetween(column string, lo, hi any) Query {
	return q.appendPredicate(column, OpBetween, value.From(lo), value.From(hi))
}

// WhereNull adds column IS NULL.
func (q Query) WhereNull(column string) Query {
	return q.appendPredicate(column, OpIsNull)
}

// WhereNotNull adds column IS NOT NULL.
func (q Query) WhereNotNull(column string) Query {
	return q.appendPredicate(column, OpNotNull)
}

// OrderBy appends an ascending ordering on the column.
func (q Query) OrderBy(column string) Query {
	q.orders = grow(q.orders, column+" ASC")
	return q
}

// OrderByDesc appends a descending ordering on the column.
func (q Query) OrderByDesc(column string) Query {
	q.orders = grow(q.orders, column+" DESC")
	return q
}

// Limit caps the number of returned rows.
func (q Query) Limit(n int) Query {
	q.limit = &n
	return q
}

// Offset skips the first n rows.
func (q Query) Offset(n int) Query {
	q.offset = &n
	return q
}

// Apply runs each predicate function over the query in order. It is the
// entry point for the typed field layer.
func (q Query) Apply(ps ...func(Query) Query) Query {
	for _, p := range ps {
		q = p(q)
	}
	return q
}

// SQL assembles the final statement: SELECT, FROM, then WHERE, ORDER
// BY, LIMIT, and OFFSET, each omitted entirely when absent.
func (q Query) SQL() string {
	columns := "*"
	if len(q.columns) > 0 {
		columns = strings.Join(q.columns, ", ")
	}
	parts := []string{"SELECT", columns, "FROM", q.table}
	if len(q.conditions) > 0 {
		parts = append(parts, "WHERE", strings.Join(q.conditions, " AND "))
	}
	if len(q.orders) > 0 {
		parts = append(parts, "ORDER BY", strings.Join(q.orders, ", "))
	}
	if q.limit != nil {
		parts = append(parts, "LIMIT "+strconv.Itoa(*q.limit))
	}
	if q.offset != nil {
		parts = append(parts, "OFFSET "+strconv.Itoa(*q.offset))
	}
	return strings.Join(parts, " ")
}

// CountSQL renders the query as a COUNT(*) statement over the same
// predicates, ignoring column selection, ordering, limit, and offset.
func (q Query) CountSQL() string {
	parts := []string{"SELECT COUNT(*) as count", "FROM", q.table}
	if len(q.conditions) > 0 {
		parts = append(parts, "WHERE", strings.Join(q.conditions, " AND "))
	}
	return strings.Join(parts, " ")
}

// Params returns the ordered parameter values. Slot i in predicate
// metadata refers to Params()[i-1].
func (q Query) Params() []value.Value {
	return q.params
}

// Predicates returns the metadata records in append order.
func (q Query) Predicates() []Predicate {
	return q.predicates
}

// TableName reports the table the query selects from.
func (q Query) TableName() string {
	return q.table
}

// Dialect reports the active dialect, or an empty string before one is
// set.
func (q Query) Dialect() string {
	return q.dialect
}

func fromAll(xs []any) []value.Value {
	vs := make([]value.Value, len(xs))
	for i, x := range xs {
		vs[i] = value.From(x)
	}
	return vs
}
