package fluxorm

import (
	"context"
	"fmt"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// Pivot names the join table of a many-to-many relation. ForeignKey is
// the pivot column referencing the owning side, RelatedKey the column
// referencing the related side.
type Pivot struct {
	Table      string
	ForeignKey string
	RelatedKey string
}

// HasMany loads the child rows whose foreignKey column references the
// owner's primary key. The owner must have a key value.
func HasMany[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, owner Model, foreignKey string, opts ...Option) ([]PT, error) {
	id, ok := modelID(owner)
	if !ok {
		return nil, ErrNoIdentifier
	}
	return All[T, PT](ctx, q, NewQuery[T, PT]().WhereEQ(foreignKey, id), opts...)
}

// HasOne loads the single child row referencing the owner, or nil when
// none exists.
func HasOne[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, owner Model, foreignKey string, opts ...Option) (PT, error) {
	id, ok := modelID(owner)
	if !ok {
		return nil, ErrNoIdentifier
	}
	return First[T, PT](ctx, q, NewQuery[T, PT]().WhereEQ(foreignKey, id), opts...)
}

// BelongsTo loads the parent row referenced by the child's foreignKey
// column. A missing or null foreign key loads nothing and is not an
// error.
func BelongsTo[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, child Model, foreignKey string, opts ...Option) (PT, error) {
	fk, ok := child.Values()[foreignKey]
	if !ok || fk.IsNull() {
		return nil, nil
	}
	return FindOptional[T, PT](ctx, q, fk, opts...)
}

// BelongsToMany loads the related rows joined through the pivot table.
// All identifiers are quoted since the statement spans two tables.
func BelongsToMany[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, owner Model, pivot Pivot, opts ...Option) ([]PT, error) {
	cfg := newConfig(opts)
	id, ok := modelID(owner)
	if !ok {
		return nil, ErrNoIdentifier
	}
	var zero T
	related := PT(&zero)
	table := related.TableName()
	ctx = WithTable(ctx, table)
	d := q.Dialect()
	rt := dialect.QuoteIdentifier(d, table)
	rpk := dialect.QuoteIdentifier(d, related.PrimaryKey())
	pt := dialect.QuoteIdentifier(d, pivot.Table)
	fk := dialect.QuoteIdentifier(d, pivot.ForeignKey)
	rk := dialect.QuoteIdentifier(d, pivot.RelatedKey)
	query := fmt.Sprintf("SELECT %s.* FROM %s INNER JOIN %s ON %s.%s = %s.%s WHERE %s.%s = %s",
		rt, rt, pt, rt, rpk, pt, rk, pt, fk, dialect.Placeholder(d, 1))
	args := []value.Value{id}
	cfg.logQuery(ctx, query, args)
	rows, err := q.FetchAll(ctx, query, args)
	if err != nil {
		return nil, NewQueryError(table, "relation", err)
	}
	ms := make([]PT, 0, len(rows))
	for _, row := range rows {
		var e T
		m := PT(&e)
		if err := m.SetValues(row); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// Attach links the owner to a related row by inserting a pivot record.
func Attach(ctx context.Context, q dialect.Querier, owner Model, pivot Pivot, relatedID any, opts ...Option) error {
	cfg := newConfig(opts)
	id, ok := modelID(owner)
	if !ok {
		return ErrNoIdentifier
	}
	ctx = WithTable(ctx, pivot.Table)
	d := q.Dialect()
	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
		dialect.QuoteIdentifier(d, pivot.Table),
		dialect.QuoteIdentifier(d, pivot.ForeignKey),
		dialect.QuoteIdentifier(d, pivot.RelatedKey),
		dialect.Placeholder(d, 1), dialect.Placeholder(d, 2))
	args := []value.Value{id, value.From(relatedID)}
	cfg.logQuery(ctx, query, args)
	if _, err := q.Execute(ctx, query, args); err != nil {
		return wrapMutation(pivot.Table, "attach", err)
	}
	return nil
}

// Detach unlinks the owner from a related row by deleting the pivot
// record. Detaching a pair that was never attached is a no-op.
func Detach(ctx context.Context, q dialect.Querier, owner Model, pivot Pivot, relatedID any, opts ...Option) error {
	cfg := newConfig(opts)
	id, ok := modelID(owner)
	if !ok {
		return ErrNoIdentifier
	}
	ctx = WithTable(ctx, pivot.Table)
	d := q.Dialect()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND %s = %s",
		dialect.QuoteIdentifier(d, pivot.Table),
		dialect.QuoteIdentifier(d, pivot.ForeignKey),
		dialect.Placeholder(d, 1),
		dialect.QuoteIdentifier(d, pivot.RelatedKey),
		dialect.Placeholder(d, 2))
	args := []value.Value{id, value.From(relatedID)}
	cfg.logQuery(ctx, query, args)
	if _, err := q.Execute(ctx, query, args); err != nil {
		return wrapMutation(pivot.Table, "detach", err)
	}
	return nil
}
