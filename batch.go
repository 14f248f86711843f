package fluxorm

import (
	"context"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// matchKey canonicalizes a key value for grouping. Integers widen to
// int64 so an Int32 foreign key still matches an Int64 primary key.
func matchKey(v value.Value) any {
	if n, ok := v.AsInt64(); ok {
		return n
	}
	if s, ok := v.AsString(); ok {
		return s
	}
	if u, ok := v.AsUUID(); ok {
		return u
	}
	return v.String()
}

// HasManyBatch loads the children of every owner with a single query
// and returns them grouped in owner order. Owners sharing a key share
// a group. Every owner must have a key value.
func HasManyBatch[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, owners []Model, foreignKey string, opts ...Option) ([][]PT, error) {
	if len(owners) == 0 {
		return nil, nil
	}
	keys := make([]any, len(owners))
	ids := make([]any, 0, len(owners))
	seen := make(map[any]bool, len(owners))
	for i, o := range owners {
		id, ok := modelID(o)
		if !ok {
			return nil, ErrNoIdentifier
		}
		k := matchKey(id)
		keys[i] = k
		if !seen[k] {
			seen[k] = true
			ids = append(ids, id)
		}
	}
	children, err := All[T, PT](ctx, q, NewQuery[T, PT]().WhereIn(foreignKey, ids...), opts...)
	if err != nil {
		return nil, err
	}
	groups := make(map[any][]PT, len(owners))
	for _, c := range children {
		fk, ok := c.Values()[foreignKey]
		if !ok || fk.IsNull() {
			continue
		}
		k := matchKey(fk)
		groups[k] = append(groups[k], c)
	}
	out := make([][]PT, len(owners))
	for i, k := range keys {
		out[i] = groups[k]
	}
	return out, nil
}

// BelongsToBatch loads the parent referenced by each child with a
// single query. The result is aligned with children; a missing, null,
// or dangling foreign key yields nil at that position.
func BelongsToBatch[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, children []Model, foreignKey string, opts ...Option) ([]PT, error) {
	if len(children) == 0 {
		return nil, nil
	}
	var zero T
	pk := PT(&zero).PrimaryKey()
	keys := make([]any, len(children))
	ids := make([]any, 0, len(children))
	seen := make(map[any]bool, len(children))
	for i, c := range children {
		fk, ok := c.Values()[foreignKey]
		if !ok || fk.IsNull() {
			continue
		}
		k := matchKey(fk)
		keys[i] = k
		if !seen[k] {
			seen[k] = true
			ids = append(ids, fk)
		}
	}
	if len(ids) == 0 {
		return make([]PT, len(children)), nil
	}
	parents, err := All[T, PT](ctx, q, NewQuery[T, PT]().WhereIn(pk, ids...), opts...)
	if err != nil {
		return nil, err
	}
	byKey := make(map[any]PT, len(parents))
	for _, p := range parents {
		if id, ok := modelID(p); ok {
			byKey[matchKey(id)] = p
		}
	}
	out := make([]PT, len(children))
	for i, k := range keys {
		if k == nil {
			continue
		}
		out[i] = byKey[k]
	}
	return out, nil
}
