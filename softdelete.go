package fluxorm

import (
	"context"
	"time"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/dialect/sql"
)

// Trashable constrains PT to pointer models that support soft
// deletion.
type Trashable[T any] interface {
	Entity[T]
	SoftDeletable
}

// SoftDelete marks the model as trashed instead of removing the row:
// it stamps deleted_at, runs the delete hooks, and persists through
// Update, so update hooks and the updated_at stamp apply as well.
func SoftDelete[T any, PT Trashable[T]](ctx context.Context, q dialect.Querier, m PT, opts ...Option) error {
	now := time.Now().UTC()
	m.SetDeletedAt(&now)
	if h, ok := any(m).(BeforeDeleter); ok {
		if err := h.BeforeDelete(ctx, q); err != nil {
			return err
		}
	}
	if err := Update[T, PT](ctx, q, m, opts...); err != nil {
		return err
	}
	if h, ok := any(m).(AfterDeleter); ok {
		return h.AfterDelete(ctx, q)
	}
	return nil
}

// Restore clears deleted_at and persists the model. Delete hooks do
// not run on restore.
func Restore[T any, PT Trashable[T]](ctx context.Context, q dialect.Querier, m PT, opts ...Option) error {
	m.SetDeletedAt(nil)
	return Update[T, PT](ctx, q, m, opts...)
}

// ForceDelete removes the row for good, bypassing the trash.
func ForceDelete[T any, PT Trashable[T]](ctx context.Context, q dialect.Querier, m PT, opts ...Option) error {
	return Delete[T, PT](ctx, q, m, opts...)
}

// OnlyTrashed scopes a query to rows that have been soft deleted.
// Shaped for Query.Apply.
func OnlyTrashed(query sql.Query) sql.Query {
	return query.WhereNotNull("deleted_at")
}

// WithoutTrashed scopes a query to rows that have not been soft
// deleted.
func WithoutTrashed(query sql.Query) sql.Query {
	return query.WhereNull("deleted_at")
}

// WithTrashed leaves the query unscoped. Queries do not exclude
// trashed rows on their own, so this is the default behavior made
// explicit.
func WithTrashed(query sql.Query) sql.Query {
	return query
}
