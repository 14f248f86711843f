package fluxorm

import (
	"context"
	"time"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/dialect/sql"
	"github.com/maxBogovick/fluxorm/value"
)

// Model is the mapping contract between a Go struct and a table row.
//
// Values returns the column values to persist. The primary key column
// must be omitted when it has no value yet, so that inserts let the
// database allocate it. SetValues loads a fetched row back into the
// model and must return a *SerializationError naming the first column
// that is missing or cannot be converted.
type Model interface {
	// TableName returns the table the model maps to.
	TableName() string
	// PrimaryKey returns the primary key column, conventionally "id".
	PrimaryKey() string
	// Values returns the column values to persist.
	Values() map[string]value.Value
	// SetValues loads a fetched row into the model.
	SetValues(map[string]value.Value) error
}

// Identifier is implemented by models whose primary key can be read
// and assigned directly. It is required for key recovery after inserts.
type Identifier interface {
	// ID returns the primary key value and whether it is set.
	ID() (value.Value, bool)
	// SetID assigns a database-allocated primary key.
	SetID(value.Value) error
}

// Entity constrains a type parameter to a pointer-to-model, letting
// generic operations allocate and load records.
type Entity[T any] interface {
	*T
	Model
}

// Validator is implemented by models that check their own field values.
// Validation runs before inserts and updates when strict mode is on.
type Validator interface {
	Validate() error
}

// Hook interfaces. A model implementing one of these gets called
// around the matching mutation, inside the same transaction when the
// mutation runs in one.
type (
	// BeforeCreator runs before the model is inserted.
	BeforeCreator interface {
		BeforeCreate(ctx context.Context, q dialect.Querier) error
	}

	// AfterCreator runs after the model is inserted and its key recovered.
	AfterCreator interface {
		AfterCreate(ctx context.Context, q dialect.Querier) error
	}

	// BeforeUpdater runs before the model is updated.
	BeforeUpdater interface {
		BeforeUpdate(ctx context.Context, q dialect.Querier) error
	}

	// AfterUpdater runs after the model is updated.
	AfterUpdater interface {
		AfterUpdate(ctx context.Context, q dialect.Querier) error
	}

	// BeforeDeleter runs before the model is deleted.
	BeforeDeleter interface {
		BeforeDelete(ctx context.Context, q dialect.Querier) error
	}

	// AfterDeleter runs after the model is deleted.
	AfterDeleter interface {
		AfterDelete(ctx context.Context, q dialect.Querier) error
	}
)

// Timestamped is implemented by models carrying created_at and
// updated_at columns. Create stamps both, Update refreshes updated_at.
type Timestamped interface {
	SetCreatedAt(time.Time)
	SetUpdatedAt(time.Time)
}

// SoftDeletable is implemented by models carrying a nullable
// deleted_at column.
type SoftDeletable interface {
	// DeletedAt returns the deletion time and whether the model is trashed.
	DeletedAt() (time.Time, bool)
	// SetDeletedAt marks or unmarks the model as trashed.
	SetDeletedAt(*time.Time)
}

// Touch refreshes the model's updated_at timestamp if it carries one.
func Touch(m Model) {
	if ts, ok := m.(Timestamped); ok {
		ts.SetUpdatedAt(time.Now().UTC())
	}
}

// NewQuery returns a query rooted at the model's table.
func NewQuery[T any, PT Entity[T]]() sql.Query {
	var m T
	return sql.Table(PT(&m).TableName())
}

// modelID reads the primary key through Identifier when implemented,
// falling back to the values map.
func modelID(m Model) (value.Value, bool) {
	if ident, ok := m.(Identifier); ok {
		return ident.ID()
	}
	v, ok := m.Values()[m.PrimaryKey()]
	if !ok || v.IsNull() {
		return value.Null(), false
	}
	return v, true
}
