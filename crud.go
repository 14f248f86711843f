package fluxorm

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/dialect/sql"
	"github.com/maxBogovick/fluxorm/value"
)

// Config holds the behavior knobs shared by the record operations.
type Config struct {
	strict         bool
	autoTimestamps bool
	log            *slog.Logger
}

// Option configures a record operation.
type Option func(*Config)

// WithStrictValidation runs the model's Validator before inserts and
// updates.
func WithStrictValidation() Option {
	return func(c *Config) { c.strict = true }
}

// WithAutoTimestamps controls automatic created_at/updated_at stamping
// on models implementing Timestamped. Enabled by default.
func WithAutoTimestamps(on bool) Option {
	return func(c *Config) { c.autoTimestamps = on }
}

// WithQueryLog logs every generated statement at debug level.
func WithQueryLog(l *slog.Logger) Option {
	return func(c *Config) {
		if l == nil {
			l = slog.Default()
		}
		c.log = l
	}
}

func newConfig(opts []Option) Config {
	c := Config{autoTimestamps: true}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Config) logQuery(ctx context.Context, query string, args []value.Value) {
	if c.log != nil {
		c.log.DebugContext(ctx, "executing query", "query", query, "args", args)
	}
}

// Create inserts the model and recovers its database-allocated primary
// key. Postgres returns the key with a RETURNING clause in the same
// round trip; SQLite and MySQL read it back with the dialect's last
// insert id query. Models with a preset key are inserted as given.
func Create[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, m PT, opts ...Option) error {
	cfg := newConfig(opts)
	table := m.TableName()
	ctx = WithTable(ctx, table)
	if cfg.autoTimestamps {
		if ts, ok := any(m).(Timestamped); ok {
			now := time.Now().UTC()
			ts.SetCreatedAt(now)
			ts.SetUpdatedAt(now)
		}
	}
	if err := validate(cfg, m); err != nil {
		return err
	}
	if h, ok := any(m).(BeforeCreator); ok {
		if err := h.BeforeCreate(ctx, q); err != nil {
			return err
		}
	}
	pk := m.PrimaryKey()
	_, hasID := modelID(m)
	values := m.Values()
	if !hasID {
		delete(values, pk)
	}
	columns := sortedColumns(values)
	d := q.Dialect()
	args := make([]value.Value, 0, len(columns))
	marks := make([]string, 0, len(columns))
	for i, col := range columns {
		args = append(args, values[col])
		marks = append(marks, dialect.Placeholder(d, i+1))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(marks, ", "))
	if !hasID && dialect.SupportsReturning(d) {
		query += " RETURNING " + pk
		cfg.logQuery(ctx, query, args)
		row, err := q.FetchOne(ctx, query, args)
		if err != nil {
			return wrapMutation(table, "create", err)
		}
		if id, ok := row[pk]; ok {
			if err := assignID(m, id); err != nil {
				return err
			}
		}
	} else {
		cfg.logQuery(ctx, query, args)
		if _, err := q.Execute(ctx, query, args); err != nil {
			return wrapMutation(table, "create", err)
		}
		if !hasID {
			if err := recoverID(ctx, q, m); err != nil {
				return err
			}
		}
	}
	if h, ok := any(m).(AfterCreator); ok {
		if err := h.AfterCreate(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the record with the given primary key, or a
// NotFoundError when it does not exist.
func Find[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, id any, opts ...Option) (PT, error) {
	m, err := FindOptional[T, PT](ctx, q, id, opts...)
	if err != nil {
		return nil, err
	}
	if m == nil {
		var zero T
		return nil, NewNotFoundErrorWithID(PT(&zero).TableName(), id)
	}
	return m, nil
}

// FindOptional returns the record with the given primary key, or
// (nil, nil) when it does not exist.
func FindOptional[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, id any, opts ...Option) (PT, error) {
	cfg := newConfig(opts)
	var zero T
	m := PT(&zero)
	table := m.TableName()
	ctx = WithTable(ctx, table)
	query := sql.Table(table).
		WithDialect(q.Dialect()).
		WhereEQ(m.PrimaryKey(), id).
		Limit(1)
	cfg.logQuery(ctx, query.SQL(), query.Params())
	row, err := q.FetchOptional(ctx, query.SQL(), query.Params())
	if err != nil {
		return nil, NewQueryError(table, "find", err)
	}
	if row == nil {
		return nil, nil
	}
	if err := m.SetValues(row); err != nil {
		return nil, err
	}
	return m, nil
}

// All returns every record matching the query. The query is usually
// built with NewQuery and carries the model's table.
func All[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, query sql.Query, opts ...Option) ([]PT, error) {
	cfg := newConfig(opts)
	query = query.WithDialect(q.Dialect())
	table := query.TableName()
	ctx = WithTable(ctx, table)
	cfg.logQuery(ctx, query.SQL(), query.Params())
	rows, err := q.FetchAll(ctx, query.SQL(), query.Params())
	if err != nil {
		return nil, NewQueryError(table, "all", err)
	}
	out := make([]PT, 0, len(rows))
	for _, row := range rows {
		var e T
		m := PT(&e)
		if err := m.SetValues(row); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// First returns the first record matching the query, or (nil, nil)
// when nothing matches.
func First[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, query sql.Query, opts ...Option) (PT, error) {
	cfg := newConfig(opts)
	query = query.WithDialect(q.Dialect()).Limit(1)
	table := query.TableName()
	ctx = WithTable(ctx, table)
	cfg.logQuery(ctx, query.SQL(), query.Params())
	row, err := q.FetchOptional(ctx, query.SQL(), query.Params())
	if err != nil {
		return nil, NewQueryError(table, "first", err)
	}
	if row == nil {
		return nil, nil
	}
	var e T
	m := PT(&e)
	if err := m.SetValues(row); err != nil {
		return nil, err
	}
	return m, nil
}

// Count returns the number of records matching the query, ignoring
// its ordering and paging clauses. A result without a count column
// counts as zero.
func Count(ctx context.Context, q dialect.Querier, query sql.Query, opts ...Option) (int64, error) {
	cfg := newConfig(opts)
	query = query.WithDialect(q.Dialect())
	table := query.TableName()
	ctx = WithTable(ctx, table)
	cfg.logQuery(ctx, query.CountSQL(), query.Params())
	row, err := q.FetchOne(ctx, query.CountSQL(), query.Params())
	if err != nil {
		return 0, NewQueryError(table, "count", err)
	}
	v, ok := row["count"]
	if !ok {
		return 0, nil
	}
	n, ok := v.AsInt64()
	if !ok {
		return 0, NewSerializationError(table, "count", fmt.Errorf("unexpected %s value", v.Kind()))
	}
	return n, nil
}

// Exists reports whether any record matches the query.
func Exists(ctx context.Context, q dialect.Querier, query sql.Query, opts ...Option) (bool, error) {
	n, err := Count(ctx, q, query, opts...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Page is one page of query results.
type Page[T any] struct {
	Items      []*T
	Page       int
	PerPage    int
	Total      int64
	TotalPages int64
}

// Len returns the number of items on the page.
func (p *Page[T]) Len() int { return len(p.Items) }

// IsEmpty reports whether the page has no items.
func (p *Page[T]) IsEmpty() bool { return len(p.Items) == 0 }

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool { return int64(p.Page) < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p *Page[T]) HasPrev() bool { return p.Page > 1 }

// NextPage returns the next page number, if any.
func (p *Page[T]) NextPage() (int, bool) {
	if !p.HasNext() {
		return 0, false
	}
	return p.Page + 1, true
}

// PrevPage returns the previous page number, if any.
func (p *Page[T]) PrevPage() (int, bool) {
	if !p.HasPrev() {
		return 0, false
	}
	return p.Page - 1, true
}

// Paginate returns one page of records along with the total count.
// The count and the page are fetched concurrently, so it takes a
// Driver rather than a Querier: a transaction cannot serve two
// queries at once. Page numbering starts at one, and an out-of-range
// page returns an empty page with the totals, never an error.
func Paginate[T any, PT Entity[T]](ctx context.Context, drv dialect.Driver, query sql.Query, page, perPage int, opts ...Option) (*Page[T], error) {
	if page < 1 {
		return nil, NewValidationError("page", errors.New("must be greater than zero"))
	}
	if perPage < 1 {
		return nil, NewValidationError("per_page", errors.New("must be greater than zero"))
	}
	var (
		total int64
		items []PT
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = Count(gctx, drv, query, opts...)
		return err
	})
	g.Go(func() error {
		var err error
		paged := query.Limit(perPage).Offset((page - 1) * perPage)
		items, err = All[T, PT](gctx, drv, paged, opts...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	totalPages := (total + int64(perPage) - 1) / int64(perPage)
	if totalPages < 1 {
		totalPages = 1
	}
	out := &Page[T]{
		Items:      make([]*T, len(items)),
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
	for i, m := range items {
		out.Items[i] = (*T)(m)
	}
	return out, nil
}

// Update writes the model's non-key columns, matching on the primary
// key. A missing key reports ErrNoIdentifier; an update that matched
// no row reports a NotFoundError. MySQL counts matched rows only when
// the DSN enables clientFoundRows, otherwise unchanged rows look like
// a miss.
func Update[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, m PT, opts ...Option) error {
	cfg := newConfig(opts)
	table := m.TableName()
	ctx = WithTable(ctx, table)
	id, ok := modelID(m)
	if !ok {
		return ErrNoIdentifier
	}
	if cfg.autoTimestamps {
		Touch(m)
	}
	if err := validate(cfg, m); err != nil {
		return err
	}
	if h, ok := any(m).(BeforeUpdater); ok {
		if err := h.BeforeUpdate(ctx, q); err != nil {
			return err
		}
	}
	pk := m.PrimaryKey()
	values := m.Values()
	delete(values, pk)
	columns := sortedColumns(values)
	d := q.Dialect()
	assignments := make([]string, 0, len(columns))
	args := make([]value.Value, 0, len(columns)+1)
	for i, col := range columns {
		assignments = append(assignments, col+" = "+dialect.Placeholder(d, i+1))
		args = append(args, values[col])
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		table, strings.Join(assignments, ", "), pk, dialect.Placeholder(d, len(columns)+1))
	cfg.logQuery(ctx, query, args)
	affected, err := q.Execute(ctx, query, args)
	if err != nil {
		return wrapMutation(table, "update", err)
	}
	if affected == 0 {
		return NewNotFoundErrorWithID(table, id)
	}
	if h, ok := any(m).(AfterUpdater); ok {
		if err := h.AfterUpdate(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the model's row, matching on the primary key.
func Delete[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, m PT, opts ...Option) error {
	cfg := newConfig(opts)
	table := m.TableName()
	ctx = WithTable(ctx, table)
	id, ok := modelID(m)
	if !ok {
		return ErrNoIdentifier
	}
	if h, ok := any(m).(BeforeDeleter); ok {
		if err := h.BeforeDelete(ctx, q); err != nil {
			return err
		}
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		table, m.PrimaryKey(), dialect.Placeholder(q.Dialect(), 1))
	args := []value.Value{id}
	cfg.logQuery(ctx, query, args)
	if _, err := q.Execute(ctx, query, args); err != nil {
		return wrapMutation(table, "delete", err)
	}
	if h, ok := any(m).(AfterDeleter); ok {
		if err := h.AfterDelete(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// BatchInsert inserts the models with a single multi-row statement.
// Columns come from the first model; a model missing one of them
// contributes NULL. On Postgres a RETURNING clause loads every
// generated column back into the models. The other dialects report a
// single insert id, so keys are assigned by offset from it, which
// assumes the batch was allocated contiguous integer keys: MySQL
// reports the first id of the batch, SQLite the last.
func BatchInsert[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, ms []PT, opts ...Option) error {
	if len(ms) == 0 {
		return nil
	}
	cfg := newConfig(opts)
	table := ms[0].TableName()
	pk := ms[0].PrimaryKey()
	ctx = WithTable(ctx, table)
	now := time.Now().UTC()
	for _, m := range ms {
		if cfg.autoTimestamps {
			if ts, ok := any(m).(Timestamped); ok {
				ts.SetCreatedAt(now)
				ts.SetUpdatedAt(now)
			}
		}
		if err := validate(cfg, m); err != nil {
			return err
		}
		if h, ok := any(m).(BeforeCreator); ok {
			if err := h.BeforeCreate(ctx, q); err != nil {
				return err
			}
		}
	}
	_, hasID := modelID(ms[0])
	first := ms[0].Values()
	if !hasID {
		delete(first, pk)
	}
	columns := sortedColumns(first)
	d := q.Dialect()
	args := make([]value.Value, 0, len(columns)*len(ms))
	groups := make([]string, 0, len(ms))
	slot := 0
	for _, m := range ms {
		values := m.Values()
		marks := make([]string, 0, len(columns))
		for _, col := range columns {
			v, ok := values[col]
			if !ok {
				v = value.Null()
			}
			slot++
			marks = append(marks, dialect.Placeholder(d, slot))
			args = append(args, v)
		}
		groups = append(groups, "("+strings.Join(marks, ", ")+")")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(groups, ", "))
	if dialect.SupportsReturning(d) {
		query += dialect.ReturningClause(d)
		cfg.logQuery(ctx, query, args)
		rows, err := q.FetchAll(ctx, query, args)
		if err != nil {
			return wrapMutation(table, "create", err)
		}
		for i, row := range rows {
			if i >= len(ms) {
				break
			}
			if err := ms[i].SetValues(row); err != nil {
				return err
			}
		}
	} else {
		cfg.logQuery(ctx, query, args)
		if _, err := q.Execute(ctx, query, args); err != nil {
			return wrapMutation(table, "create", err)
		}
		if !hasID {
			if err := recoverBatchIDs(ctx, q, ms); err != nil {
				return err
			}
		}
	}
	for _, m := range ms {
		if h, ok := any(m).(AfterCreator); ok {
			if err := h.AfterCreate(ctx, q); err != nil {
				return err
			}
		}
	}
	return nil
}

// Upsert updates the model when its primary key is set and inserts it
// otherwise.
func Upsert[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, m PT, opts ...Option) error {
	if _, ok := modelID(m); ok {
		return Update[T, PT](ctx, q, m, opts...)
	}
	return Create[T, PT](ctx, q, m, opts...)
}

// Save is an alias for Upsert.
func Save[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, m PT, opts ...Option) error {
	return Upsert[T, PT](ctx, q, m, opts...)
}

// WithTx runs fn inside a transaction, committing on a nil return and
// rolling back on an error or panic.
func WithTx(ctx context.Context, drv dialect.Driver, fn func(tx dialect.Tx) error) error {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return NewTransactionError("begin", err)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, &RollbackError{Err: rerr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if errors.Is(err, stdsql.ErrTxDone) {
			err = ErrTxDone
		}
		return NewTransactionError("commit", err)
	}
	return nil
}

func validate(cfg Config, m Model) error {
	if !cfg.strict {
		return nil
	}
	v, ok := m.(Validator)
	if !ok {
		return nil
	}
	return v.Validate()
}

// wrapMutation classifies driver errors, surfacing constraint
// violations as ConstraintError.
func wrapMutation(entity, op string, err error) error {
	if kind := sql.ConstraintKindOf(err); kind != sql.ConstraintNone {
		return NewConstraintError(kind, err.Error(), err)
	}
	return NewMutationError(entity, op, err)
}

func assignID(m Model, id value.Value) error {
	ident, ok := m.(Identifier)
	if !ok {
		return nil
	}
	if err := ident.SetID(id); err != nil {
		return NewSerializationError(m.TableName(), m.PrimaryKey(), err)
	}
	return nil
}

// recoverID reads the key allocated by the insert that just ran on
// this querier.
func recoverID(ctx context.Context, q dialect.Querier, m Model) error {
	if _, ok := m.(Identifier); !ok {
		return nil
	}
	var idSQL string
	switch q.Dialect() {
	case dialect.SQLite:
		idSQL = "SELECT last_insert_rowid() as id"
	case dialect.MySQL:
		idSQL = "SELECT LAST_INSERT_ID() as id"
	default:
		return nil
	}
	row, err := q.FetchOne(ctx, idSQL, nil)
	if err != nil {
		return wrapMutation(m.TableName(), "create", err)
	}
	id, ok := row["id"]
	if !ok {
		return nil
	}
	return assignID(m, id)
}

// recoverBatchIDs assigns keys by offset from the reported insert id.
// Non-integer keys are left untouched.
func recoverBatchIDs[T any, PT Entity[T]](ctx context.Context, q dialect.Querier, ms []PT) error {
	if _, ok := any(ms[0]).(Identifier); !ok {
		return nil
	}
	var (
		idSQL      string
		descending bool
	)
	switch q.Dialect() {
	case dialect.SQLite:
		// last_insert_rowid reports the last row of the batch.
		idSQL = "SELECT last_insert_rowid() as id"
		descending = true
	case dialect.MySQL:
		// LAST_INSERT_ID reports the first id of the batch.
		idSQL = "SELECT LAST_INSERT_ID() as id"
	default:
		return nil
	}
	row, err := q.FetchOne(ctx, idSQL, nil)
	if err != nil {
		return wrapMutation(ms[0].TableName(), "create", err)
	}
	v, ok := row["id"]
	if !ok {
		return nil
	}
	base, ok := v.AsInt64()
	if !ok {
		return nil
	}
	if descending {
		base -= int64(len(ms) - 1)
	}
	for i, m := range ms {
		if err := assignID(m, value.Int64(base+int64(i))); err != nil {
			return err
		}
	}
	return nil
}

func sortedColumns(values map[string]value.Value) []string {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	slices.Sort(columns)
	return columns
}
