package fluxorm

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// CachedDriver serves repeated read queries from a Cache. Row sets are
// stored as msgpack snapshots keyed per table; a successful Execute
// invalidates the written table's entries, or the whole cache when the
// context carries no table tag. Reads without a table tag bypass the
// cache entirely. Cache failures are logged and degrade to the
// underlying driver, never to an error.
type CachedDriver struct {
	drv   dialect.Driver
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// CacheOption configures a CachedDriver.
type CacheOption func(*CachedDriver)

// WithCacheLog sets the logger for cache failures. Defaults to
// slog.Default.
func WithCacheLog(log *slog.Logger) CacheOption {
	return func(d *CachedDriver) {
		if log != nil {
			d.log = log
		}
	}
}

// NewCachedDriver wraps drv with read caching. Snapshots live for ttl;
// 0 keeps them until invalidated.
func NewCachedDriver(drv dialect.Driver, cache Cache, ttl time.Duration, opts ...CacheOption) *CachedDriver {
	d := &CachedDriver{drv: drv, cache: cache, ttl: ttl, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Unwrap returns the wrapped driver.
func (d *CachedDriver) Unwrap() dialect.Driver { return d.drv }

// Dialect implements dialect.Querier.
func (d *CachedDriver) Dialect() string { return d.drv.Dialect() }

// Execute implements dialect.Querier. A successful write invalidates
// the table tagged in the context, or the whole cache without a tag.
func (d *CachedDriver) Execute(ctx context.Context, query string, args []value.Value) (int64, error) {
	n, err := d.drv.Execute(ctx, query, args)
	if err != nil {
		return n, err
	}
	table, _ := TableFromContext(ctx)
	d.invalidate(ctx, []string{table})
	return n, nil
}

// FetchOne implements dialect.Querier.
func (d *CachedDriver) FetchOne(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	table, ok := TableFromContext(ctx)
	if !ok {
		return d.drv.FetchOne(ctx, query, args)
	}
	key := CacheKey(table, "one", d.Dialect(), query, args)
	if rows, ok := d.lookup(ctx, key); ok && len(rows) > 0 {
		return rows[0], nil
	}
	row, err := d.drv.FetchOne(ctx, query, args)
	if err != nil {
		return nil, err
	}
	d.store(ctx, key, []dialect.Row{row})
	return row, nil
}

// FetchAll implements dialect.Querier. Empty result sets are cached
// like any other.
func (d *CachedDriver) FetchAll(ctx context.Context, query string, args []value.Value) ([]dialect.Row, error) {
	table, ok := TableFromContext(ctx)
	if !ok {
		return d.drv.FetchAll(ctx, query, args)
	}
	key := CacheKey(table, "all", d.Dialect(), query, args)
	if rows, ok := d.lookup(ctx, key); ok {
		return rows, nil
	}
	rows, err := d.drv.FetchAll(ctx, query, args)
	if err != nil {
		return nil, err
	}
	d.store(ctx, key, rows)
	return rows, nil
}

// FetchOptional implements dialect.Querier. Only hits are cached; a
// nil row cannot be told apart from a missing snapshot, so misses ask
// the database every time.
func (d *CachedDriver) FetchOptional(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	table, ok := TableFromContext(ctx)
	if !ok {
		return d.drv.FetchOptional(ctx, query, args)
	}
	key := CacheKey(table, "optional", d.Dialect(), query, args)
	if rows, ok := d.lookup(ctx, key); ok && len(rows) > 0 {
		return rows[0], nil
	}
	row, err := d.drv.FetchOptional(ctx, query, args)
	if err != nil || row == nil {
		return row, err
	}
	d.store(ctx, key, []dialect.Row{row})
	return row, nil
}

// Ping implements dialect.Driver.
func (d *CachedDriver) Ping(ctx context.Context) error { return d.drv.Ping(ctx) }

// Close implements dialect.Driver. The cache is left as is.
func (d *CachedDriver) Close() error { return d.drv.Close() }

// Tx implements dialect.Driver. Reads inside the transaction bypass
// the cache so they observe the transaction's own writes; the touched
// tables are invalidated once on commit.
func (d *CachedDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.drv.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &cachedTx{tx: tx, driver: d}, nil
}

func (d *CachedDriver) lookup(ctx context.Context, key string) ([]dialect.Row, bool) {
	data, err := d.cache.Get(ctx, key)
	if err != nil {
		d.log.WarnContext(ctx, "cache get failed", "key", key, "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var rows []dialect.Row
	if err := msgpack.Unmarshal(data, &rows); err != nil {
		d.log.WarnContext(ctx, "cache decode failed", "key", key, "error", err)
		return nil, false
	}
	return rows, true
}

func (d *CachedDriver) store(ctx context.Context, key string, rows []dialect.Row) {
	data, err := msgpack.Marshal(rows)
	if err != nil {
		d.log.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := d.cache.Set(ctx, key, data, d.ttl); err != nil {
		d.log.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

// invalidate drops the entries of each named table. An empty name
// means the table is unknown and clears everything.
func (d *CachedDriver) invalidate(ctx context.Context, tables []string) {
	seen := make(map[string]struct{}, len(tables))
	for _, table := range tables {
		if _, ok := seen[table]; ok {
			continue
		}
		seen[table] = struct{}{}
		if table == "" {
			if err := d.cache.Clear(ctx); err != nil {
				d.log.WarnContext(ctx, "cache clear failed", "error", err)
			}
			continue
		}
		if err := d.cache.DeletePrefix(ctx, table+":"); err != nil {
			d.log.WarnContext(ctx, "cache invalidation failed", "table", table, "error", err)
		}
	}
}

// cachedTx defers invalidation until commit. A transaction is used by
// a single goroutine, as with database/sql.
type cachedTx struct {
	tx     dialect.Tx
	driver *CachedDriver
	tables []string
}

// Dialect implements dialect.Querier.
func (t *cachedTx) Dialect() string { return t.tx.Dialect() }

// Execute implements dialect.Querier, recording the touched table.
func (t *cachedTx) Execute(ctx context.Context, query string, args []value.Value) (int64, error) {
	n, err := t.tx.Execute(ctx, query, args)
	if err == nil {
		table, _ := TableFromContext(ctx)
		t.tables = append(t.tables, table)
	}
	return n, err
}

// FetchOne implements dialect.Querier, reading through to the
// transaction.
func (t *cachedTx) FetchOne(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	return t.tx.FetchOne(ctx, query, args)
}

// FetchAll implements dialect.Querier, reading through to the
// transaction.
func (t *cachedTx) FetchAll(ctx context.Context, query string, args []value.Value) ([]dialect.Row, error) {
	return t.tx.FetchAll(ctx, query, args)
}

// FetchOptional implements dialect.Querier, reading through to the
// transaction.
func (t *cachedTx) FetchOptional(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	return t.tx.FetchOptional(ctx, query, args)
}

// Commit commits and then invalidates the tables the transaction
// wrote.
func (t *cachedTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return err
	}
	if len(t.tables) > 0 {
		t.driver.invalidate(context.Background(), t.tables)
	}
	return nil
}

// Rollback discards the transaction. Nothing was published, so the
// cache stays untouched.
func (t *cachedTx) Rollback() error { return t.tx.Rollback() }

var (
	_ dialect.Driver = (*CachedDriver)(nil)
	_ dialect.Tx     = (*cachedTx)(nil)
)
