package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of row-returning statements.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of mutating statements.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing statements.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of statements exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of statement errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, query string, args []value.Value, duration time.Duration)

// StatsDriver wraps a dialect.Driver with query statistics collection.
type StatsDriver struct {
	dialect.Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow query detection.
// Statements taking longer than this duration are counted as slow.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow statements.
// The hook is called whenever a statement exceeds the slow threshold.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to the default logger.
// This is a convenience wrapper around WithSlowQueryHook.
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(_ context.Context, query string, args []value.Value, duration time.Duration) {
		slog.Warn("slow query detected", "duration", duration, "query", query, "args", args)
	})
}

// NewStatsDriver wraps a driver with statistics collection.
//
// Example:
//
//	drv, _ := sql.Open(dialect.Postgres, dsn)
//	statsDriver := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//
//	// Later, check statistics:
//	stats := statsDriver.QueryStats().Stats()
//	fmt.Println(stats)
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow query threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Execute runs a mutating statement and records statistics.
func (d *StatsDriver) Execute(ctx context.Context, query string, args []value.Value) (int64, error) {
	start := time.Now()
	n, err := d.Driver.Execute(ctx, query, args)
	d.record(ctx, query, args, start, err, false)
	return n, err
}

// FetchOne runs a query and records statistics.
func (d *StatsDriver) FetchOne(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	start := time.Now()
	row, err := d.Driver.FetchOne(ctx, query, args)
	d.record(ctx, query, args, start, err, true)
	return row, err
}

// FetchAll runs a query and records statistics.
func (d *StatsDriver) FetchAll(ctx context.Context, query string, args []value.Value) ([]dialect.Row, error) {
	start := time.Now()
	rows, err := d.Driver.FetchAll(ctx, query, args)
	d.record(ctx, query, args, start, err, true)
	return rows, err
}

// FetchOptional runs a query and records statistics.
func (d *StatsDriver) FetchOptional(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	start := time.Now()
	row, err := d.Driver.FetchOptional(ctx, query, args)
	d.record(ctx, query, args, start, err, true)
	return row, err
}

func (d *StatsDriver) record(ctx context.Context, query string, args []value.Value, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		d.stats.TotalQueries.Add(1)
	} else {
		d.stats.TotalExecs.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))

	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, args, duration)
		}
	}
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Execute runs a mutating statement within the transaction and records statistics.
func (tx *StatsTx) Execute(ctx context.Context, query string, args []value.Value) (int64, error) {
	start := time.Now()
	n, err := tx.Tx.Execute(ctx, query, args)
	tx.driver.record(ctx, query, args, start, err, false)
	return n, err
}

// FetchOne runs a query within the transaction and records statistics.
func (tx *StatsTx) FetchOne(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	start := time.Now()
	row, err := tx.Tx.FetchOne(ctx, query, args)
	tx.driver.record(ctx, query, args, start, err, true)
	return row, err
}

// FetchAll runs a query within the transaction and records statistics.
func (tx *StatsTx) FetchAll(ctx context.Context, query string, args []value.Value) ([]dialect.Row, error) {
	start := time.Now()
	rows, err := tx.Tx.FetchAll(ctx, query, args)
	tx.driver.record(ctx, query, args, start, err, true)
	return rows, err
}

// FetchOptional runs a query within the transaction and records statistics.
func (tx *StatsTx) FetchOptional(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	start := time.Now()
	row, err := tx.Tx.FetchOptional(ctx, query, args)
	tx.driver.record(ctx, query, args, start, err, true)
	return row, err
}

// DebugDriver wraps a dialect.Driver with debug logging.
type DebugDriver struct {
	dialect.Driver
	log func(context.Context, ...any)
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog sets a custom log function.
func DebugWithLog(logFunc func(context.Context, ...any)) DebugOption {
	return func(d *DebugDriver) {
		d.log = logFunc
	}
}

// NewDebugDriver wraps a driver with debug logging.
//
// Example:
//
//	drv, _ := sql.Open(dialect.SQLite, dsn)
//	debugDriver := sql.NewDebugDriver(drv, sql.DebugWithLog(func(ctx context.Context, v ...any) {
//	    log.Println(v...)
//	}))
func NewDebugDriver(drv dialect.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		log: func(_ context.Context, v ...any) {
			slog.Info(fmt.Sprint(v...))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute runs a mutating statement and logs it.
func (d *DebugDriver) Execute(ctx context.Context, query string, args []value.Value) (int64, error) {
	d.log(ctx, fmt.Sprintf("exec: %s args: %v", query, args))
	return d.Driver.Execute(ctx, query, args)
}

// FetchOne runs a query and logs it.
func (d *DebugDriver) FetchOne(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	d.log(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return d.Driver.FetchOne(ctx, query, args)
}

// FetchAll runs a query and logs it.
func (d *DebugDriver) FetchAll(ctx context.Context, query string, args []value.Value) ([]dialect.Row, error) {
	d.log(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return d.Driver.FetchAll(ctx, query, args)
}

// FetchOptional runs a query and logs it.
func (d *DebugDriver) FetchOptional(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	d.log(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return d.Driver.FetchOptional(ctx, query, args)
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, log: d.log}, nil
}

// DebugTx wraps a transaction with debug logging.
type DebugTx struct {
	dialect.Tx
	log func(context.Context, ...any)
}

// Execute runs a mutating statement within the transaction and logs it.
func (tx *DebugTx) Execute(ctx context.Context, query string, args []value.Value) (int64, error) {
	tx.log(ctx, fmt.Sprintf("tx exec: %s args: %v", query, args))
	return tx.Tx.Execute(ctx, query, args)
}

// FetchOne runs a query within the transaction and logs it.
func (tx *DebugTx) FetchOne(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	tx.log(ctx, fmt.Sprintf("tx query: %s args: %v", query, args))
	return tx.Tx.FetchOne(ctx, query, args)
}

// FetchAll runs a query within the transaction and logs it.
func (tx *DebugTx) FetchAll(ctx context.Context, query string, args []value.Value) ([]dialect.Row, error) {
	tx.log(ctx, fmt.Sprintf("tx query: %s args: %v", query, args))
	return tx.Tx.FetchAll(ctx, query, args)
}

// FetchOptional runs a query within the transaction and logs it.
func (tx *DebugTx) FetchOptional(ctx context.Context, query string, args []value.Value) (dialect.Row, error) {
	tx.log(ctx, fmt.Sprintf("tx query: %s args: %v", query, args))
	return tx.Tx.FetchOptional(ctx, query, args)
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	tx.log(context.Background(), "commit transaction")
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	tx.log(context.Background(), "rollback transaction")
	return tx.Tx.Rollback()
}

// Ensure interfaces are implemented.
var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)

// OpenWithStats opens a connection with statistics collection enabled.
//
// Example:
//
//	drv, stats, err := sql.OpenWithStats(dialect.Postgres, dsn,
//	    sql.WithSlowThreshold(100*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Monitor statistics periodically
//	go func() {
//	    for range time.Tick(time.Minute) {
//	        s := stats.Stats()
//	        log.Printf("query stats: %s", s)
//	    }
//	}()
func OpenWithStats(d, dsn string, opts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	drv, err := Open(d, dsn)
	if err != nil {
		return nil, nil, err
	}
	statsDriver := NewStatsDriver(drv, opts...)
	return statsDriver, statsDriver.QueryStats(), nil
}
