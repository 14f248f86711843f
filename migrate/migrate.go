// Package migrate applies versioned SQL migrations and records them in a
// ledger table.
//
// Migrations run in the order given, each inside its own transaction.
// Applied versions are skipped on subsequent runs:
//
//	runner := migrate.New(drv)
//	err := runner.Run(ctx, []migrate.Migration{
//	    {Version: 1, Name: "create_users", Up: "CREATE TABLE users (...)", Down: "DROP TABLE users"},
//	    {Version: 2, Name: "add_email_index", Up: "CREATE INDEX ...", Down: "DROP INDEX ..."},
//	})
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// DefaultTable is the name of the migration ledger table.
const DefaultTable = "flux_migrations"

// Migration is a single versioned schema change.
type Migration struct {
	// Version orders migrations and must be unique.
	Version int64
	// Name describes the migration in logs and status output.
	Name string
	// Up is the SQL applied by Run.
	Up string
	// Down is the SQL applied by Rollback.
	Down string
}

// Status reports one applied migration from the ledger.
type Status struct {
	Version   int64
	Name      string
	AppliedAt *time.Time
}

// MigrationError wraps a failure while applying or rolling back a migration.
type MigrationError struct {
	Name string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migrate: migration %s: %v", e.Name, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// Runner applies migrations on a driver.
type Runner struct {
	drv   dialect.Driver
	table string
	log   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTable overrides the ledger table name.
func WithTable(name string) Option {
	return func(r *Runner) {
		r.table = name
	}
}

// WithLogger sets the logger used to report applied migrations.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// New returns a Runner executing on the given driver.
func New(drv dialect.Driver, opts ...Option) *Runner {
	r := &Runner{
		drv:   drv,
		table: DefaultTable,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies all migrations that have not been applied yet, in the
// order given. Each migration runs in its own transaction together with
// its ledger entry, so a failed migration leaves the ledger untouched.
func (r *Runner) Run(ctx context.Context, migrations []Migration) error {
	if err := r.ensureTable(ctx); err != nil {
		return err
	}
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return err
	}
	seen := make(map[int64]struct{}, len(applied))
	for _, v := range applied {
		seen[v] = struct{}{}
	}
	for _, m := range migrations {
		if _, ok := seen[m.Version]; ok {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return &MigrationError{Name: m.Name, Err: err}
		}
		r.log.Info("applied migration", "version", m.Version, "name", m.Name)
	}
	return nil
}

// Rollback reverts up to steps applied migrations, newest first. Applied
// versions missing from the given list are skipped.
func (r *Runner) Rollback(ctx context.Context, migrations []Migration, steps int) error {
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return err
	}
	sort.Slice(applied, func(i, j int) bool { return applied[i] > applied[j] })
	if steps < 0 {
		steps = 0
	}
	if steps < len(applied) {
		applied = applied[:steps]
	}
	byVersion := make(map[int64]Migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}
	for _, v := range applied {
		m, ok := byVersion[v]
		if !ok {
			continue
		}
		if err := r.revert(ctx, m); err != nil {
			return &MigrationError{Name: m.Name, Err: err}
		}
		r.log.Info("rolled back migration", "version", m.Version, "name", m.Name)
	}
	return nil
}

// Statuses returns the applied migrations recorded in the ledger,
// ordered by version.
func (r *Runner) Statuses(ctx context.Context) ([]Status, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT version, name, applied_at FROM %s ORDER BY version", r.table)
	rows, err := r.drv.FetchAll(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	statuses := make([]Status, 0, len(rows))
	for _, row := range rows {
		var s Status
		if v, ok := row["version"].AsInt64(); ok {
			s.Version = v
		}
		if n, ok := row["name"].AsString(); ok {
			s.Name = n
		}
		if at, ok := row["applied_at"].AsTime(); ok {
			s.AppliedAt = &at
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	var ddl string
	switch r.drv.Dialect() {
	case dialect.Postgres:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	version BIGINT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	applied_at TIMESTAMP WITH TIME ZONE NOT NULL
)`, r.table)
	case dialect.MySQL:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INT AUTO_INCREMENT PRIMARY KEY,
	version BIGINT NOT NULL UNIQUE,
	name VARCHAR(255) NOT NULL,
	applied_at DATETIME NOT NULL
)`, r.table)
	default:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	applied_at DATETIME NOT NULL
)`, r.table)
	}
	if _, err := r.drv.Execute(ctx, ddl, nil); err != nil {
		return fmt.Errorf("migrate: creating ledger table: %w", err)
	}
	return nil
}

func (r *Runner) appliedVersions(ctx context.Context) ([]int64, error) {
	rows, err := r.drv.FetchAll(ctx, fmt.Sprintf("SELECT version FROM %s", r.table), nil)
	if err != nil {
		return nil, fmt.Errorf("migrate: reading ledger: %w", err)
	}
	versions := make([]int64, 0, len(rows))
	for _, row := range rows {
		if v, ok := row["version"].AsInt64(); ok {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Execute(ctx, m.Up, nil); err != nil {
		return rollback(tx, err)
	}
	d := r.drv.Dialect()
	insert := fmt.Sprintf(
		"INSERT INTO %s (version, name, applied_at) VALUES (%s, %s, %s)",
		r.table,
		dialect.Placeholder(d, 1),
		dialect.Placeholder(d, 2),
		dialect.Placeholder(d, 3),
	)
	args := []value.Value{
		value.Int64(m.Version),
		value.String(m.Name),
		value.String(time.Now().UTC().Format(time.RFC3339)),
	}
	if _, err := tx.Execute(ctx, insert, args); err != nil {
		return rollback(tx, err)
	}
	return tx.Commit()
}

func (r *Runner) revert(ctx context.Context, m Migration) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Execute(ctx, m.Down, nil); err != nil {
		return rollback(tx, err)
	}
	d := r.drv.Dialect()
	del := fmt.Sprintf("DELETE FROM %s WHERE version = %s", r.table, dialect.Placeholder(d, 1))
	if _, err := tx.Execute(ctx, del, []value.Value{value.Int64(m.Version)}); err != nil {
		return rollback(tx, err)
	}
	return tx.Commit()
}

// rollback aborts the transaction, attaching the rollback error to err
// if the rollback itself fails.
func rollback(tx dialect.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
	}
	return err
}
