package migrate_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/dialect/sql"
	"github.com/maxBogovick/fluxorm/migrate"
)

var testMigrations = []migrate.Migration{
	{
		Version: 1,
		Name:    "create_users",
		Up:      "CREATE TABLE users (id INTEGER PRIMARY KEY)",
		Down:    "DROP TABLE users",
	},
	{
		Version: 2,
		Name:    "create_posts",
		Up:      "CREATE TABLE posts (id INTEGER PRIMARY KEY)",
		Down:    "DROP TABLE posts",
	},
}

func newRunner(t *testing.T, d string, opts ...migrate.Option) (*migrate.Runner, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	drv := sql.OpenDB(d, db)
	opts = append(opts, migrate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return migrate.New(drv, opts...), mock
}

func TestRunAppliesPending(t *testing.T) {
	runner, mock := newRunner(t, dialect.SQLite)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS flux_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM flux_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE posts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO flux_migrations").
		WithArgs(int64(2), "create_posts", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, runner.Run(context.Background(), testMigrations))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSkipsApplied(t *testing.T) {
	runner, mock := newRunner(t, dialect.SQLite)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS flux_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM flux_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).
			AddRow(int64(1)).
			AddRow(int64(2)))

	require.NoError(t, runner.Run(context.Background(), testMigrations))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRollsBackOnFailure(t *testing.T) {
	runner, mock := newRunner(t, dialect.SQLite)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS flux_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM flux_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE users").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err := runner.Run(context.Background(), testMigrations)
	require.Error(t, err)

	var merr *migrate.MigrationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "create_users", merr.Name)
	assert.Contains(t, err.Error(), "migrate: migration create_users")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackNewestFirst(t *testing.T) {
	runner, mock := newRunner(t, dialect.Postgres)

	mock.ExpectQuery("SELECT version FROM flux_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).
			AddRow(int64(1)).
			AddRow(int64(2)))

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE posts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM flux_migrations WHERE version").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, runner.Rollback(context.Background(), testMigrations, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackSkipsUnknownVersions(t *testing.T) {
	runner, mock := newRunner(t, dialect.SQLite)

	mock.ExpectQuery("SELECT version FROM flux_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).
			AddRow(int64(9)).
			AddRow(int64(1)))

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM flux_migrations WHERE version").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, runner.Rollback(context.Background(), testMigrations, 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatuses(t *testing.T) {
	runner, mock := newRunner(t, dialect.SQLite)
	applied := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS flux_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, name, applied_at FROM flux_migrations ORDER BY version").
		WillReturnRows(sqlmock.NewRows([]string{"version", "name", "applied_at"}).
			AddRow(int64(1), "create_users", applied).
			AddRow(int64(2), "create_posts", applied))

	statuses, err := runner.Statuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, int64(1), statuses[0].Version)
	assert.Equal(t, "create_users", statuses[0].Name)
	require.NotNil(t, statuses[0].AppliedAt)
	assert.True(t, statuses[0].AppliedAt.Equal(applied))
	assert.Equal(t, int64(2), statuses[1].Version)
}

func TestWithTable(t *testing.T) {
	runner, mock := newRunner(t, dialect.SQLite, migrate.WithTable("app_migrations"))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS app_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM app_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	require.NoError(t, runner.Run(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerDDLPerDialect(t *testing.T) {
	t.Run("Postgres", func(t *testing.T) {
		runner, mock := newRunner(t, dialect.Postgres)
		mock.ExpectExec("id SERIAL PRIMARY KEY").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM flux_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		require.NoError(t, runner.Run(context.Background(), nil))
	})
	t.Run("MySQL", func(t *testing.T) {
		runner, mock := newRunner(t, dialect.MySQL)
		mock.ExpectExec("id INT AUTO_INCREMENT PRIMARY KEY").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM flux_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		require.NoError(t, runner.Run(context.Background(), nil))
	})
	t.Run("SQLite", func(t *testing.T) {
		runner, mock := newRunner(t, dialect.SQLite)
		mock.ExpectExec("id INTEGER PRIMARY KEY AUTOINCREMENT").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM flux_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		require.NoError(t, runner.Run(context.Background(), nil))
	})
}
