package fluxorm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxBogovick/fluxorm"
	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

func TestCacheKey(t *testing.T) {
	args := []value.Value{value.Int64(7), value.String("ada")}

	t.Run("TablePrefix", func(t *testing.T) {
		key := fluxorm.CacheKey("users", "all", dialect.SQLite, "SELECT * FROM users", args)
		assert.True(t, len(key) > len("users:"))
		assert.Equal(t, "users:", key[:6])
	})

	t.Run("Deterministic", func(t *testing.T) {
		a := fluxorm.CacheKey("users", "all", dialect.SQLite, "SELECT * FROM users", args)
		b := fluxorm.CacheKey("users", "all", dialect.SQLite, "SELECT * FROM users", args)
		assert.Equal(t, a, b)
	})

	t.Run("Distinguishes", func(t *testing.T) {
		base := fluxorm.CacheKey("users", "all", dialect.SQLite, "SELECT * FROM users", args)
		byOp := fluxorm.CacheKey("users", "one", dialect.SQLite, "SELECT * FROM users", args)
		byDialect := fluxorm.CacheKey("users", "all", dialect.Postgres, "SELECT * FROM users", args)
		byQuery := fluxorm.CacheKey("users", "all", dialect.SQLite, "SELECT id FROM users", args)
		byArgs := fluxorm.CacheKey("users", "all", dialect.SQLite, "SELECT * FROM users",
			[]value.Value{value.Int64(8), value.String("ada")})

		assert.NotEqual(t, base, byOp)
		assert.NotEqual(t, base, byDialect)
		assert.NotEqual(t, base, byQuery)
		assert.NotEqual(t, base, byArgs)
	})
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("MissIsNilNil", func(t *testing.T) {
		c := fluxorm.NewMemoryCache()
		data, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		c := fluxorm.NewMemoryCache()
		require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

		data, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), data)
	})

	t.Run("TTLExpires", func(t *testing.T) {
		c := fluxorm.NewMemoryCache()
		require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
		time.Sleep(25 * time.Millisecond)

		data, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, data)
		assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")
	})

	t.Run("ZeroTTLDoesNotExpire", func(t *testing.T) {
		c := fluxorm.NewMemoryCache()
		require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
		time.Sleep(5 * time.Millisecond)

		data, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), data)
	})

	t.Run("Delete", func(t *testing.T) {
		c := fluxorm.NewMemoryCache()
		require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
		require.NoError(t, c.Delete(ctx, "k"))

		data, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("DeletePrefix", func(t *testing.T) {
		c := fluxorm.NewMemoryCache()
		require.NoError(t, c.Set(ctx, "users:a", []byte("1"), 0))
		require.NoError(t, c.Set(ctx, "users:b", []byte("2"), 0))
		require.NoError(t, c.Set(ctx, "posts:a", []byte("3"), 0))

		require.NoError(t, c.DeletePrefix(ctx, "users:"))
		assert.Equal(t, 1, c.Len())

		data, err := c.Get(ctx, "posts:a")
		require.NoError(t, err)
		assert.Equal(t, []byte("3"), data)
	})

	t.Run("Clear", func(t *testing.T) {
		c := fluxorm.NewMemoryCache()
		require.NoError(t, c.Set(ctx, "users:a", []byte("1"), 0))
		require.NoError(t, c.Set(ctx, "posts:a", []byte("2"), 0))

		require.NoError(t, c.Clear(ctx))
		assert.Equal(t, 0, c.Len())
	})
}

func TestCachedDriver(t *testing.T) {
	newCached := func(t *testing.T) (*fluxorm.CachedDriver, sqlmock.Sqlmock) {
		t.Helper()
		drv, mock := newMock(t, dialect.SQLite)
		return fluxorm.NewCachedDriver(drv, fluxorm.NewMemoryCache(), time.Minute), mock
	}

	t.Run("SecondReadIsServedFromCache", func(t *testing.T) {
		drv, mock := newCached(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "nickname"}).
				AddRow(int64(1), "ada@example.com", nil))

		ctx := fluxorm.WithTable(context.Background(), "users")
		first, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		second, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)

		assert.Equal(t, first, second, "snapshot round trip preserves kinds")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UntaggedReadBypasses", func(t *testing.T) {
		drv, mock := newCached(t)
		rows := func() *sqlmock.Rows {
			return sqlmock.NewRows([]string{"id"}).AddRow(int64(1))
		}
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())

		ctx := context.Background()
		_, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		_, err = drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ExecuteInvalidatesTable", func(t *testing.T) {
		drv, mock := newCached(t)
		rows := func() *sqlmock.Rows {
			return sqlmock.NewRows([]string{"id"}).AddRow(int64(1))
		}
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())

		ctx := fluxorm.WithTable(context.Background(), "users")
		_, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		_, err = drv.Execute(ctx, "DELETE FROM users WHERE id = ?", []value.Value{value.Int64(1)})
		require.NoError(t, err)
		_, err = drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InvalidationIsScopedToTable", func(t *testing.T) {
		drv, mock := newCached(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE id = ?")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		usersCtx := fluxorm.WithTable(context.Background(), "users")
		postsCtx := fluxorm.WithTable(context.Background(), "posts")
		_, err := drv.FetchAll(usersCtx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		_, err = drv.Execute(postsCtx, "DELETE FROM posts WHERE id = ?", []value.Value{value.Int64(1)})
		require.NoError(t, err)

		// The users snapshot survives the posts write.
		_, err = drv.FetchAll(usersCtx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UntaggedWriteClearsEverything", func(t *testing.T) {
		drv, mock := newCached(t)
		rows := func() *sqlmock.Rows {
			return sqlmock.NewRows([]string{"id"}).AddRow(int64(1))
		}
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = ?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())

		tagged := fluxorm.WithTable(context.Background(), "users")
		_, err := drv.FetchAll(tagged, "SELECT * FROM users", nil)
		require.NoError(t, err)
		_, err = drv.Execute(context.Background(), "UPDATE users SET name = ?", []value.Value{value.String("x")})
		require.NoError(t, err)
		_, err = drv.FetchAll(tagged, "SELECT * FROM users", nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OptionalMissIsNotCached", func(t *testing.T) {
		drv, mock := newCached(t)
		empty := func() *sqlmock.Rows { return sqlmock.NewRows([]string{"id"}) }
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE id = ? LIMIT 1")).WillReturnRows(empty())
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE id = ? LIMIT 1")).WillReturnRows(empty())

		ctx := fluxorm.WithTable(context.Background(), "users")
		args := []value.Value{value.Int64(404)}
		row, err := drv.FetchOptional(ctx, "SELECT * FROM users WHERE id = ? LIMIT 1", args)
		require.NoError(t, err)
		assert.Nil(t, row)
		row, err = drv.FetchOptional(ctx, "SELECT * FROM users WHERE id = ? LIMIT 1", args)
		require.NoError(t, err)
		assert.Nil(t, row)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FetchOneHit", func(t *testing.T) {
		drv, mock := newCached(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE id = ? LIMIT 1")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(int64(1), "ada@example.com"))

		ctx := fluxorm.WithTable(context.Background(), "users")
		args := []value.Value{value.Int64(1)}
		first, err := drv.FetchOne(ctx, "SELECT * FROM users WHERE id = ? LIMIT 1", args)
		require.NoError(t, err)
		second, err := drv.FetchOne(ctx, "SELECT * FROM users WHERE id = ? LIMIT 1", args)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ErrorIsNotCached", func(t *testing.T) {
		drv, mock := newCached(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
			WillReturnError(errors.New("locked"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

		ctx := fluxorm.WithTable(context.Background(), "users")
		_, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.Error(t, err)
		rows, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CacheFailureDegradesToDatabase", func(t *testing.T) {
		base, mock := newMock(t, dialect.SQLite)
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		drv := fluxorm.NewCachedDriver(base, failCache{}, time.Minute, fluxorm.WithCacheLog(log))
		rows := func() *sqlmock.Rows {
			return sqlmock.NewRows([]string{"id"}).AddRow(int64(1))
		}
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ctx := fluxorm.WithTable(context.Background(), "users")
		_, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		_, err = drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		_, err = drv.Execute(ctx, "DELETE FROM users WHERE id = ?", []value.Value{value.Int64(1)})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCachedDriverTx(t *testing.T) {
	newCached := func(t *testing.T) (*fluxorm.CachedDriver, sqlmock.Sqlmock) {
		t.Helper()
		drv, mock := newMock(t, dialect.SQLite)
		return fluxorm.NewCachedDriver(drv, fluxorm.NewMemoryCache(), time.Minute), mock
	}

	t.Run("ReadsSeeOwnWrites", func(t *testing.T) {
		drv, mock := newCached(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
		mock.ExpectRollback()

		ctx := fluxorm.WithTable(context.Background(), "users")
		_, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)

		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		rows, err := tx.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		assert.Len(t, rows, 2, "transaction reads bypass the snapshot")
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CommitInvalidatesTouchedTables", func(t *testing.T) {
		drv, mock := newCached(t)
		rows := func() *sqlmock.Rows {
			return sqlmock.NewRows([]string{"id"}).AddRow(int64(1))
		}
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).WillReturnRows(rows())

		ctx := fluxorm.WithTable(context.Background(), "users")
		_, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)

		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		_, err = tx.Execute(ctx, "DELETE FROM users WHERE id = ?", []value.Value{value.Int64(1)})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		_, err = drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackKeepsCache", func(t *testing.T) {
		drv, mock := newCached(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		ctx := fluxorm.WithTable(context.Background(), "users")
		_, err := drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)

		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		_, err = tx.Execute(ctx, "DELETE FROM users WHERE id = ?", []value.Value{value.Int64(1)})
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())

		// Still served from the snapshot: no further query expectation.
		_, err = drv.FetchAll(ctx, "SELECT * FROM users", nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestCachedCRUD drives the cache through the high-level helpers,
// which tag the context themselves.
func TestCachedCRUD(t *testing.T) {
	base, mock := newMock(t, dialect.SQLite)
	drv := fluxorm.NewCachedDriver(base, fluxorm.NewMemoryCache(), time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}).
			AddRow(int64(1), "ada@example.com", "Ada"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}))

	ctx := context.Background()
	query := fluxorm.NewQuery[User]()

	users, err := fluxorm.All[User](ctx, drv, query)
	require.NoError(t, err)
	require.Len(t, users, 1)

	// Cache hit: the database is not asked again.
	users, err = fluxorm.All[User](ctx, drv, query)
	require.NoError(t, err)
	require.Len(t, users, 1)

	// The delete invalidates the users snapshot.
	require.NoError(t, fluxorm.Delete(ctx, drv, users[0]))

	users, err = fluxorm.All[User](ctx, drv, query)
	require.NoError(t, err)
	assert.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}

// failCache errors on every operation.
type failCache struct{}

func (failCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("cache down") }
func (failCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}
func (failCache) Delete(context.Context, string) error       { return errors.New("cache down") }
func (failCache) DeletePrefix(context.Context, string) error { return errors.New("cache down") }
func (failCache) Clear(context.Context) error                { return errors.New("cache down") }
