package fluxorm_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxBogovick/fluxorm"
	"github.com/maxBogovick/fluxorm/dialect"
)

// auditedPost records hook order across a soft delete, where delete
// hooks wrap the inner update.
type auditedPost struct {
	Post
	calls []string
}

func (p *auditedPost) BeforeUpdate(ctx context.Context, q dialect.Querier) error {
	p.calls = append(p.calls, "before_update")
	return nil
}

func (p *auditedPost) AfterUpdate(ctx context.Context, q dialect.Querier) error {
	p.calls = append(p.calls, "after_update")
	return nil
}

func (p *auditedPost) BeforeDelete(ctx context.Context, q dialect.Querier) error {
	p.calls = append(p.calls, "before_delete")
	return nil
}

func (p *auditedPost) AfterDelete(ctx context.Context, q dialect.Querier) error {
	p.calls = append(p.calls, "after_delete")
	return nil
}

func TestSoftDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("MarksAndPersists", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET created_at = ?, deleted_at = ?, title = ?, updated_at = ? WHERE id = ?")).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "hello", sqlmock.AnyArg(), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		p := &Post{id: 3, Title: "hello"}
		require.NoError(t, fluxorm.SoftDelete(ctx, drv, p))

		_, trashed := p.DeletedAt()
		assert.True(t, trashed)
		assert.False(t, p.UpdatedAt.IsZero(), "soft delete goes through update and touches the model")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteHooksWrapUpdateHooks", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET created_at = ?, deleted_at = ?, title = ?, updated_at = ? WHERE id = ?")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		p := &auditedPost{Post: Post{id: 4, Title: "x"}}
		require.NoError(t, fluxorm.SoftDelete(ctx, drv, p))
		assert.Equal(t, []string{"before_delete", "before_update", "after_update", "after_delete"}, p.calls)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingRowIsNotFound", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET created_at = ?, deleted_at = ?, title = ?, updated_at = ? WHERE id = ?")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := fluxorm.SoftDelete(ctx, drv, &Post{id: 404, Title: "gone"})
		require.Error(t, err)
		assert.True(t, fluxorm.IsNotFound(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	drv, mock := newMock(t, dialect.SQLite)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET created_at = ?, deleted_at = ?, title = ?, updated_at = ? WHERE id = ?")).
		WithArgs(sqlmock.AnyArg(), nil, "hello", sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	past := time.Now().Add(-time.Hour).UTC()
	p := &Post{id: 3, Title: "hello", deletedAt: &past}
	require.NoError(t, fluxorm.Restore(ctx, drv, p))

	_, trashed := p.DeletedAt()
	assert.False(t, trashed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForceDelete(t *testing.T) {
	ctx := context.Background()
	drv, mock := newMock(t, dialect.SQLite)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE id = ?")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	past := time.Now().Add(-time.Hour).UTC()
	p := &Post{id: 3, Title: "hello", deletedAt: &past}
	require.NoError(t, fluxorm.ForceDelete(ctx, drv, p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrashScopes(t *testing.T) {
	t.Run("OnlyTrashed", func(t *testing.T) {
		q := fluxorm.OnlyTrashed(fluxorm.NewQuery[Post]()).WithDialect(dialect.SQLite)
		assert.Equal(t, `SELECT * FROM posts WHERE "deleted_at" IS NOT NULL`, q.SQL())
	})

	t.Run("WithoutTrashed", func(t *testing.T) {
		q := fluxorm.NewQuery[Post]().Apply(fluxorm.WithoutTrashed).WithDialect(dialect.SQLite)
		assert.Equal(t, `SELECT * FROM posts WHERE "deleted_at" IS NULL`, q.SQL())
	})

	t.Run("WithTrashed", func(t *testing.T) {
		q := fluxorm.WithTrashed(fluxorm.NewQuery[Post]())
		assert.Equal(t, "SELECT * FROM posts", q.SQL())
	})
}
