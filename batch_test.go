package fluxorm_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxBogovick/fluxorm"
	"github.com/maxBogovick/fluxorm/dialect"
)

func TestHasManyBatch(t *testing.T) {
	t.Run("GroupsChildrenInOwnerOrder", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM comments WHERE "post_id" IN (?, ?, ?)`)).
			WithArgs(int64(1), int64(2), int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "body"}).
				AddRow(10, 1, "first").
				AddRow(11, 2, "second").
				AddRow(12, 1, "third"))

		owners := []fluxorm.Model{&Post{id: 1}, &Post{id: 2}, &Post{id: 3}}
		groups, err := fluxorm.HasManyBatch[Comment](context.Background(), drv, owners, "post_id")
		require.NoError(t, err)
		require.Len(t, groups, 3)
		require.Len(t, groups[0], 2)
		assert.Equal(t, "first", groups[0][0].Body)
		assert.Equal(t, "third", groups[0][1].Body)
		require.Len(t, groups[1], 1)
		assert.Equal(t, "second", groups[1][0].Body)
		assert.Empty(t, groups[2])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateOwnersShareOneQuery", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM comments WHERE "post_id" IN (?)`)).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "body"}).
				AddRow(10, 1, "only"))

		owners := []fluxorm.Model{&Post{id: 1}, &Post{id: 1}}
		groups, err := fluxorm.HasManyBatch[Comment](context.Background(), drv, owners, "post_id")
		require.NoError(t, err)
		require.Len(t, groups, 2)
		require.Len(t, groups[0], 1)
		require.Len(t, groups[1], 1)
		assert.Same(t, groups[0][0], groups[1][0])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OwnerWithoutKey", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		owners := []fluxorm.Model{&Post{id: 1}, &Post{}}
		_, err := fluxorm.HasManyBatch[Comment](context.Background(), drv, owners, "post_id")
		assert.ErrorIs(t, err, fluxorm.ErrNoIdentifier)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoOwnersIsNoop", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		groups, err := fluxorm.HasManyBatch[Comment](context.Background(), drv, nil, "post_id")
		require.NoError(t, err)
		assert.Nil(t, groups)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBelongsToBatch(t *testing.T) {
	t.Run("AlignsParentsWithChildren", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM posts WHERE "id" IN (?, ?)`)).
			WithArgs(int64(1), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
				AddRow(1, "intro").
				AddRow(2, "outro"))

		children := []fluxorm.Model{
			&Comment{id: 10, PostID: 1},
			&Comment{id: 11},
			&Comment{id: 12, PostID: 2},
			&Comment{id: 13, PostID: 1},
		}
		parents, err := fluxorm.BelongsToBatch[Post](context.Background(), drv, children, "post_id")
		require.NoError(t, err)
		require.Len(t, parents, 4)
		require.NotNil(t, parents[0])
		assert.Equal(t, "intro", parents[0].Title)
		assert.Nil(t, parents[1])
		require.NotNil(t, parents[2])
		assert.Equal(t, "outro", parents[2].Title)
		assert.Same(t, parents[0], parents[3])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AllNullKeysSkipQuery", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		children := []fluxorm.Model{&Comment{id: 10}, &Comment{id: 11}}
		parents, err := fluxorm.BelongsToBatch[Post](context.Background(), drv, children, "post_id")
		require.NoError(t, err)
		require.Len(t, parents, 2)
		assert.Nil(t, parents[0])
		assert.Nil(t, parents[1])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DanglingKeyYieldsNil", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM posts WHERE "id" IN (?)`)).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

		children := []fluxorm.Model{&Comment{id: 10, PostID: 9}}
		parents, err := fluxorm.BelongsToBatch[Post](context.Background(), drv, children, "post_id")
		require.NoError(t, err)
		require.Len(t, parents, 1)
		assert.Nil(t, parents[0])
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
