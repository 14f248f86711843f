package fluxorm_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxBogovick/fluxorm"
	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// Session builds its model plumbing from the embeddable helpers.
type Session struct {
	fluxorm.UUIDKey
	fluxorm.Timestamps
	fluxorm.SoftDeletes
	Token string
}

func (s *Session) TableName() string { return "sessions" }

func (s *Session) Values() map[string]value.Value {
	vs := map[string]value.Value{
		"token":      value.String(s.Token),
		"created_at": value.Time(s.CreatedAt),
		"updated_at": value.Time(s.UpdatedAt),
		"deleted_at": value.NullableTime(s.DeletedTime),
	}
	if s.Key != uuid.Nil {
		vs["id"] = value.UUID(s.Key)
	}
	return vs
}

func (s *Session) SetValues(vs map[string]value.Value) error {
	if v, ok := vs["id"]; ok {
		if u, ok := v.AsUUID(); ok {
			s.Key = u
		}
	}
	if tok, ok := vs["token"].AsString(); ok {
		s.Token = tok
	}
	if t, ok := vs["created_at"].AsTime(); ok {
		s.CreatedAt = t
	}
	if t, ok := vs["updated_at"].AsTime(); ok {
		s.UpdatedAt = t
	}
	if v, ok := vs["deleted_at"]; ok && !v.IsNull() {
		if t, ok := v.AsTime(); ok {
			s.DeletedTime = &t
		}
	}
	return nil
}

var (
	_ fluxorm.Identifier    = (*Session)(nil)
	_ fluxorm.Timestamped   = (*Session)(nil)
	_ fluxorm.SoftDeletable = (*Session)(nil)
	_ fluxorm.BeforeCreator = (*Session)(nil)
)

func TestUUIDKey(t *testing.T) {
	t.Run("GeneratesKeyOnCreate", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions (created_at, deleted_at, id, token, updated_at) VALUES (?, ?, ?, ?, ?)")).
			WithArgs(sqlmock.AnyArg(), nil, sqlmock.AnyArg(), "tok-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := &Session{Token: "tok-1"}
		require.NoError(t, fluxorm.Create(context.Background(), drv, s))
		assert.NotEqual(t, uuid.Nil, s.Key)
		assert.False(t, s.CreatedAt.IsZero())
		assert.False(t, s.UpdatedAt.IsZero())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PresetKeyKept", func(t *testing.T) {
		drv, mock := newMock(t, dialect.SQLite)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions (created_at, deleted_at, id, token, updated_at) VALUES (?, ?, ?, ?, ?)")).
			WithArgs(sqlmock.AnyArg(), nil, sqlmock.AnyArg(), "tok-2", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		preset := uuid.New()
		s := &Session{UUIDKey: fluxorm.UUIDKey{Key: preset}, Token: "tok-2"}
		require.NoError(t, fluxorm.Create(context.Background(), drv, s))
		assert.Equal(t, preset, s.Key)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSoftDeletesEmbed(t *testing.T) {
	drv, mock := newMock(t, dialect.SQLite)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET created_at = ?, deleted_at = ?, token = ?, updated_at = ? WHERE id = ?")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "tok-3", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := &Session{UUIDKey: fluxorm.UUIDKey{Key: uuid.New()}, Token: "tok-3"}
	require.NoError(t, fluxorm.SoftDelete(context.Background(), drv, s))
	_, deleted := s.DeletedAt()
	assert.True(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
