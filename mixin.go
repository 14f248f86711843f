package fluxorm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/value"
)

// Embeddable bookkeeping for models. Embedding one of these satisfies
// the matching interface; the model's Values and SetValues still list
// the columns themselves.

// Timestamps satisfies Timestamped. Models embedding it get created_at
// and updated_at maintained on every insert and update.
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Timestamps) SetCreatedAt(v time.Time) { t.CreatedAt = v }
func (t *Timestamps) SetUpdatedAt(v time.Time) { t.UpdatedAt = v }

// SoftDeletes satisfies SoftDeletable. Models embedding it can be
// soft deleted and restored.
type SoftDeletes struct {
	DeletedTime *time.Time
}

// DeletedAt reports the deletion instant when the record is trashed.
func (s *SoftDeletes) DeletedAt() (time.Time, bool) {
	if s.DeletedTime == nil {
		return time.Time{}, false
	}
	return *s.DeletedTime, true
}

func (s *SoftDeletes) SetDeletedAt(t *time.Time) { s.DeletedTime = t }

// UUIDKey is an id primary key generated client-side on first insert.
// A model embedding it that defines its own BeforeCreate shadows the
// generation and must call UUIDKey.BeforeCreate itself.
type UUIDKey struct {
	Key uuid.UUID
}

func (k *UUIDKey) PrimaryKey() string { return "id" }

func (k *UUIDKey) ID() (value.Value, bool) {
	if k.Key == uuid.Nil {
		return value.Null(), false
	}
	return value.UUID(k.Key), true
}

func (k *UUIDKey) SetID(v value.Value) error {
	u, ok := v.AsUUID()
	if !ok {
		return fmt.Errorf("fluxorm: unexpected id kind %s", v.Kind())
	}
	k.Key = u
	return nil
}

// BeforeCreate assigns a fresh UUID when the key is still unset.
func (k *UUIDKey) BeforeCreate(ctx context.Context, q dialect.Querier) error {
	if k.Key == uuid.Nil {
		k.Key = uuid.New()
	}
	return nil
}
