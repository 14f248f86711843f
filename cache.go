package fluxorm

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/maxBogovick/fluxorm/value"
)

// Cache stores encoded query results. Implement it with a preferred
// backend (Redis, Memcached); NewMemoryCache covers the in-process
// case.
type Cache interface {
	// Get retrieves a value. A missing key returns nil, nil.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A ttl of 0 means the value does not expire.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all keys.
	Clear(ctx context.Context) error
}

// CacheKey builds the key for one read query. Keys start with
// "table:" so a write to the table can invalidate them with a single
// DeletePrefix; the remainder hashes the operation, dialect, statement
// and bound parameters.
func CacheKey(table, op, d, query string, args []value.Value) string {
	h := fnv.New64a()
	io.WriteString(h, op)
	io.WriteString(h, "|")
	io.WriteString(h, d)
	io.WriteString(h, "|")
	io.WriteString(h, query)
	for _, a := range args {
		fmt.Fprintf(h, "|%v", a.Native())
	}
	return table + ":" + strconv.FormatUint(h.Sum64(), 16)
}

type tableCtxKey struct{}

// WithTable tags the context with the table the operation touches.
// Every CRUD helper applies it, so cached reads are keyed per table
// and writes invalidate only that table's entries.
func WithTable(ctx context.Context, table string) context.Context {
	return context.WithValue(ctx, tableCtxKey{}, table)
}

// TableFromContext reports the table recorded by WithTable.
func TableFromContext(ctx context.Context) (string, bool) {
	table, ok := ctx.Value(tableCtxKey{}).(string)
	return table, ok && table != ""
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryCache is an in-process Cache with per-entry TTL. Expired
// entries are dropped lazily on Get.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get implements Cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// The entry may have been replaced since the read lock dropped.
		if cur, ok := c.entries[key]; ok && !cur.expiresAt.IsZero() && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, nil
	}
	return e.data, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// DeletePrefix implements Cache.
func (c *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, including entries that
// expired but were not read since.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
