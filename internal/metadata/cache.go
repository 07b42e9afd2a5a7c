// Package metadata runs full enrichment passes over the provider
// orchestrator and caches their results.
package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned when no live entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// Cache persists enrichment results in SQLite with a TTL. Expired rows
// are treated as misses and removed by Prune.
type Cache struct {
	db *sql.DB
}

// NewCache creates an enrichment result cache on the given database.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Get returns the cached result for an enrichment key. A missing or
// expired entry returns ErrCacheMiss; an entry that can no longer be
// decoded returns the decode error so callers can discard it.
func (c *Cache) Get(ctx context.Context, key string) (*EnrichResult, error) {
	var payload string
	var expiresAt time.Time

	err := c.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM metadata_cache WHERE key = ?", key,
	).Scan(&payload, &expiresAt)
	if err != nil || time.Now().After(expiresAt) {
		return nil, ErrCacheMiss
	}

	var result EnrichResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode cached result %q: %w", key, err)
	}
	return &result, nil
}

// Set stores an enrichment result under the key, replacing any previous
// entry and restarting its TTL.
func (c *Cache) Set(ctx context.Context, key string, result *EnrichResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result for cache: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO metadata_cache (key, value, expires_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, string(payload), time.Now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the entry for a key, if any.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM metadata_cache WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Prune removes all expired entries and reports how many were dropped.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		"DELETE FROM metadata_cache WHERE expires_at < ?", time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return result.RowsAffected()
}
