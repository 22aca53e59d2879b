package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/pageblocks/ports"
)

// CacheStore implements ports.CacheStore on the cache_entries table.
// Expiry is stored as unix nanoseconds, zero meaning never.
type CacheStore struct {
	db    *DB
	clock ports.Clock
}

// NewCacheStore creates a cache store reading time from clock.
func NewCacheStore(db *DB, clock ports.Clock) *CacheStore {
	return &CacheStore{db: db, clock: clock}
}

// Get returns the stored value, or nil when absent or expired.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries
		WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, s.clock.Now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Put stores value under key. A ttl <= 0 never expires.
func (s *CacheStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.clock.Now().Add(ttl).UnixNano()
	}
	if value == nil {
		value = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	return err
}

// Forget removes key.
func (s *CacheStore) Forget(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *CacheStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at <= ?`,
		s.clock.Now().UnixNano(),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ ports.CacheStore = (*CacheStore)(nil)
