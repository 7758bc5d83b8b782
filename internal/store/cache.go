package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateCacheEntry inserts a cache row keyed by the content hash. The key is a
// pure function of the entry's inputs, so a conflicting insert carries the
// same content and is ignored.
func (s *SQLiteStore) CreateCacheEntry(e *CacheEntry) error {
	now := time.Now()
	e.CreatedAt = now
	e.LastAccess = now
	if e.AccessCount == 0 {
		e.AccessCount = 1
	}

	stmt, err := s.db.Prepare(`
        INSERT INTO audio_cache (key, location, bytes, voice, pace, created_at, last_access, access_count)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (key) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(e.Key, e.Location, e.Bytes, e.Voice, e.Pace, e.CreatedAt, e.LastAccess, e.AccessCount); err != nil {
		return fmt.Errorf("failed to execute cache insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCacheEntry(key string) (*CacheEntry, error) {
	row := s.db.QueryRow(
		"SELECT key, location, bytes, voice, pace, created_at, last_access, access_count FROM audio_cache WHERE key = ?",
		key)
	return scanCacheEntry(row)
}

// TouchCacheEntry bumps last_access and access_count and returns the entry, or
// (nil, nil) on a miss.
func (s *SQLiteStore) TouchCacheEntry(key string) (*CacheEntry, error) {
	res, err := s.db.Exec(
		"UPDATE audio_cache SET last_access = ?, access_count = access_count + 1 WHERE key = ?",
		time.Now(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to touch cache entry: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, nil // Cache miss
	}
	return s.GetCacheEntry(key)
}

func (s *SQLiteStore) TotalCacheBytes() (int64, error) {
	var total int64
	if err := s.db.QueryRow("SELECT COALESCE(SUM(bytes), 0) FROM audio_cache").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum cache bytes: %w", err)
	}
	return total, nil
}

// OldestCacheEntries returns up to limit entries in last-access order, oldest
// first. The eviction sweep walks this list.
func (s *SQLiteStore) OldestCacheEntries(limit int) ([]CacheEntry, error) {
	rows, err := s.db.Query(
		"SELECT key, location, bytes, voice, pace, created_at, last_access, access_count FROM audio_cache ORDER BY last_access ASC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entries: %w", err)
	}
	defer rows.Close()

	var entries []CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(&e.Key, &e.Location, &e.Bytes, &e.Voice, &e.Pace, &e.CreatedAt, &e.LastAccess, &e.AccessCount); err != nil {
			return nil, fmt.Errorf("failed to scan cache row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) DeleteCacheEntry(key string) error {
	res, err := s.db.Exec("DELETE FROM audio_cache WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("cache entry %s: %w", key, ErrNotFound)
	}
	return nil
}

func scanCacheEntry(row *sql.Row) (*CacheEntry, error) {
	var e CacheEntry
	err := row.Scan(&e.Key, &e.Location, &e.Bytes, &e.Voice, &e.Pace, &e.CreatedAt, &e.LastAccess, &e.AccessCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to scan cache row: %w", err)
	}
	return &e, nil
}
