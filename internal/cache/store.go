package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// dbFileName is the SQLite database file name inside the cache directory.
const dbFileName = "raventrace.db"

// Store is a TTL-based profile cache backed by SQLite.
// Rows are keyed by (kind, normalized query); the three query kinds form
// independent keyspaces in a single table, so an email and a handle with the
// same normalized text never collide.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// now is the clock used for TTL checks and saved_at stamps.
	// Injectable so tests can simulate expiry without sleeping.
	now func() time.Time
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool

	// Clock overrides the time source. Nil means time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a profile cache in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned instead of silently creating an empty cache.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("cache database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer; keep the pool to a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		now:    opts.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the cache schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Profiles are stored as JSON, one live row per (kind, query_key).
	CREATE TABLE IF NOT EXISTS profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		query_key TEXT NOT NULL,
		payload TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		UNIQUE(kind, query_key)
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_saved_at ON profiles(saved_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Get returns the cached profile for (kind, key) if it was saved less than
// ttl ago. A stale or absent row returns (nil, nil): expiry is lazy and the
// stale row is left in place for EvictOlderThan to clean up.
func (s *Store) Get(ctx context.Context, kind model.QueryKind, key string, ttl time.Duration) (*model.Profile, error) {
	query := `
	SELECT payload, saved_at FROM profiles
	WHERE kind = ? AND query_key = ?
	`

	var payload, savedAtStr string
	err := s.db.QueryRowContext(ctx, query, string(kind), key).Scan(&payload, &savedAtStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	savedAt := parseTimestamp(savedAtStr)
	if savedAt.IsZero() || s.now().Sub(savedAt) >= ttl {
		// Stale entry behaves as a miss.
		return nil, nil
	}

	var profile model.Profile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse cached profile: %w", err)
	}

	return &profile, nil
}

// Put upserts the profile for (kind, key), stamping saved_at with the current
// clock. The upsert is a single atomic statement: concurrent writers for the
// same key resolve to last-writer-wins with no half-written row visible.
func (s *Store) Put(ctx context.Context, kind model.QueryKind, key string, profile *model.Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}

	query := `
	INSERT INTO profiles (kind, query_key, payload, saved_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(kind, query_key) DO UPDATE SET
		payload = excluded.payload,
		saved_at = excluded.saved_at
	`

	_, err = s.db.ExecContext(ctx, query,
		string(kind),
		key,
		string(payload),
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// EvictOlderThan bulk-deletes rows whose saved_at is older than age,
// regardless of any per-read TTL. EvictOlderThan(0) removes every row.
// Returns the number of rows deleted.
func (s *Store) EvictOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := s.now().Add(-age).UTC().Format(time.RFC3339Nano)

	// Compare parsed times, not raw strings: RFC3339Nano drops trailing
	// zeros and the legacy fallback formats use a different layout, so
	// lexicographic ordering on saved_at is not chronological.
	result, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE datetime(saved_at) <= datetime(?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to evict cache entries: %w", err)
	}

	return result.RowsAffected()
}

// EntryInfo summarizes one cached row without deserializing the profile.
type EntryInfo struct {
	// Kind is the query kind keyspace the entry belongs to.
	Kind model.QueryKind

	// Key is the normalized query.
	Key string

	// SavedAt is when the entry was written.
	SavedAt time.Time
}

// List returns metadata for every cached row, newest first.
// Used by the CLI's cache listing; the engine never needs this.
func (s *Store) List(ctx context.Context) ([]EntryInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT kind, query_key, saved_at FROM profiles
	ORDER BY saved_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []EntryInfo
	for rows.Next() {
		var info EntryInfo
		var kind, savedAt string
		if err := rows.Scan(&kind, &info.Key, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		info.Kind = model.QueryKind(kind)
		info.SavedAt = parseTimestamp(savedAt)
		entries = append(entries, info)
	}

	return entries, rows.Err()
}

// timestampFormats contains the timestamp formats accepted when reading
// saved_at values. New rows are always written as RFC3339Nano; the fallbacks
// cover rows written by earlier versions or external tooling.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// Returns zero time if no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
