package portfolio

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the serialized collection in a small key/value table,
// under the same keys the FileStore uses for its file names.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("portfolio store: open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value BLOB NOT NULL)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("portfolio store: create kv table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("portfolio store: read %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) put(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("portfolio store: write %q: %w", key, err)
	}
	return nil
}

// Load returns the stored collection, running the one-time legacy
// migration when only the flat watchlist row exists.
func (s *SQLiteStore) Load() ([]Portfolio, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, found, err := s.get(currentKey)
	if err != nil {
		return nil, false, err
	}
	if found {
		var ps []Portfolio
		if err := json.Unmarshal(data, &ps); err != nil {
			return nil, false, fmt.Errorf("portfolio store: unmarshal collection: %w", err)
		}
		return ps, true, nil
	}

	legacy, found, err := s.get(legacyKey)
	if err != nil || !found {
		return nil, false, err
	}

	ps, err := migrateLegacy(legacy)
	if err != nil {
		return nil, false, err
	}
	if err := s.saveLocked(ps); err != nil {
		return nil, false, err
	}
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, legacyKey); err != nil {
		slog.Warn("legacy watchlist cleanup failed", "key", legacyKey, "error", err)
	}
	slog.Info("migrated legacy watchlist", "positions", len(ps[0].Items))
	return ps, true, nil
}

// Save rewrites the whole collection under the current-format key.
func (s *SQLiteStore) Save(portfolios []Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(portfolios)
}

func (s *SQLiteStore) saveLocked(portfolios []Portfolio) error {
	data, err := json.Marshal(portfolios)
	if err != nil {
		return fmt.Errorf("portfolio store: marshal collection: %w", err)
	}
	return s.put(currentKey, data)
}
