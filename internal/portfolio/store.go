package portfolio

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Storage keys. These match the browser localStorage keys of the original
// dashboard so a copied-over legacy payload migrates cleanly.
const (
	currentKey = "smart_invest_portfolios"
	legacyKey  = "smart_invest_watchlist"

	// MigratedPortfolioName is the name given to the single portfolio a
	// legacy flat watchlist is wrapped into.
	MigratedPortfolioName = "Main Portfolio"
)

// Store persists the full portfolio collection as one serialized blob.
// Load reports found=false when neither current-format nor legacy data
// exists. Implementations run the legacy migration at most once, and only
// when no current-format data is present.
type Store interface {
	Load() (portfolios []Portfolio, found bool, err error)
	Save(portfolios []Portfolio) error
}

// FileStore keeps the collection in a single JSON document inside a data
// directory, with the legacy flat list as a sibling file.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a FileStore and ensures the directory exists.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("portfolio store: mkdir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) currentPath() string { return filepath.Join(s.dir, currentKey+".json") }
func (s *FileStore) legacyPath() string  { return filepath.Join(s.dir, legacyKey+".json") }

// Load returns the stored collection, migrating a legacy flat watchlist
// into a single portfolio when no current-format document exists.
func (s *FileStore) Load() ([]Portfolio, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.currentPath())
	switch {
	case err == nil:
		var ps []Portfolio
		if err := json.Unmarshal(data, &ps); err != nil {
			return nil, false, fmt.Errorf("portfolio store: unmarshal collection: %w", err)
		}
		return ps, true, nil
	case !os.IsNotExist(err):
		return nil, false, fmt.Errorf("portfolio store: read collection: %w", err)
	}

	legacy, err := os.ReadFile(s.legacyPath())
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("portfolio store: read legacy watchlist: %w", err)
	}

	ps, err := migrateLegacy(legacy)
	if err != nil {
		return nil, false, err
	}
	if err := s.saveLocked(ps); err != nil {
		return nil, false, err
	}
	if err := os.Remove(s.legacyPath()); err != nil {
		slog.Warn("legacy watchlist cleanup failed", "path", s.legacyPath(), "error", err)
	}
	slog.Info("migrated legacy watchlist", "positions", len(ps[0].Items))
	return ps, true, nil
}

// Save rewrites the whole collection. Every mutation ends here; there is
// no incremental write path.
func (s *FileStore) Save(portfolios []Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(portfolios)
}

func (s *FileStore) saveLocked(portfolios []Portfolio) error {
	data, err := json.MarshalIndent(portfolios, "", "  ")
	if err != nil {
		return fmt.Errorf("portfolio store: marshal collection: %w", err)
	}
	if err := os.WriteFile(s.currentPath(), data, 0o644); err != nil {
		return fmt.Errorf("portfolio store: write collection: %w", err)
	}
	return nil
}

// migrateLegacy wraps a legacy flat position list into one portfolio.
func migrateLegacy(data []byte) ([]Portfolio, error) {
	var items []Position
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("portfolio store: unmarshal legacy watchlist: %w", err)
	}
	return []Portfolio{{
		ID:    uuid.NewString(),
		Name:  MigratedPortfolioName,
		Items: items,
	}}, nil
}
