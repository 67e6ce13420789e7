package ratings

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var ErrStorageDirRequired = errors.New("storage directory not provided")

// defaultCapacity bounds the rating cache. The upstream data changes
// slowly, so evicting the oldest entries when the cap is reached is
// enough to keep the database small without hurting the hit rate.
const defaultCapacity = 5000

// Store is the persistent rating cache, keyed by IMDb id. Writes are
// synchronous; entries beyond the capacity evict oldest-first.
type Store struct {
	db       *sql.DB
	capacity int
}

// NewStore opens (creating if needed) the ratings database inside the
// given directory and applies pending migrations.
func NewStore(storageDir string) (*Store, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create ratings dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(storageDir, "ratings.db"))
	if err != nil {
		return nil, fmt.Errorf("open ratings db: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run ratings migrations: %w", err)
	}

	return &Store{db: db, capacity: defaultCapacity}, nil
}

// Get returns the cached rating for the id, if present.
func (s *Store) Get(imdbID string) (string, bool, error) {
	var rating string
	err := s.db.QueryRow(`SELECT rating FROM ratings WHERE imdb_id = ?`, imdbID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read rating: %w", err)
	}
	return rating, true, nil
}

// Set writes a rating through to disk, evicting the oldest entries if
// the capacity bound is exceeded.
func (s *Store) Set(imdbID, rating string) error {
	_, err := s.db.Exec(`
		INSERT INTO ratings (imdb_id, rating, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(imdb_id) DO UPDATE SET rating = excluded.rating, updated_at = CURRENT_TIMESTAMP`,
		imdbID, rating)
	if err != nil {
		return fmt.Errorf("write rating: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM ratings WHERE imdb_id IN (
			SELECT imdb_id FROM ratings ORDER BY updated_at DESC, imdb_id LIMIT -1 OFFSET ?
		)`, s.capacity)
	if err != nil {
		return fmt.Errorf("evict ratings: %w", err)
	}
	return nil
}

// Len returns the number of cached ratings.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ratings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
