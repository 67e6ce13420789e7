package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"bingebase/models"
)

var ErrStorageDirRequired = errors.New("storage directory not provided")

// historyLimit caps the search history at the ten most recent queries.
const historyLimit = 10

// Service owns the durable user state: favorites and search history.
// Every mutation persists synchronously before returning, so the
// in-memory mirrors and the backing files never diverge.
type Service struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string

	favorites []models.Favorite
	history   []string
}

// NewService loads (or initializes) the preference files inside the
// given directory. Pass nil for fs to use the real filesystem.
func NewService(fs afero.Fs, storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}

	svc := &Service{fs: fs, dir: storageDir}
	if err := svc.load(); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) favoritesPath() string { return filepath.Join(s.dir, "favorites.json") }
func (s *Service) historyPath() string   { return filepath.Join(s.dir, "search_history.json") }

// AddFavorite stores a favorite. Adding an id that already exists is a
// silent no-op; the stored snapshot is not refreshed.
func (s *Service) AddFavorite(fav models.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.favorites {
		if existing.ID == fav.ID {
			return nil
		}
	}
	s.favorites = append(s.favorites, fav)
	return s.saveFavoritesLocked()
}

// RemoveFavorite deletes the favorite with the given id, reporting
// whether it was present.
func (s *Service) RemoveFavorite(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.favorites {
		if existing.ID == id {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			return true, s.saveFavoritesLocked()
		}
	}
	return false, nil
}

// IsFavorite reports whether the id is favorited.
func (s *Service) IsFavorite(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, existing := range s.favorites {
		if existing.ID == id {
			return true
		}
	}
	return false
}

// Favorites returns the favorites in insertion order.
func (s *Service) Favorites() []models.Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Favorite, len(s.favorites))
	copy(out, s.favorites)
	return out
}

// RecordSearch stores a successful query, most-recent-first, capped at
// ten entries. Recording a query already in the list leaves the list
// untouched; the existing entry keeps its position.
func (s *Service) RecordSearch(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.history {
		if existing == query {
			return nil
		}
	}
	s.history = append([]string{query}, s.history...)
	if len(s.history) > historyLimit {
		s.history = s.history[:historyLimit]
	}
	return s.saveHistoryLocked()
}

// ClearHistory wipes the whole search history.
func (s *Service) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	return s.saveHistoryLocked()
}

// History returns recorded queries, most recent first.
func (s *Service) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// load tolerates missing or empty files: a first run starts with empty
// collections, not an error.
func (s *Service) load() error {
	if err := s.readJSON(s.favoritesPath(), &s.favorites); err != nil {
		return fmt.Errorf("load favorites: %w", err)
	}
	if err := s.readJSON(s.historyPath(), &s.history); err != nil {
		return fmt.Errorf("load search history: %w", err)
	}
	return nil
}

func (s *Service) readJSON(path string, v any) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if exists, _ := afero.Exists(s.fs, path); !exists {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (s *Service) saveFavoritesLocked() error {
	items := s.favorites
	if items == nil {
		items = []models.Favorite{}
	}
	return s.writeJSON(s.favoritesPath(), items)
}

func (s *Service) saveHistoryLocked() error {
	items := s.history
	if items == nil {
		items = []string{}
	}
	return s.writeJSON(s.historyPath(), items)
}

// writeJSON persists atomically: encode to a temp file, then rename
// over the target.
func (s *Service) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
