package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

const (
	DefaultPort     = 3000
	DefaultLanguage = "en-US"
	DefaultDataDir  = "data"
)

// Settings is the persisted application configuration.
type Settings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	OMDBAPIKey string `json:"omdbApiKey,omitempty"`
	Language   string `json:"language,omitempty"`
	Port       int    `json:"port,omitempty"`
	DataDir    string `json:"dataDir,omitempty"`
}

// Manager loads and saves settings from a JSON file, applying
// environment overrides on every load so container deployments can
// configure keys without a settings file.
type Manager struct {
	mu   sync.Mutex
	path string
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads settings from disk. A missing file is not an error: the
// defaults (plus environment overrides) are returned instead.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Settings{
		Language: DefaultLanguage,
		Port:     DefaultPort,
		DataDir:  DefaultDataDir,
	}

	data, err := os.ReadFile(m.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("decode settings: %w", err)
		}
	}

	applyEnvOverrides(&s)

	if s.Port <= 0 {
		s.Port = DefaultPort
	}
	if strings.TrimSpace(s.DataDir) == "" {
		s.DataDir = DefaultDataDir
	}
	s.Language = NormalizeLanguage(s.Language)

	return s, nil
}

// Save writes settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	tmp := m.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create settings temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close settings temp file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func applyEnvOverrides(s *Settings) {
	if v := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); v != "" {
		s.TMDBAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OMDB_API_KEY")); v != "" {
		s.OMDBAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			s.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("BINGEBASE_DATA_DIR")); v != "" {
		s.DataDir = v
	}
}

// NormalizeLanguage canonicalizes a language tag ("en", "pt-br",
// "en_US") into the BCP-47 form TMDB expects. Unparseable input falls
// back to the default.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ReplaceAll(lang, "_", "-"))
	if lang == "" {
		return DefaultLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return DefaultLanguage
	}
	base, conf := tag.Base()
	if conf == language.No {
		return DefaultLanguage
	}
	if region, conf := tag.Region(); conf != language.No && region.IsCountry() {
		return base.String() + "-" + region.String()
	}
	return base.String()
}
