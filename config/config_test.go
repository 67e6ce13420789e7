package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "settings.json"))

	s, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.Port != DefaultPort {
		t.Fatalf("expected default port %d, got %d", DefaultPort, s.Port)
	}
	if s.Language != DefaultLanguage {
		t.Fatalf("expected default language %q, got %q", DefaultLanguage, s.Language)
	}
	if s.DataDir != DefaultDataDir {
		t.Fatalf("expected default data dir %q, got %q", DefaultDataDir, s.DataDir)
	}
	if s.TMDBAPIKey != "" {
		t.Fatalf("expected no api key, got %q", s.TMDBAPIKey)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	mgr := NewManager(path)

	saved := Settings{
		TMDBAPIKey: "tmdb-key",
		OMDBAPIKey: "omdb-key",
		Language:   "pt-BR",
		Port:       8080,
		DataDir:    "mydata",
	}
	if err := mgr.Save(saved); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded != saved {
		t.Fatalf("round trip mismatch:\nsaved  %+v\nloaded %+v", saved, loaded)
	}

	// The file on disk is plain JSON, no temp remnants.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind after save")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read settings file: %v", err)
	}
	var onDisk Settings
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("settings file is not valid JSON: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	mgr := NewManager(path)
	if err := mgr.Save(Settings{TMDBAPIKey: "file-key", Port: 8080}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("PORT", "9090")
	t.Setenv("BINGEBASE_DATA_DIR", "/tmp/bingebase")

	s, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.TMDBAPIKey != "env-key" {
		t.Fatalf("expected env key to win, got %q", s.TMDBAPIKey)
	}
	if s.Port != 9090 {
		t.Fatalf("expected env port 9090, got %d", s.Port)
	}
	if s.DataDir != "/tmp/bingebase" {
		t.Fatalf("expected env data dir, got %q", s.DataDir)
	}
}

func TestLoadIgnoresBadPortEnv(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "settings.json"))
	t.Setenv("PORT", "not-a-port")

	s, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.Port != DefaultPort {
		t.Fatalf("expected default port, got %d", s.Port)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "en-US"},
		{"en-US", "en-US"},
		{"en_US", "en-US"},
		{"pt-br", "pt-BR"},
		{"en", "en-US"},
		{"fr", "fr-FR"},
		{"DE-de", "de-DE"},
		{"zz-not-a-tag!!", "en-US"},
	}
	for _, tc := range cases {
		if got := NormalizeLanguage(tc.in); got != tc.want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
