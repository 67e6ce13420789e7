package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// apiKeyPlaceholder is the token inside the served app script that is
// replaced with the server-held TMDB key, so the key never has to be
// committed with the frontend sources.
const apiKeyPlaceholder = "__TMDB_API_KEY__"

// StaticHandler serves the frontend assets from a directory, with SPA
// fallback to index.html and API key substitution in scripts.
type StaticHandler struct {
	dir        string
	apiKey     string
	fileServer http.Handler
}

func NewStaticHandler(dir, apiKey string) *StaticHandler {
	return &StaticHandler{
		dir:        dir,
		apiKey:     apiKey,
		fileServer: http.FileServer(http.Dir(dir)),
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(filepath.Clean(r.URL.Path), "/")
	if name == "" || name == "." {
		name = "index.html"
	}

	path := filepath.Join(h.dir, name)

	// Scripts may carry the key placeholder; substitute before sending.
	if strings.HasSuffix(name, ".js") {
		if h.serveInjected(w, path) {
			return
		}
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		h.fileServer.ServeHTTP(w, r)
		return
	}

	// Unknown routes fall back to the app shell.
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}

// serveInjected sends a script file with the key placeholder replaced.
// Returns false when the file is missing so the caller can fall back.
func (h *StaticHandler) serveInjected(w http.ResponseWriter, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if h.apiKey != "" {
		data = []byte(strings.ReplaceAll(string(data), apiKeyPlaceholder, h.apiKey))
	} else if strings.Contains(string(data), apiKeyPlaceholder) {
		log.Printf("[static] serving %s with unreplaced api key placeholder", filepath.Base(path))
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
	return true
}
