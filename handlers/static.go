package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPAHandler serves a single-page app build: real files directly, everything
// else falls back to index.html so the client-side router can take over.
type SPAHandler struct {
	dir string
}

// NewSPAHandler creates a handler serving the static build in dir.
func NewSPAHandler(dir string) *SPAHandler {
	return &SPAHandler{dir: dir}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dir, filepath.FromSlash(strings.TrimPrefix(r.URL.Path, "/")))

	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
