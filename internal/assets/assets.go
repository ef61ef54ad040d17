// Package assets serves static files as the fall-through when no API
// mount handles a request (spec.md §4.4).
package assets

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/httperr"
)

// textContentTypes get a "; charset=UTF-8" suffix, matching the spec's
// "text types include; charset=UTF-8" rule.
var textContentTypes = map[string]bool{
	"text/html":              true,
	"text/plain":             true,
	"text/css":               true,
	"application/javascript": true,
	"application/json":       true,
}

// Server serves files under Folder, mapping GET / to index.html.
type Server struct {
	Folder string
}

// New builds an asset Server rooted at folder. folder may be empty, in
// which case ServeOrNotFound always reports a miss.
func New(folder string) *Server {
	return &Server{Folder: folder}
}

// ServeOrNotFound serves the file matching r.URL.Path, or writes the
// spec's plain-text 404 when it cannot be found (or asset serving is
// disabled).
func (s *Server) ServeOrNotFound(w http.ResponseWriter, r *http.Request, requestID string) {
	if s.Folder == "" {
		httperr.NotFound(w, requestID)
		return
	}

	rel := r.URL.Path
	if rel == "/" || rel == "" {
		rel = "/index.html"
	}
	rel = filepath.Clean(rel)
	// filepath.Clean may leave a leading ".." for a maliciously crafted
	// path; refuse to escape Folder.
	if strings.HasPrefix(rel, "..") {
		httperr.NotFound(w, requestID)
		return
	}

	fullPath := filepath.Join(s.Folder, rel)
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			httperr.NotFound(w, requestID)
			return
		}
		httperr.NotFound(w, requestID)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		httperr.NotFound(w, requestID)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(fullPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if base, _, _ := strings.Cut(contentType, ";"); textContentTypes[strings.TrimSpace(base)] {
		contentType = base + "; charset=UTF-8"
	}

	w.Header().Set("Request-Id", requestID)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}
