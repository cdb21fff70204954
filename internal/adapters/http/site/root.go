// Package site serves the embedded guild search form.
package site

import (
	"context"
	"errors"
	"net/http"
	"path"
)

// Error constants
var (
	ErrServe = errors.New("site serve failed")
)

// Register attaches the embedded site routes to mux. Unmatched routes
// fall back to the entry document, so deep links land on the form.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("/", NewRootHandler())
}

// RootHandler serves embedded assets with an index.html fallback.
type RootHandler struct {
	files http.Handler
	fs    http.FileSystem
}

// NewRootHandler creates a new root handler over the embedded site.
func NewRootHandler() *RootHandler {
	fs := FS()
	return &RootHandler{
		files: http.FileServer(fs),
		fs:    fs,
	}
}

// ServeHTTP serves the requested asset, or the entry document when the
// path matches nothing.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean(r.URL.Path)
	if p != "/" {
		if f, err := h.fs.Open(p); err != nil {
			r.URL.Path = "/"
		} else {
			_ = f.Close()
		}
	}
	h.files.ServeHTTP(w, r)
}
