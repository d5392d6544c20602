// Package site handles requests outside the API: the root path leads to the
// API documentation.
package site

import (
	"context"
	"net/http"
)

// DocsPath is where the root path redirects.
const DocsPath = "/api-docs"

// Register attaches the root route to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot redirects GET / to the API docs; every other unmatched path
// is not found.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, DocsPath, http.StatusFound)
}
