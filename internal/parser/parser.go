// Package parser extracts cross-references and anchors from documentation
// files. Each supported document format registers a Scanner for its file
// extensions; the repository scanner picks a Scanner per file and collects
// the results into the repository model.
package parser

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/andreasabel/xrefcheck/internal/anchor"
	"github.com/andreasabel/xrefcheck/internal/models"
)

// Scanner extracts the references and anchors of a single document.
type Scanner interface {
	// Scan reads and parses the file at path. Parse errors accumulate in
	// the second return value and the partial FileInfo stays usable; the
	// error return is reserved for I/O failures.
	Scan(path string) (*models.FileInfo, []models.ParseError, error)
}

// Registry maps file extensions to document scanners.
type Registry struct {
	byExt map[string]Scanner
}

// NewRegistry creates an empty scanner registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Scanner)}
}

// NewDefaultRegistry creates the standard registry: the Markdown scanner
// registered for .md files.
func NewDefaultRegistry(flavor anchor.Flavor) *Registry {
	r := NewRegistry()
	r.Register(NewMarkdownScanner(flavor), ".md")
	return r
}

// Register claims the given extensions (leading dot included) for scanner s.
// Later registrations win, so callers can override the default mapping.
func (r *Registry) Register(s Scanner, extensions ...string) {
	for _, ext := range extensions {
		r.byExt[strings.ToLower(ext)] = s
	}
}

// Lookup returns the scanner registered for the extension of path.
func (r *Registry) Lookup(path string) (Scanner, bool) {
	s, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return s, ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
