// Package theme manages named theme bundles: directories of templates and
// static resources that a weblog can be assigned. Themes are loaded once at
// startup and treated as read-only afterwards.
package theme

import (
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// Custom is the sentinel theme name for a weblog that manages its own
// templates instead of using a shared bundle.
const Custom = "custom"

// Resource is one static file inside a theme bundle. Open returns a fresh
// reader each call; the caller owns the returned stream and must close it.
type Resource struct {
	Path        string
	ContentType string
	ModTime     time.Time

	fsys fs.FS
	name string
}

// Open opens the underlying file for reading.
func (r *Resource) Open() (io.ReadCloser, error) {
	return r.fsys.Open(r.name)
}

// Theme is a named, immutable bundle of static resources.
type Theme struct {
	Name string
	fsys fs.FS
}

// New creates a Theme over the given filesystem.
func New(name string, fsys fs.FS) *Theme {
	return &Theme{Name: name, fsys: fsys}
}

// Resource looks up a static file by its path within the bundle. A single
// leading slash is stripped before lookup. Returns false when the path does
// not name a regular file inside the bundle.
func (t *Theme) Resource(resourcePath string) (*Resource, bool) {
	name := CleanPath(resourcePath)
	if name == "" {
		return nil, false
	}
	info, err := fs.Stat(t.fsys, name)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return &Resource{
		Path:        resourcePath,
		ContentType: mime.TypeByExtension(path.Ext(name)),
		ModTime:     info.ModTime(),
		fsys:        t.fsys,
		name:        name,
	}, true
}

// CleanPath normalizes a resource path for lookup: strips one leading slash,
// collapses dot segments and rejects anything that escapes the bundle root.
func CleanPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ""
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return ""
	}
	return cleaned
}

// Registry holds all shared themes known to the host.
type Registry struct {
	mu     sync.RWMutex
	themes map[string]*Theme
}

// NewRegistry returns an empty theme registry.
func NewRegistry() *Registry {
	return &Registry{themes: make(map[string]*Theme)}
}

// Add registers a theme over the given filesystem, replacing any theme with
// the same name.
func (r *Registry) Add(name string, fsys fs.FS) {
	r.mu.Lock()
	r.themes[name] = New(name, fsys)
	r.mu.Unlock()
}

// LoadDir registers every subdirectory of fsys as a theme named after the
// subdirectory.
func (r *Registry) LoadDir(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("theme: read themes dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub, err := fs.Sub(fsys, e.Name())
		if err != nil {
			return fmt.Errorf("theme: open theme %q: %w", e.Name(), err)
		}
		r.Add(e.Name(), sub)
	}
	return nil
}

// Theme looks up a registered theme by name. The Custom sentinel never
// resolves to a shared bundle.
func (r *Registry) Theme(name string) (*Theme, bool) {
	if name == "" || name == Custom {
		return nil, false
	}
	r.mu.RLock()
	t, ok := r.themes[name]
	r.mu.RUnlock()
	return t, ok
}

// Names returns the sorted names of all registered themes.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.themes))
	for name := range r.themes {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
