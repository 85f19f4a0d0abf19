package weblog

import "time"

// SiteConfig holds all configuration for a weblog host instance.
type SiteConfig struct {
	Name        string // Host name shown in titles (default "Weblog")
	URL         string // Absolute context URL, e.g. "https://blogs.example.com"
	ContextPath string // Relative context root, e.g. "" or "/weblogs"
	Description string // Host description for meta tags

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/weblog.db")
	UploadsDir   string // Media file storage root (default "data/uploads")
	ThemesDir    string // Extra theme bundles loaded from disk (optional)

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	EntryCacheTTL time.Duration // Entry cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Weblog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/weblog.db"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "data/uploads"
	}
	if c.EntryCacheTTL == 0 {
		c.EntryCacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for host-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
