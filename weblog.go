// Package weblog is a multi-tenant weblog host built with Go, Echo, and
// templ. Each tenant weblog lives under its own handle and gets entries,
// themes, media uploads, search, feeds, and a preview mode for trying an
// alternate theme without persisting it.
//
// Users provide their own templ components via the ViewFuncs struct, and
// the package handles all the handler logic, middleware, resource
// resolution, and database operations.
package weblog

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/weblog/theme"
)

// ViewFuncs holds user-provided templ components that the host calls when
// rendering pages. This is the inversion-of-control mechanism that lets
// users own and customize all templates. Every page component receives the
// URLStrategy to build links with, so the same component serves both normal
// and preview rendering.
type ViewFuncs struct {
	FrontPage      func(weblogs []Weblog) templ.Component
	Home           func(w Weblog, entries []Entry, tags []string, urls URLStrategy) templ.Component
	EntryPage      func(w Weblog, e Entry, urls URLStrategy) templ.Component
	CollectionPage func(w Weblog, entries []Entry, c Collection, urls URLStrategy) templ.Component
	SearchPage     func(w Weblog, query string, entries []Entry, urls URLStrategy) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(weblogs []Weblog, message, csrfToken string) templ.Component
	AdminWeblog    func(w Weblog, entries []Entry, media []MediaFile, members []Member, themes []string, message, csrfToken string) templ.Component
	AdminConfig    func(props []RuntimeProperty, message, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central weblog host application. It wires together the store,
// cache, theme registry, media library, resource resolver, URL strategies,
// handlers, middleware, and user-provided templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *EntryCache
	Themes   *theme.Registry
	Media    *MediaLibrary
	Resolver *Resolver
	URLs     URLStrategy // public URL strategy
	Views    ViewFuncs

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new weblog host App with the given configuration and view
// functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// URLConfig returns the context roots URL strategies are built from.
func (a *App) URLConfig() URLConfig {
	return URLConfig{AbsoluteURL: a.Config.URL, ContextPath: a.Config.ContextPath}
}

// Start initializes the database, themes, cache, middleware, and routes,
// then starts the server.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) init() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("weblog: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("weblog: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("weblog: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewEntryCache(a.Store, a.Config.EntryCacheTTL)
	a.Media = NewMediaLibrary(a.Store, a.Config.UploadsDir)

	a.Themes = theme.NewRegistry()
	embedded, err := fs.Sub(EmbeddedThemes, "themes")
	if err != nil {
		return fmt.Errorf("weblog: embedded themes: %w", err)
	}
	if err := a.Themes.LoadDir(embedded); err != nil {
		return err
	}
	if a.Config.ThemesDir != "" {
		if err := a.Themes.LoadDir(os.DirFS(a.Config.ThemesDir)); err != nil {
			return err
		}
	}

	a.Resolver = NewResolver(a.Themes, a.Media)
	a.URLs = NewMultiWeblogURLStrategy(a.URLConfig())
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Host-owned static assets
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/", a.handleFrontPage)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/weblog/:handle/", a.handleAdminWeblog)
	e.POST("/admin/weblog/save/", a.handleAdminWeblogSave)
	e.POST("/admin/entry/save/", a.handleAdminEntrySave)
	e.DELETE("/admin/entry/:handle/:anchor/", a.handleAdminEntryDelete)
	e.POST("/admin/media/upload/", a.handleMediaUpload)
	e.DELETE("/admin/media/:id/", a.handleMediaDelete)
	e.POST("/admin/members/invite/", a.handleMemberInvite)
	e.GET("/admin/config/", a.handleAdminConfig)
	e.POST("/admin/config/save/", a.handleAdminConfigSave)

	// Preview routes (admin-gated): alternate-theme rendering plus resource
	// resolution with a theme override.
	e.GET("/admin/preview/:handle/", a.handlePreview)
	e.GET("/admin/preview/:handle/category/:category/", a.handlePreviewCollection)
	e.GET("/admin/preview/:handle/date/:date/", a.handlePreviewCollection)
	e.GET("/admin/preview/:handle/tags/:tags/", a.handlePreviewCollection)
	e.GET("/admin/preview/:handle/page/:pagelink/", a.handlePreviewCollection)
	e.GET("/admin/previewresource/:handle/*", a.handlePreviewResource)

	// Per-weblog public routes
	e.GET("/:handle/", a.handleWeblogHome)
	e.GET("/:handle/entry/:anchor/", a.handleEntry)
	e.GET("/:handle/category/:category/", a.handleCollection)
	e.GET("/:handle/date/:date/", a.handleCollection)
	e.GET("/:handle/tags/:tags/", a.handleCollection)
	e.GET("/:handle/page/:pagelink/", a.handleCollection)
	e.GET("/:handle/search/", a.handleSearch)
	e.GET("/:handle/resource/*", a.handleResource)
	e.GET("/:handle/media/:id", a.handleMedia)
	e.GET("/:handle/feed.xml", a.handleFeed)
	e.GET("/:handle/sitemap.xml", a.handleSitemap)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if
// empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally
// exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("weblog: required environment variable %s is not set", key)
	}
	return v
}
