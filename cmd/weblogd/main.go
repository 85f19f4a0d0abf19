package main

import (
	"fmt"
	"os"
	"time"

	"github.com/eringen/weblog"
	"github.com/eringen/weblog/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("weblogd %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	cfg := weblog.SiteConfig{
		Name:        weblog.EnvOr("WEBLOG_NAME", "Weblog"),
		URL:         weblog.EnvOr("WEBLOG_URL", "http://localhost:3000"),
		ContextPath: weblog.EnvOr("WEBLOG_CONTEXT_PATH", ""),
		Description: weblog.EnvOr("WEBLOG_DESCRIPTION", ""),

		Addr:         weblog.EnvOr("WEBLOG_ADDR", ":3000"),
		DatabasePath: weblog.EnvOr("WEBLOG_DB_PATH", "data/weblog.db"),
		UploadsDir:   weblog.EnvOr("WEBLOG_UPLOADS_DIR", "data/uploads"),
		ThemesDir:    weblog.EnvOr("WEBLOG_THEMES_DIR", ""),

		AdminPassword: weblog.MustEnv("WEBLOG_ADMIN_PASSWORD"),
		SessionSecret: weblog.MustEnv("WEBLOG_SESSION_SECRET"),
		CookieSecure:  weblog.EnvOr("WEBLOG_COOKIE_SECURE", "false") == "true",
	}
	if ttl := os.Getenv("WEBLOG_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid WEBLOG_CACHE_TTL: %w", err)
		}
		cfg.EntryCacheTTL = d
	}

	app := weblog.New(cfg, views.Default(cfg))
	defer app.Close()
	return app.Start()
}

func printUsage() {
	fmt.Println(`weblogd - A multi-weblog publishing host built with Go, Echo, and templ

Usage:
  weblogd <command>

Commands:
  serve         Start the weblog host server
  version       Print the weblogd version
  help          Show this help message

Configuration is read from WEBLOG_* environment variables;
WEBLOG_ADMIN_PASSWORD and WEBLOG_SESSION_SECRET are required.`)
}
