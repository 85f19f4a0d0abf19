package weblog

import "embed"

// EmbeddedThemes contains the theme bundles shipped with the host. Each
// subdirectory of themes/ is registered as a shared theme at startup.
//
//go:embed all:themes
var EmbeddedThemes embed.FS
