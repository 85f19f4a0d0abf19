package weblog

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/eringen/weblog/theme"
)

// URLConfig carries the context roots URL strategies build on.
type URLConfig struct {
	AbsoluteURL string // e.g. "https://blogs.example.com"
	ContextPath string // e.g. "" or "/weblogs"
}

// Collection describes the optional dimensions of a collection or custom
// page URL. At most one dimension is consumed as a path segment; the rest
// degrade to query parameters.
type Collection struct {
	Category string
	Date     string // caller guarantees a URL-safe token, e.g. "20240101" or "2024-01-01"
	Tags     []string
	PageNum  int
}

// URLStrategy builds outbound URLs for one rendering mode. Implementations
// are pure: identical inputs always yield byte-identical strings.
type URLStrategy interface {
	// WeblogURL returns the root URL of a weblog, optionally for a locale.
	WeblogURL(w Weblog, locale string, absolute bool) string
	// EntryURL returns the URL of a single entry.
	EntryURL(w Weblog, locale, anchor string, absolute bool) string
	// CollectionURL returns the URL of an entry collection.
	CollectionURL(w Weblog, locale string, c Collection, absolute bool) string
	// PageURL returns the URL of a custom template page. An empty pageLink
	// degrades to CollectionURL.
	PageURL(w Weblog, locale, pageLink string, c Collection, absolute bool) string
	// ResourceURL returns the URL of a static resource within the weblog's
	// resource namespace.
	ResourceURL(w Weblog, filePath string, absolute bool) string
}

// rootCategory is the sentinel category meaning "no category".
const rootCategory = "root"

// MultiWeblogURLStrategy builds the public URLs of a multi-tenant host:
// weblogs live under "<context>/<handle>/".
type MultiWeblogURLStrategy struct {
	cfg URLConfig
}

// NewMultiWeblogURLStrategy creates the standard public URL strategy.
func NewMultiWeblogURLStrategy(cfg URLConfig) *MultiWeblogURLStrategy {
	return &MultiWeblogURLStrategy{cfg: cfg}
}

func (s *MultiWeblogURLStrategy) baseURL(w Weblog, locale string, absolute bool) string {
	return buildBaseURL(s.cfg, "/", w, locale, absolute)
}

// WeblogURL returns the root URL of a weblog.
func (s *MultiWeblogURLStrategy) WeblogURL(w Weblog, locale string, absolute bool) string {
	return s.baseURL(w, locale, absolute)
}

// EntryURL returns the permalink of an entry.
func (s *MultiWeblogURLStrategy) EntryURL(w Weblog, locale, anchor string, absolute bool) string {
	base := s.baseURL(w, locale, absolute)
	if base == "" {
		return ""
	}
	return base + "entry/" + url.PathEscape(anchor) + "/"
}

// CollectionURL returns the URL of an entry collection.
func (s *MultiWeblogURLStrategy) CollectionURL(w Weblog, locale string, c Collection, absolute bool) string {
	base := s.baseURL(w, locale, absolute)
	if base == "" {
		return ""
	}
	segment, params := collectionPath(c, nil)
	return base + segment + queryString(params)
}

// PageURL returns the URL of a custom template page.
func (s *MultiWeblogURLStrategy) PageURL(w Weblog, locale, pageLink string, c Collection, absolute bool) string {
	if pageLink == "" {
		// no page link means this is just a typical collection url
		return s.CollectionURL(w, locale, c, absolute)
	}
	base := s.baseURL(w, locale, absolute)
	if base == "" {
		return ""
	}
	_, params := collectionPath(c, nil)
	return base + "page/" + url.PathEscape(pageLink) + "/" + queryString(params)
}

// ResourceURL returns the URL of a static resource.
func (s *MultiWeblogURLStrategy) ResourceURL(w Weblog, filePath string, absolute bool) string {
	if w.Handle == "" {
		return ""
	}
	root := contextRoot(s.cfg, absolute)
	return root + "/" + w.Handle + "/resource/" + strings.TrimPrefix(filePath, "/")
}

// PreviewURLStrategy builds URLs for the preview rendering mode. It carries
// the theme being previewed and appends it as a query parameter so preview
// requests keep rendering with the alternate theme.
type PreviewURLStrategy struct {
	cfg          URLConfig
	previewTheme string
}

const (
	previewPrefix         = "/admin/preview/"
	previewResourcePrefix = "/admin/previewresource/"
)

// NewPreviewURLStrategy creates a preview URL strategy for the given theme.
// An empty themeName previews the weblog's current state without a theme
// override.
func NewPreviewURLStrategy(cfg URLConfig, themeName string) *PreviewURLStrategy {
	return &PreviewURLStrategy{cfg: cfg, previewTheme: themeName}
}

func (s *PreviewURLStrategy) baseURL(w Weblog, locale string, absolute bool) string {
	return buildBaseURL(s.cfg, previewPrefix, w, locale, absolute)
}

func (s *PreviewURLStrategy) themeParam(params map[string]string) map[string]string {
	if s.previewTheme == "" {
		return params
	}
	if params == nil {
		params = make(map[string]string)
	}
	params["theme"] = url.QueryEscape(s.previewTheme)
	return params
}

// WeblogURL returns the preview root URL of a weblog.
func (s *PreviewURLStrategy) WeblogURL(w Weblog, locale string, absolute bool) string {
	base := s.baseURL(w, locale, absolute)
	if base == "" {
		return ""
	}
	return base + queryString(s.themeParam(nil))
}

// EntryURL returns the preview URL of a single entry. The anchor travels as
// the previewEntry query parameter rather than a path segment.
func (s *PreviewURLStrategy) EntryURL(w Weblog, locale, anchor string, absolute bool) string {
	base := s.baseURL(w, locale, absolute)
	if base == "" {
		return ""
	}
	params := s.themeParam(nil)
	if anchor != "" {
		if params == nil {
			params = make(map[string]string)
		}
		params["previewEntry"] = url.QueryEscape(anchor)
	}
	return base + queryString(params)
}

// CollectionURL returns the preview URL of an entry collection.
func (s *PreviewURLStrategy) CollectionURL(w Weblog, locale string, c Collection, absolute bool) string {
	base := s.baseURL(w, locale, absolute)
	if base == "" {
		return ""
	}
	segment, params := collectionPath(c, s.themeParam(nil))
	return base + segment + queryString(params)
}

// PageURL returns the preview URL of a custom template page.
func (s *PreviewURLStrategy) PageURL(w Weblog, locale, pageLink string, c Collection, absolute bool) string {
	if pageLink == "" {
		return s.CollectionURL(w, locale, c, absolute)
	}
	base := s.baseURL(w, locale, absolute)
	if base == "" {
		return ""
	}
	_, params := collectionPath(c, s.themeParam(nil))
	return base + "page/" + url.PathEscape(pageLink) + "/" + queryString(params)
}

// ResourceURL returns the preview URL of a static resource. The theme
// parameter is suppressed when previewing the custom theme: custom-theme
// resources resolve the same way with or without the override.
func (s *PreviewURLStrategy) ResourceURL(w Weblog, filePath string, absolute bool) string {
	if w.Handle == "" {
		return ""
	}
	root := contextRoot(s.cfg, absolute)
	u := root + previewResourcePrefix + w.Handle + "/" + strings.TrimPrefix(filePath, "/")
	var params map[string]string
	if s.previewTheme != "" && s.previewTheme != theme.Custom {
		params = map[string]string{"theme": url.QueryEscape(s.previewTheme)}
	}
	return u + queryString(params)
}

func contextRoot(cfg URLConfig, absolute bool) string {
	if absolute {
		return strings.TrimSuffix(cfg.AbsoluteURL, "/")
	}
	return strings.TrimSuffix(cfg.ContextPath, "/")
}

func buildBaseURL(cfg URLConfig, prefix string, w Weblog, locale string, absolute bool) string {
	if w.Handle == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(contextRoot(cfg, absolute))
	b.WriteString(prefix)
	b.WriteString(w.Handle)
	b.WriteByte('/')
	if locale != "" {
		b.WriteString(locale)
		b.WriteByte('/')
	}
	return b.String()
}

// collectionPath picks the path segment for a collection URL and fills the
// residual query parameters into params. Exactly one dimension may win the
// path segment: category when set without a date, else date when set without
// a category, else tags. The winning dimension is consumed; every other
// present dimension degrades to a query parameter.
func collectionPath(c Collection, params map[string]string) (string, map[string]string) {
	add := func(key, value string) {
		if params == nil {
			params = make(map[string]string)
		}
		params[key] = value
	}

	cat := c.Category
	if cat == rootCategory {
		cat = ""
	}

	var segment string
	switch {
	case cat != "" && c.Date == "":
		segment = "category/" + url.PathEscape(cat) + "/"
		cat = ""
	case c.Date != "" && cat == "":
		segment = "date/" + c.Date + "/"
		c.Date = ""
	case len(c.Tags) > 0:
		segment = "tags/" + encodeTagList(c.Tags) + "/"
		c.Tags = nil
	}

	if cat != "" {
		add("cat", url.QueryEscape(cat))
	}
	if c.Date != "" {
		add("date", c.Date)
	}
	if len(c.Tags) > 0 {
		add("tags", encodeTagListQuery(c.Tags))
	}
	if c.PageNum > 0 {
		add("page", strconv.Itoa(c.PageNum))
	}
	return segment, params
}

// encodeTagList joins tags into a single URL token: each tag path-escaped,
// separated by "+".
func encodeTagList(tags []string) string {
	escaped := make([]string, len(tags))
	for i, t := range tags {
		escaped[i] = url.PathEscape(t)
	}
	return strings.Join(escaped, "+")
}

// encodeTagListQuery encodes tags for query position. Form decoding turns a
// literal "+" into a space, so the separator is written as %2B; it decodes
// back to "+" and SplitTagList recovers the list.
func encodeTagListQuery(tags []string) string {
	escaped := make([]string, len(tags))
	for i, t := range tags {
		escaped[i] = url.QueryEscape(t)
	}
	return strings.Join(escaped, "%2B")
}

// queryString serializes params as "?k=v&..." with keys sorted so output is
// deterministic. Values must already be URL-safe. Returns "" for an empty
// set.
func queryString(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
