package weblog

// Weblog is a single tenant blog within the host. Handle is the unique,
// URL-safe tenant identifier.
type Weblog struct {
	Handle      string
	Name        string
	Description string
	Theme       string // theme name, or theme.Custom for a weblog-owned theme
	Locale      string // default locale, e.g. "en"
	Visible     bool
}

// Entry is a single weblog entry, stored in SQLite and rendered by templates.
type Entry struct {
	WeblogHandle string
	Anchor       string // URL-safe slug, unique per weblog
	Title        string
	Date         string // YYYY-MM-DD
	Category     string
	Tags         []string
	Summary      string
	Content      string // markdown
	Link         string
	Published    bool
}

// MediaFile is the metadata record for a user-uploaded binary resource.
// Bytes live on disk under the uploads directory; OriginalPath is the
// upload-time path the file stays addressable by, even if reorganized later.
type MediaFile struct {
	ID           string
	WeblogHandle string
	OriginalPath string
	Name         string
	ContentType  string
	Size         int
	Width        int
	Height       int
	UploadedAt   string
}

// Member is a user's role on a weblog. Pending marks an invitation that has
// not been accepted yet.
type Member struct {
	WeblogHandle string
	Username     string
	Permission   string
	Pending      bool
}

// Member permission levels, weakest to strongest.
const (
	PermEditDraft = "edit_draft"
	PermPost      = "post"
	PermAdmin     = "admin"
)

// RuntimeProperty is one editable global configuration value. Type drives
// validation when the admin saves a new value.
type RuntimeProperty struct {
	Name  string
	Value string
	Type  string // "boolean", "integer" or "string"
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
