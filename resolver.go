package weblog

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/eringen/weblog/theme"
)

// Resource is a resolved static resource: a lazy byte source plus the
// metadata needed for conditional-GET serving. The caller owns the stream
// returned by Open and must close it.
type Resource struct {
	Path         string
	ContentType  string
	LastModified time.Time

	open func() (io.ReadCloser, error)
}

// Open opens the resolved resource for a single full read.
func (r *Resource) Open() (io.ReadCloser, error) {
	return r.open()
}

// ThemeSource looks up shared theme bundles by name.
type ThemeSource interface {
	Theme(name string) (*theme.Theme, bool)
}

// MediaSource looks up uploaded media files by their original upload path
// and opens their bytes.
type MediaSource interface {
	ByOriginalPath(handle, path string) (MediaFile, error)
	Open(mf MediaFile) (io.ReadCloser, error)
}

// Resolver decides what a path inside a weblog's resource namespace refers
// to. Strategies are tried in priority order, first match wins: an override
// theme (preview mode), the weblog's configured theme, then the weblog's
// uploaded media files.
//
// A miss is reported as ErrNotFound. A faulting lookup is folded into a
// descriptive error rather than raised: the resolver itself never panics
// and performs no side effects beyond opening a read handle.
type Resolver struct {
	themes ThemeSource
	media  MediaSource
}

// NewResolver creates a Resolver over the given theme and media sources.
func NewResolver(themes ThemeSource, media MediaSource) *Resolver {
	return &Resolver{themes: themes, media: media}
}

// Resolve maps resourcePath within w's namespace to a Resource.
// themeOverride, when non-empty, names a theme consulted before the weblog's
// configured one (used by preview mode). A weblog without a usable theme
// simply falls through to the media-file lookup.
func (r *Resolver) Resolve(w Weblog, resourcePath, themeOverride string) (*Resource, error) {
	if themeOverride != "" {
		if res, ok := r.themeResource(themeOverride, resourcePath); ok {
			return res, nil
		}
	}

	if res, ok := r.themeResource(w.Theme, resourcePath); ok {
		return res, nil
	}

	mf, err := r.media.ByOriginalPath(w.Handle, resourcePath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("weblog: media lookup for %q: %w", resourcePath, err)
	}
	return &Resource{
		Path:         mf.OriginalPath,
		ContentType:  mf.ContentType,
		LastModified: mediaModTime(mf),
		open:         func() (io.ReadCloser, error) { return r.media.Open(mf) },
	}, nil
}

func (r *Resolver) themeResource(themeName, resourcePath string) (*Resource, bool) {
	t, ok := r.themes.Theme(themeName)
	if !ok {
		return nil, false
	}
	tr, ok := t.Resource(resourcePath)
	if !ok {
		return nil, false
	}
	return &Resource{
		Path:         resourcePath,
		ContentType:  tr.ContentType,
		LastModified: tr.ModTime,
		open:         tr.Open,
	}, true
}

func mediaModTime(mf MediaFile) time.Time {
	if t, err := time.Parse(time.RFC3339, mf.UploadedAt); err == nil {
		return t
	}
	return time.Time{}
}
