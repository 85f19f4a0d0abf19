package weblog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// previewWeblog gates preview requests behind the admin session and resolves
// the weblog. Preview works on hidden weblogs too: an author previews before
// going visible. Unauthenticated requests get a redirect plus a non-nil
// error so callers stop instead of rendering with a zero Weblog.
func (a *App) previewWeblog(c echo.Context) (Weblog, error) {
	if !IsAdmin(c) {
		if err := c.Redirect(http.StatusSeeOther, "/admin/"); err != nil {
			return Weblog{}, err
		}
		return Weblog{}, echo.ErrUnauthorized
	}
	handle := c.Param("handle")
	w, err := a.Store.GetWeblog(handle)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Weblog{}, echo.NewHTTPError(http.StatusNotFound, "weblog not found: "+handle)
		}
		return Weblog{}, err
	}
	return w, nil
}

// previewStrategy builds the URL strategy for this preview request. The
// theme query parameter keeps the override sticky across generated links.
func (a *App) previewStrategy(c echo.Context) (*PreviewURLStrategy, string) {
	themeName := c.QueryParam("theme")
	return NewPreviewURLStrategy(a.URLConfig(), themeName), themeName
}

// handlePreview renders a weblog's home page, or a single entry when
// previewEntry is given, without persisting the theme choice.
func (a *App) handlePreview(c echo.Context) error {
	w, err := a.previewWeblog(c)
	if err != nil {
		return err
	}
	urls, themeName := a.previewStrategy(c)
	if themeName != "" {
		w.Theme = themeName
	}

	if anchor := c.QueryParam("previewEntry"); anchor != "" {
		entry, err := a.Store.GetEntryAny(w.Handle, anchor)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
			}
			return err
		}
		return Render(c, a.Views.EntryPage(w, entry, urls))
	}

	entries, err := a.Cache.ListEntries(w.Handle, "", "")
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(w.Handle)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(w, entries, tags, urls))
}

// handlePreviewCollection renders a collection page in preview mode.
func (a *App) handlePreviewCollection(c echo.Context) error {
	w, err := a.previewWeblog(c)
	if err != nil {
		return err
	}
	urls, themeName := a.previewStrategy(c)
	if themeName != "" {
		w.Theme = themeName
	}
	col := collectionFromRequest(c)
	entries, err := a.collectionEntries(w, col)
	if err != nil {
		return err
	}
	return Render(c, a.Views.CollectionPage(w, entries, col, urls))
}

// handlePreviewResource serves files uploaded by users as well as static
// resources in shared themes. Unlike handleResource it accepts a theme
// override so a previewed theme's resources win over the configured one.
func (a *App) handlePreviewResource(c echo.Context) error {
	w, err := a.previewWeblog(c)
	if err != nil {
		return err
	}
	return a.serveResolved(c, w, c.Param("*"), c.QueryParam("theme"))
}
