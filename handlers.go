package weblog

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *App) handleFrontPage(c echo.Context) error {
	weblogs, err := a.Store.ListWeblogs()
	if err != nil {
		return err
	}
	visible := make([]Weblog, 0, len(weblogs))
	for _, w := range weblogs {
		if w.Visible {
			visible = append(visible, w)
		}
	}
	return Render(c, a.Views.FrontPage(visible))
}

// handleRobots generates robots.txt dynamically using the configured URL.
func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\nDisallow: /admin/\n")
}

// lookupWeblog resolves the :handle route param to a visible weblog.
func (a *App) lookupWeblog(c echo.Context) (Weblog, error) {
	handle := c.Param("handle")
	w, err := a.Store.GetWeblog(handle)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Weblog{}, echo.NewHTTPError(http.StatusNotFound, "weblog not found: "+handle)
		}
		return Weblog{}, err
	}
	if !w.Visible {
		return Weblog{}, echo.NewHTTPError(http.StatusNotFound, "weblog not found: "+handle)
	}
	return w, nil
}

func (a *App) handleWeblogHome(c echo.Context) error {
	w, err := a.lookupWeblog(c)
	if err != nil {
		return err
	}
	if err := a.Store.IncrementHit(w.Handle, time.Now().UTC().Format("2006-01-02")); err != nil {
		c.Logger().Errorf("hit count for %s: %v", w.Handle, err)
	}
	entries, err := a.Cache.ListEntries(w.Handle, "", "")
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(w.Handle)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(w, entries, tags, a.URLs))
}

func (a *App) handleEntry(c echo.Context) error {
	w, err := a.lookupWeblog(c)
	if err != nil {
		return err
	}
	entry, err := a.Cache.GetEntry(w.Handle, c.Param("anchor"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	return Render(c, a.Views.EntryPage(w, entry, a.URLs))
}

// collectionFromRequest assembles the requested collection dimensions from
// the route's path segment plus the residual query parameters. This is the
// inbound mirror of the URL strategies: a dimension arrives either as the
// path segment or as a query parameter, never both.
func collectionFromRequest(c echo.Context) Collection {
	col := Collection{
		Category: c.Param("category"),
		Date:     c.Param("date"),
		Tags:     SplitTagList(c.Param("tags")),
	}
	if col.Category == "" {
		col.Category = c.QueryParam("cat")
	}
	if col.Category == rootCategory {
		col.Category = ""
	}
	if col.Date == "" {
		col.Date = c.QueryParam("date")
	}
	if len(col.Tags) == 0 {
		col.Tags = SplitTagList(c.QueryParam("tags"))
	}
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		col.PageNum = n
	}
	return col
}

func (a *App) handleCollection(c echo.Context) error {
	w, err := a.lookupWeblog(c)
	if err != nil {
		return err
	}
	col := collectionFromRequest(c)
	entries, err := a.collectionEntries(w, col)
	if err != nil {
		return err
	}
	return Render(c, a.Views.CollectionPage(w, entries, col, a.URLs))
}

func (a *App) collectionEntries(w Weblog, col Collection) ([]Entry, error) {
	if col.Date != "" {
		return a.Store.ListEntriesByDate(w.Handle, col.Date)
	}
	tag := ""
	if len(col.Tags) > 0 {
		tag = col.Tags[0]
	}
	entries, err := a.Cache.ListEntries(w.Handle, col.Category, tag)
	if err != nil {
		return nil, err
	}
	// intersect any remaining tags in memory
	if len(col.Tags) > 1 {
		for _, t := range col.Tags[1:] {
			normalized := strings.ToLower(strings.TrimSpace(t))
			var kept []Entry
			for _, e := range entries {
				if hasTag(e, normalized) {
					kept = append(kept, e)
				}
			}
			entries = kept
		}
	}
	return entries, nil
}

func (a *App) handleSearch(c echo.Context) error {
	w, err := a.lookupWeblog(c)
	if err != nil {
		return err
	}
	query := c.QueryParam("q")
	category := c.QueryParam("cat")
	var entries []Entry
	if query != "" {
		entries, err = a.Store.SearchEntries(w.Handle, query, category)
		if err != nil {
			return err
		}
	}
	return Render(c, a.Views.SearchPage(w, query, entries, a.URLs))
}

// handleResource serves fixed-path files: theme resources and old-style
// uploads that must stay addressable at their original path.
func (a *App) handleResource(c echo.Context) error {
	w, err := a.lookupWeblog(c)
	if err != nil {
		return err
	}
	return a.serveResolved(c, w, c.Param("*"), "")
}

// serveResolved resolves a resource path and streams it with
// conditional-GET support. themeOverride is non-empty in preview mode.
func (a *App) serveResolved(c echo.Context, w Weblog, resourcePath, themeOverride string) error {
	res, err := a.Resolver.Resolve(w, resourcePath, themeOverride)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.Logger().Errorf("resolve %s/%s: %v", w.Handle, resourcePath, err)
		}
		return c.NoContent(http.StatusNotFound)
	}

	if respondIfNotModified(c, res.LastModified) {
		return nil
	}
	setLastModifiedHeader(c, res.LastModified)

	stream, err := res.Open()
	if err != nil {
		c.Logger().Errorf("open resource %s/%s: %v", w.Handle, resourcePath, err)
		return c.NoContent(http.StatusInternalServerError)
	}
	defer stream.Close()

	contentType := res.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, stream)
}

// handleMedia serves media files uploaded by users, addressed by ID.
// ?t=true serves the PNG thumbnail instead of the original bytes.
func (a *App) handleMedia(c echo.Context) error {
	w, err := a.lookupWeblog(c)
	if err != nil {
		return err
	}
	mf, err := a.Media.Get(c.Param("id"))
	if err != nil || mf.WeblogHandle != w.Handle {
		return c.NoContent(http.StatusNotFound)
	}

	lastModified := mediaModTime(mf)
	if respondIfNotModified(c, lastModified) {
		return nil
	}
	setLastModifiedHeader(c, lastModified)

	thumbnail := c.QueryParam("t") == "true"
	var stream io.ReadCloser
	contentType := mf.ContentType
	if thumbnail {
		stream, err = a.Media.OpenThumbnail(mf)
		contentType = "image/png"
	} else {
		stream, err = a.Media.Open(mf)
	}
	if err != nil {
		c.Logger().Errorf("open media %s: %v", mf.ID, err)
		return c.NoContent(http.StatusInternalServerError)
	}
	defer stream.Close()

	return c.Stream(http.StatusOK, contentType, stream)
}

func (a *App) handleFeed(c echo.Context) error {
	w, err := a.lookupWeblog(c)
	if err != nil {
		return err
	}
	entries, err := a.Cache.ListEntries(w.Handle, "", "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, w, entries)
}

func (a *App) handleSitemap(c echo.Context) error {
	w, err := a.lookupWeblog(c)
	if err != nil {
		return err
	}
	entries, err := a.Cache.ListEntries(w.Handle, "", "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, w, entries)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
