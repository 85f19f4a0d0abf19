package weblog

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/weblog/theme"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	weblogs, err := a.Store.ListWeblogs()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(weblogs, msg, CsrfToken(c)))
}

func (a *App) handleAdminWeblog(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	handle := c.Param("handle")
	w, err := a.Store.GetWeblog(handle)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	return a.renderAdminWeblog(c, w, c.QueryParam("msg"))
}

func (a *App) renderAdminWeblog(c echo.Context, w Weblog, msg string) error {
	entries, err := a.Store.ListAllEntries(w.Handle)
	if err != nil {
		return err
	}
	media, err := a.Media.List(w.Handle)
	if err != nil {
		return err
	}
	members, err := a.Store.ListMembers(w.Handle)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminWeblog(w, entries, media, members, a.Themes.Names(), msg, CsrfToken(c)))
}

func (a *App) handleAdminWeblogSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	name := strings.TrimSpace(c.FormValue("name"))
	handle := strings.TrimSpace(c.FormValue("handle"))
	if handle == "" {
		handle = Slugify(name)
	}
	if handle == "" {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=Handle+is+required.+Add+a+name+or+handle.")
	}
	themeName := c.FormValue("theme")
	if _, ok := a.Themes.Theme(themeName); !ok && themeName != theme.Custom {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=Unknown+theme.")
	}
	w := Weblog{
		Handle:      handle,
		Name:        name,
		Description: c.FormValue("description"),
		Theme:       themeName,
		Locale:      strings.TrimSpace(c.FormValue("locale")),
		Visible:     c.FormValue("visible") != "",
	}
	if err := a.Store.SaveWeblog(w); err != nil {
		return err
	}
	return a.renderAdminDashboard(c, "saved")
}

func (a *App) handleAdminEntrySave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	handle := c.FormValue("weblog")
	w, err := a.Store.GetWeblog(handle)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=Unknown+weblog.")
	}
	title := strings.TrimSpace(c.FormValue("title"))
	anchor := strings.TrimSpace(c.FormValue("anchor"))
	if anchor == "" {
		anchor = Slugify(title)
	}
	if anchor == "" {
		return a.renderAdminWeblog(c, w, "Anchor is required. Add a title or anchor.")
	}
	date := strings.TrimSpace(c.FormValue("date"))
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return a.renderAdminWeblog(c, w, "Invalid date format. Use YYYY-MM-DD.")
	}
	tags := FilterEmpty(strings.Split(c.FormValue("tags"), ","))
	entry := Entry{
		WeblogHandle: w.Handle,
		Anchor:       anchor,
		Title:        title,
		Date:         date,
		Category:     strings.TrimSpace(c.FormValue("category")),
		Tags:         tags,
		Summary:      c.FormValue("summary"),
		Content:      c.FormValue("content"),
		Published:    c.FormValue("published") != "",
	}
	if err := a.Store.SaveEntry(entry); err != nil {
		return err
	}
	a.Cache.Invalidate(w.Handle)
	return a.renderAdminWeblog(c, w, "saved")
}

func (a *App) handleAdminEntryDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	handle := c.Param("handle")
	w, err := a.Store.GetWeblog(handle)
	if err != nil {
		return c.NoContent(http.StatusNotFound)
	}
	if err := a.Store.DeleteEntry(handle, c.Param("anchor")); err != nil {
		return err
	}
	a.Cache.Invalidate(handle)
	return a.renderAdminWeblog(c, w, "deleted")
}

func (a *App) handleMediaUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	handle := c.FormValue("weblog")
	w, err := a.Store.GetWeblog(handle)
	if err != nil {
		return c.String(http.StatusBadRequest, "Unknown weblog")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.String(http.StatusBadRequest, "No file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	uploadPath := strings.TrimSpace(c.FormValue("path"))
	if uploadPath == "" {
		uploadPath = file.Filename
	}
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	if _, err := a.Media.Upload(w.Handle, uploadPath, file.Filename, contentType, src); err != nil {
		return c.String(http.StatusBadRequest, "Upload failed: "+err.Error())
	}
	return a.renderAdminWeblog(c, w, "uploaded")
}

func (a *App) handleMediaDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	mf, err := a.Media.Get(c.Param("id"))
	if err != nil {
		return c.NoContent(http.StatusNotFound)
	}
	if err := a.Media.Delete(mf); err != nil {
		return err
	}
	w, err := a.Store.GetWeblog(mf.WeblogHandle)
	if err != nil {
		return a.renderAdminDashboard(c, "deleted")
	}
	return a.renderAdminWeblog(c, w, "deleted")
}

// handleMemberInvite records a pending membership for a user on a weblog.
// Users who already hold a permission, pending or not, cannot be invited
// again. The notification mail is logged rather than sent.
func (a *App) handleMemberInvite(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	handle := c.FormValue("weblog")
	w, err := a.Store.GetWeblog(handle)
	if err != nil {
		return c.String(http.StatusBadRequest, "Unknown weblog")
	}
	username := strings.TrimSpace(c.FormValue("username"))
	if username == "" {
		return a.renderAdminWeblog(c, w, "Username is required.")
	}
	permission := c.FormValue("permission")
	switch permission {
	case PermAdmin, PermPost, PermEditDraft:
	default:
		return a.renderAdminWeblog(c, w, "Unknown permission level.")
	}

	if _, err := a.Store.GetMember(w.Handle, username); err == nil {
		return a.renderAdminWeblog(c, w, "User already has a role on this weblog.")
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	member := Member{
		WeblogHandle: w.Handle,
		Username:     username,
		Permission:   permission,
		Pending:      true,
	}
	if err := a.Store.SaveMember(member); err != nil {
		return err
	}
	c.Logger().Infof("invited %s to %s as %s", username, w.Handle, permission)
	return a.renderAdminWeblog(c, w, "invited")
}

func (a *App) handleAdminConfig(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.renderAdminConfig(c, c.QueryParam("msg"))
}

func (a *App) renderAdminConfig(c echo.Context, msg string) error {
	props, err := a.Store.ListProperties()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminConfig(props, msg, CsrfToken(c)))
}

// handleAdminConfigSave applies the posted runtime property values. Each
// value is validated against the property's declared type; invalid values
// keep the stored value and are reported, valid ones are applied.
func (a *App) handleAdminConfigSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	props, err := a.Store.ListProperties()
	if err != nil {
		return err
	}
	var rejected []string
	for _, p := range props {
		values, ok := c.Request().Form[p.Name]
		if !ok || len(values) == 0 {
			continue
		}
		if err := a.Store.UpdateProperty(p.Name, values[0]); err != nil {
			c.Logger().Errorf("update property %s: %v", p.Name, err)
			rejected = append(rejected, p.Name)
		}
	}
	msg := "saved"
	if len(rejected) > 0 {
		msg = "Invalid values kept unchanged: " + strings.Join(rejected, ", ")
	}
	return a.renderAdminConfig(c, msg)
}
