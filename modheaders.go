package weblog

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// respondIfNotModified answers a conditional GET with 304 Not Modified when
// the client's If-Modified-Since is at least as fresh as lastModified.
// Returns true when the response was written.
func respondIfNotModified(c echo.Context, lastModified time.Time) bool {
	if lastModified.IsZero() {
		return false
	}
	ims := c.Request().Header.Get("If-Modified-Since")
	if ims == "" {
		return false
	}
	since, err := http.ParseTime(ims)
	if err != nil {
		return false
	}
	// HTTP dates have second precision
	if lastModified.Truncate(time.Second).After(since) {
		return false
	}
	c.Response().WriteHeader(http.StatusNotModified)
	return true
}

// setLastModifiedHeader stamps the response with the resource's
// modification time so clients can revalidate.
func setLastModifiedHeader(c echo.Context, lastModified time.Time) {
	if lastModified.IsZero() {
		return
	}
	c.Response().Header().Set("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
}
