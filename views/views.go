// Package views provides a default set of templ components for the weblog
// host. Embedding applications can use Default as-is or replace individual
// components through the ViewFuncs struct.
package views

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/weblog"
	"github.com/eringen/weblog/markdown"
)

// Default returns the stock components for a host with the given config.
func Default(cfg weblog.SiteConfig) weblog.ViewFuncs {
	return weblog.ViewFuncs{
		FrontPage:      func(weblogs []weblog.Weblog) templ.Component { return frontPage(cfg, weblogs) },
		Home:           home,
		EntryPage:      entryPage,
		CollectionPage: collectionPage,
		SearchPage:     searchPage,
		AdminLogin:     adminLogin,
		AdminDashboard: adminDashboard,
		AdminWeblog:    adminWeblog,
		AdminConfig:    adminConfig,
		NotFound:       notFound,
		ServerError:    serverError,
	}
}

// component wraps a render function as a templ.Component.
func component(render func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return render(w)
	})
}

func esc(s string) string {
	return html.EscapeString(s)
}

// page writes the shared HTML shell. stylesheet may be empty for pages
// outside any weblog's namespace.
func page(w io.Writer, title, stylesheet string, body func(io.Writer) error) error {
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(w, "<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
	fmt.Fprintf(w, "<title>%s</title>", esc(title))
	if stylesheet != "" {
		fmt.Fprintf(w, "<link rel=\"stylesheet\" href=\"%s\">", esc(stylesheet))
	}
	fmt.Fprint(w, "</head><body>")
	if err := body(w); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "</body></html>")
	return err
}

func weblogPage(wb weblog.Weblog, urls weblog.URLStrategy, title string, body func(io.Writer) error) templ.Component {
	return component(func(w io.Writer) error {
		stylesheet := urls.ResourceURL(wb, "/css/weblog.css", false)
		return page(w, title, stylesheet, func(w io.Writer) error {
			fmt.Fprintf(w, "<header><h1><a href=\"%s\">%s</a></h1>", esc(urls.WeblogURL(wb, "", false)), esc(wb.Name))
			if wb.Description != "" {
				fmt.Fprintf(w, "<p class=\"description\">%s</p>", esc(wb.Description))
			}
			fmt.Fprint(w, "</header>")
			if err := body(w); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "<footer><a href=\"%s\">%s</a></footer>", esc(urls.WeblogURL(wb, "", false)), esc(wb.Name))
			return err
		})
	})
}

func frontPage(cfg weblog.SiteConfig, weblogs []weblog.Weblog) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, cfg.Name, "", func(w io.Writer) error {
			fmt.Fprintf(w, "<h1>%s</h1>", esc(cfg.Name))
			if cfg.Description != "" {
				fmt.Fprintf(w, "<p>%s</p>", esc(cfg.Description))
			}
			fmt.Fprint(w, "<ul>")
			for _, wb := range weblogs {
				fmt.Fprintf(w, "<li><a href=\"/%s/\">%s</a></li>", esc(wb.Handle), esc(wb.Name))
			}
			_, err := fmt.Fprint(w, "</ul>")
			return err
		})
	})
}

func entrySummary(w io.Writer, wb weblog.Weblog, e weblog.Entry, urls weblog.URLStrategy) {
	fmt.Fprint(w, "<article class=\"entry\">")
	fmt.Fprintf(w, "<h2><a href=\"%s\">%s</a></h2>", esc(urls.EntryURL(wb, "", e.Anchor, false)), esc(e.Title))
	entryMeta(w, wb, e, urls)
	if e.Summary != "" {
		fmt.Fprintf(w, "<p>%s</p>", esc(e.Summary))
	}
	fmt.Fprint(w, "</article>")
}

func entryMeta(w io.Writer, wb weblog.Weblog, e weblog.Entry, urls weblog.URLStrategy) {
	fmt.Fprintf(w, "<p class=\"entry-meta\">%s", esc(e.Date))
	if e.Category != "" {
		u := urls.CollectionURL(wb, "", weblog.Collection{Category: e.Category}, false)
		fmt.Fprintf(w, " &middot; <a href=\"%s\">%s</a>", esc(u), esc(e.Category))
	}
	if len(e.Tags) > 0 {
		fmt.Fprint(w, " &middot; <span class=\"tags\">")
		for _, t := range e.Tags {
			u := urls.CollectionURL(wb, "", weblog.Collection{Tags: []string{t}}, false)
			fmt.Fprintf(w, "<a href=\"%s\">%s</a>", esc(u), esc(t))
		}
		fmt.Fprint(w, "</span>")
	}
	fmt.Fprint(w, "</p>")
}

func home(wb weblog.Weblog, entries []weblog.Entry, tags []string, urls weblog.URLStrategy) templ.Component {
	return weblogPage(wb, urls, wb.Name, func(w io.Writer) error {
		for _, e := range entries {
			entrySummary(w, wb, e, urls)
		}
		if len(tags) > 0 {
			fmt.Fprint(w, "<p class=\"tags\">")
			for _, t := range tags {
				u := urls.CollectionURL(wb, "", weblog.Collection{Tags: []string{t}}, false)
				fmt.Fprintf(w, "<a href=\"%s\">%s</a>", esc(u), esc(t))
			}
			fmt.Fprint(w, "</p>")
		}
		return nil
	})
}

func entryPage(wb weblog.Weblog, e weblog.Entry, urls weblog.URLStrategy) templ.Component {
	return weblogPage(wb, urls, e.Title+" — "+wb.Name, func(w io.Writer) error {
		fmt.Fprint(w, "<article class=\"entry\">")
		fmt.Fprintf(w, "<h2>%s</h2>", esc(e.Title))
		entryMeta(w, wb, e, urls)
		if err := markdown.Markdown(e.Content).Render(context.Background(), w); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, "</article>")
		return err
	})
}

func collectionTitle(c weblog.Collection) string {
	switch {
	case c.Category != "":
		return c.Category
	case c.Date != "":
		return c.Date
	case len(c.Tags) > 0:
		return strings.Join(c.Tags, ", ")
	}
	return "Entries"
}

func collectionPage(wb weblog.Weblog, entries []weblog.Entry, c weblog.Collection, urls weblog.URLStrategy) templ.Component {
	title := collectionTitle(c)
	return weblogPage(wb, urls, title+" — "+wb.Name, func(w io.Writer) error {
		fmt.Fprintf(w, "<h2>%s</h2>", esc(title))
		if len(entries) == 0 {
			fmt.Fprint(w, "<p>No entries.</p>")
		}
		for _, e := range entries {
			entrySummary(w, wb, e, urls)
		}
		return nil
	})
}

func searchPage(wb weblog.Weblog, query string, entries []weblog.Entry, urls weblog.URLStrategy) templ.Component {
	return weblogPage(wb, urls, "Search — "+wb.Name, func(w io.Writer) error {
		fmt.Fprint(w, "<form method=\"get\"><input type=\"search\" name=\"q\" value=\""+esc(query)+"\"><button>Search</button></form>")
		if query != "" {
			fmt.Fprintf(w, "<h2>Results for %s</h2>", esc(query))
			if len(entries) == 0 {
				fmt.Fprint(w, "<p>No entries found.</p>")
			}
			for _, e := range entries {
				entrySummary(w, wb, e, urls)
			}
		}
		return nil
	})
}

func adminLogin(showError bool, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Admin", "", func(w io.Writer) error {
			if showError {
				fmt.Fprint(w, "<p>Wrong password.</p>")
			}
			_, err := fmt.Fprintf(w, "<form method=\"post\" action=\"/admin/login/\">"+
				"<input type=\"hidden\" name=\"_csrf\" value=\"%s\">"+
				"<input type=\"password\" name=\"password\" autofocus>"+
				"<button>Log in</button></form>", esc(csrfToken))
			return err
		})
	})
}

func adminDashboard(weblogs []weblog.Weblog, message, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Weblogs", "", func(w io.Writer) error {
			if message != "" {
				fmt.Fprintf(w, "<p>%s</p>", esc(message))
			}
			fmt.Fprint(w, "<h1>Weblogs</h1><ul>")
			for _, wb := range weblogs {
				fmt.Fprintf(w, "<li><a href=\"/admin/weblog/%s/\">%s</a></li>", esc(wb.Handle), esc(wb.Name))
			}
			fmt.Fprint(w, "</ul>")
			_, err := fmt.Fprintf(w, "<h2>New weblog</h2>"+
				"<form method=\"post\" action=\"/admin/weblog/save/\">"+
				"<input type=\"hidden\" name=\"_csrf\" value=\"%s\">"+
				"<input name=\"name\" placeholder=\"Name\">"+
				"<input name=\"handle\" placeholder=\"handle\">"+
				"<input name=\"theme\" value=\"basic\">"+
				"<label><input type=\"checkbox\" name=\"visible\" checked> Visible</label>"+
				"<button>Create</button></form>", esc(csrfToken))
			return err
		})
	})
}

func adminWeblog(wb weblog.Weblog, entries []weblog.Entry, media []weblog.MediaFile, members []weblog.Member, themes []string, message, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, wb.Name, "", func(w io.Writer) error {
			if message != "" {
				fmt.Fprintf(w, "<p>%s</p>", esc(message))
			}
			fmt.Fprintf(w, "<h1>%s</h1>", esc(wb.Name))
			fmt.Fprintf(w, "<p><a href=\"/admin/preview/%s/\">Preview</a>", esc(wb.Handle))
			for _, t := range themes {
				fmt.Fprintf(w, " <a href=\"/admin/preview/%s/?theme=%s\">preview %s</a>", esc(wb.Handle), esc(t), esc(t))
			}
			fmt.Fprint(w, "</p>")

			fmt.Fprint(w, "<h2>Entries</h2><ul>")
			for _, e := range entries {
				status := ""
				if !e.Published {
					status = " (draft)"
				}
				fmt.Fprintf(w, "<li>%s%s</li>", esc(e.Title), status)
			}
			fmt.Fprint(w, "</ul>")

			fmt.Fprint(w, "<h2>Media</h2><ul>")
			for _, mf := range media {
				fmt.Fprintf(w, "<li>%s (%s, %d bytes)</li>", esc(mf.OriginalPath), esc(mf.ContentType), mf.Size)
			}
			fmt.Fprint(w, "</ul>")

			fmt.Fprint(w, "<h2>Members</h2><ul>")
			for _, m := range members {
				pending := ""
				if m.Pending {
					pending = " (pending)"
				}
				fmt.Fprintf(w, "<li>%s: %s%s</li>", esc(m.Username), esc(m.Permission), pending)
			}
			fmt.Fprint(w, "</ul>")

			_, err := fmt.Fprintf(w, "<h2>Invite member</h2>"+
				"<form method=\"post\" action=\"/admin/members/invite/\">"+
				"<input type=\"hidden\" name=\"_csrf\" value=\"%s\">"+
				"<input type=\"hidden\" name=\"weblog\" value=\"%s\">"+
				"<input name=\"username\" placeholder=\"username\">"+
				"<select name=\"permission\">"+
				"<option value=\"edit_draft\">edit drafts</option>"+
				"<option value=\"post\">post</option>"+
				"<option value=\"admin\">admin</option>"+
				"</select><button>Invite</button></form>", esc(csrfToken), esc(wb.Handle))
			return err
		})
	})
}

func adminConfig(props []weblog.RuntimeProperty, message, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Configuration", "", func(w io.Writer) error {
			if message != "" {
				fmt.Fprintf(w, "<p>%s</p>", esc(message))
			}
			fmt.Fprintf(w, "<h1>Configuration</h1><form method=\"post\" action=\"/admin/config/save/\">"+
				"<input type=\"hidden\" name=\"_csrf\" value=\"%s\">", esc(csrfToken))
			for _, p := range props {
				fmt.Fprintf(w, "<label>%s (%s) <input name=\"%s\" value=\"%s\"></label><br>",
					esc(p.Name), esc(p.Type), esc(p.Name), esc(p.Value))
			}
			_, err := fmt.Fprint(w, "<button>Save</button></form>")
			return err
		})
	})
}

func notFound() templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Not found", "", func(w io.Writer) error {
			_, err := fmt.Fprint(w, "<h1>404</h1><p>There is nothing at this address.</p>")
			return err
		})
	})
}

func serverError() templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Error", "", func(w io.Writer) error {
			_, err := fmt.Fprint(w, "<h1>500</h1><p>Something went wrong. Try again later.</p>")
			return err
		})
	})
}
