// Package markdown renders weblog entry content as HTML, exposed as a templ
// component. It covers the subset entry authors actually use: headings,
// paragraphs, lists, block quotes, fenced code, and inline emphasis, code,
// links and images.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reLink       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reImg        = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
	reOrdered    = regexp.MustCompile(`^\d+\.\s`)
)

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of md to buf.
func Render(buf *bytes.Buffer, md string) {
	lines := strings.Split(md, "\n")
	inPara := false
	inList := false
	inOrdered := false
	inQuote := false
	inCode := false

	closePara := func() {
		if inPara {
			buf.WriteString("</p>")
			inPara = false
		}
	}
	closeList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
		if inOrdered {
			buf.WriteString("</ol>")
			inOrdered = false
		}
	}
	closeQuote := func() {
		if inQuote {
			buf.WriteString("</blockquote>")
			inQuote = false
		}
	}
	closeBlocks := func() {
		closePara()
		closeList()
		closeQuote()
	}

	for _, line := range lines {
		if inCode {
			if strings.HasPrefix(line, "```") {
				buf.WriteString("</code></pre>")
				inCode = false
				continue
			}
			buf.WriteString(html.EscapeString(line))
			buf.WriteByte('\n')
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			closeBlocks()
			buf.WriteString("<pre><code>")
			inCode = true

		case trimmed == "":
			closeBlocks()

		case strings.HasPrefix(trimmed, "### "):
			closeBlocks()
			buf.WriteString("<h3>" + inline(strings.TrimPrefix(trimmed, "### ")) + "</h3>")

		case strings.HasPrefix(trimmed, "## "):
			closeBlocks()
			buf.WriteString("<h2>" + inline(strings.TrimPrefix(trimmed, "## ")) + "</h2>")

		case strings.HasPrefix(trimmed, "# "):
			closeBlocks()
			buf.WriteString("<h1>" + inline(strings.TrimPrefix(trimmed, "# ")) + "</h1>")

		case strings.HasPrefix(trimmed, "> "):
			closePara()
			closeList()
			if !inQuote {
				buf.WriteString("<blockquote>")
				inQuote = true
			}
			buf.WriteString(inline(strings.TrimPrefix(trimmed, "> ")) + " ")

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			closePara()
			closeQuote()
			if inOrdered {
				buf.WriteString("</ol>")
				inOrdered = false
			}
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>" + inline(trimmed[2:]) + "</li>")

		case reOrdered.MatchString(trimmed):
			closePara()
			closeQuote()
			if inList {
				buf.WriteString("</ul>")
				inList = false
			}
			if !inOrdered {
				buf.WriteString("<ol>")
				inOrdered = true
			}
			item := reOrdered.ReplaceAllString(trimmed, "")
			buf.WriteString("<li>" + inline(item) + "</li>")

		default:
			closeList()
			closeQuote()
			if !inPara {
				buf.WriteString("<p>")
				inPara = true
			} else {
				buf.WriteByte(' ')
			}
			buf.WriteString(inline(trimmed))
		}
	}

	if inCode {
		buf.WriteString("</code></pre>")
	}
	closePara()
	closeList()
	closeQuote()
}

// inline escapes text and applies inline markup: images, links, bold,
// italic, inline code. Escaping happens first so markup regexes run over
// safe text.
func inline(text string) string {
	text = html.EscapeString(text)

	text = reImg.ReplaceAllStringFunc(text, func(m string) string {
		parts := reImg.FindStringSubmatch(m)
		src := safeURL(parts[2])
		if src == "" {
			return ""
		}
		return `<img src="` + src + `" alt="` + parts[1] + `" loading="lazy">`
	})

	text = reLink.ReplaceAllStringFunc(text, func(m string) string {
		parts := reLink.FindStringSubmatch(m)
		href := safeURL(parts[2])
		if href == "" {
			return parts[1]
		}
		return `<a href="` + href + `">` + parts[1] + `</a>`
	})

	text = reBold.ReplaceAllString(text, "<strong>$1</strong>")
	text = reItalic.ReplaceAllString(text, "<em>$1</em>")
	text = reInlineCode.ReplaceAllString(text, "<code>$1</code>")
	return text
}

// safeURL rejects URLs with schemes other than http(s) and relative paths.
func safeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}
