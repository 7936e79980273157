// Package htmlsanitize cleans rich-text content (announcements, news
// articles) written in the admin editor before it is stored.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
)

func policies() {
	rich = bluemonday.UGCPolicy()
	rich.AllowElements("u", "s", "mark", "sub", "sup")
	rich.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "td", "th", "p", "span")
	rich.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	rich.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	rich.RequireNoFollowOnLinks(true)

	strict = bluemonday.StrictPolicy()
}

// Sanitize keeps formatting, lists, tables, links and images and drops
// scripts, event handlers, iframes, forms and javascript: URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	once.Do(policies)
	return rich.Sanitize(s)
}

// StripTags removes every tag and returns text suitable for summaries.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	once.Do(policies)
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no HTML tag.
func IsPlainText(s string) bool {
	i := strings.Index(s, "<")
	return i < 0 || !strings.Contains(s[i:], ">")
}

// PlainTextToHTML escapes s and turns newlines into <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	s = html.EscapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// PrepareContent returns storable HTML: plain text is escaped and line
// breaks preserved; HTML is sanitized.
func PrepareContent(s string) string {
	s = strings.TrimSpace(s)
	if IsPlainText(s) {
		return PlainTextToHTML(s)
	}
	return Sanitize(s)
}
