// Package htmlsanitize cleans user-supplied course text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// richPolicy allows the formatting a course description needs.
	richPolicy = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "sub", "sup", "mark")
		p.AllowAttrs("class").OnElements("table", "tr", "td", "th", "code", "pre")
		return p
	}()

	// plainPolicy strips all markup. Used for titles, categories, tags and
	// review comments.
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize returns s with unsafe HTML removed. Safe formatting, links,
// lists and code blocks are kept.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy.Sanitize(s)
}

// StripTags removes every tag from s and trims surrounding whitespace.
// The result is plain text, so entities are decoded again ("Go &amp; Rust"
// comes back as "Go & Rust").
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}

// StripAll applies StripTags to each element, dropping those that end up empty.
func StripAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := StripTags(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsPlainText reports whether s contains no tags.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}
