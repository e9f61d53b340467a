// Package excerpt derives a short plain-text teaser from an article body.
package excerpt

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

const MaxRunes = 280

// Submitted bodies have no origin; readability still wants a base for links.
var baseURL = &url.URL{Scheme: "https", Host: "newsdesk.invalid", Path: "/"}

// Excerpter turns a submitted body into a teaser. The workflow depends on
// this interface so tests can stub extraction.
type Excerpter interface {
	Excerpt(content string) string
}

// ReadabilityExcerpter parses HTML bodies with go-readability and falls back
// to the leading plain text when parsing yields nothing useful.
type ReadabilityExcerpter struct{}

func (ReadabilityExcerpter) Excerpt(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if strings.HasPrefix(content, "<") {
		doc, err := readability.FromReader(strings.NewReader(content), baseURL)
		if err == nil {
			if s := clean(doc.Excerpt); s != "" {
				return truncate(s)
			}
			if s := clean(doc.TextContent); s != "" {
				return truncate(s)
			}
		}
	}
	return truncate(clean(content))
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:MaxRunes-1])) + "…"
}
