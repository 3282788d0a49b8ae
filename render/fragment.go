package render

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"chatwidget/types"
)

const (
	maxFragmentRunes = 150
	minFragmentRunes = 5
)

var (
	mdLinkText   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	fragmentRepl = strings.NewReplacer("-", "%2D", "&", "%26", ",", "%2C", "+", "%2B")
	snippetNoise = strings.NewReplacer("**", "", "__", "", "`", "", "“", "", "”", "", "\"", "", "…", " ", "...", " ")
)

// CleanSnippet strips markup and quoting from a snippet and caps it at 150
// runes on a word boundary, so the browser can find it on the target page.
func CleanSnippet(s string) string {
	s = mdLinkText.ReplaceAllString(s, "$1")
	s = snippetNoise.Replace(s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimLeft(strings.TrimSpace(l), "#> ")
	}
	s = strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
	if utf8.RuneCountInString(s) <= maxFragmentRunes {
		return s
	}
	r := []rune(s)[:maxFragmentRunes]
	cut := string(r)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

// DeepLink returns the source URI with a text fragment built from its
// snippet, or "" when the source has no URI.
func DeepLink(s types.Source) string {
	if s.URI == "" {
		return ""
	}
	text := CleanSnippet(s.Snippet)
	if utf8.RuneCountInString(text) <= minFragmentRunes {
		return s.URI
	}
	sep := "#"
	if strings.Contains(s.URI, "#") {
		sep = ""
	}
	return s.URI + sep + ":~:text=" + fragmentRepl.Replace(url.PathEscape(text))
}

// Linkable reports whether a browser can open uri directly.
func Linkable(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		(strings.HasPrefix(lower, "/") && !strings.HasPrefix(lower, "//"))
}
