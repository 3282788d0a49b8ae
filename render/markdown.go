// Package render produces the HTML fragments of the chat widget: message
// bodies with bound footnotes and the sources panel.
package render

import (
	"html"
	"regexp"
	"strings"
)

var (
	boldRe = regexp.MustCompile(`\*\*([^\n]+?)\*\*`)
	linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
)

// Markdown converts the supported subset (bold, links, line breaks) to HTML.
// Input is escaped first; bold and links are resolved before line breaks so a
// link is never split by a <br>.
func Markdown(text string) string {
	out := html.EscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = linkRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := linkRe.FindStringSubmatch(m)
		href := html.UnescapeString(sub[2])
		if !safeHref(href) {
			return m
		}
		return `<a href="` + html.EscapeString(href) + `" target="_blank" rel="noopener noreferrer">` + sub[1] + `</a>`
	})
	return strings.ReplaceAll(out, "\n", "<br>")
}

func safeHref(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "mailto:"), strings.HasPrefix(lower, "/"),
		strings.HasPrefix(lower, "#"):
		return true
	}
	return !strings.Contains(lower, ":")
}
