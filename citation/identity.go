// Package citation turns loosely shaped backend citation payloads into a
// numbered, deduplicated list of sources that lives for a whole conversation.
package citation

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"chatwidget/types"
)

// Key is the identity of a source inside a conversation: the URI when it
// is non-empty and real, otherwise the exact (title, snippet) pair.
// Guessed URIs are shared by unrelated lines and never identify a source.
func Key(s types.Source) string {
	if s.URI != "" && !s.Guessed {
		return "u:" + s.URI
	}
	return "t:" + s.Title + "\x00" + s.Snippet
}

// Same reports whether a and b are the same source.
func Same(a, b types.Source) bool {
	return Key(a) == Key(b)
}

// StripFragment drops everything from the first '#'.
func StripFragment(uri string) string {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		return uri[:i]
	}
	return uri
}

// LastSegment returns the last path segment of uri with query and fragment
// removed, or "" when there is none.
func LastSegment(uri string) string {
	uri = StripFragment(uri)
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		uri = uri[:i]
	}
	uri = strings.TrimRight(uri, "/")
	if uri == "" {
		return ""
	}
	if u, err := url.Parse(uri); err == nil && u.Path == "" && u.Host != "" {
		return u.Host
	}
	seg := path.Base(uri)
	if seg == "." || seg == "/" {
		return ""
	}
	if dec, err := url.PathUnescape(seg); err == nil {
		seg = dec
	}
	return seg
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func looksLikeURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "s3://") || strings.HasPrefix(s, "/")
}
