package citation

import (
	"strings"
)

const (
	maxFlatSnippet = 200
	defaultTitle   = "Document"
)

// IsGrouped reports whether v uses the nested citation-group schema, that is
// a list whose objects carry "retrievedReferences".
func IsGrouped(v any) bool {
	for _, item := range asList(v) {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		if _, ok := m["retrievedReferences"]; ok {
			return true
		}
	}
	return false
}

// Flatten converts citation groups with retrieved references into the flat
// list Normalize consumes. References are deduplicated by URI, else by
// (title, snippet); the first occurrence wins.
func Flatten(groups any) []map[string]any {
	var (
		seen = make(map[string]struct{})
		out  = make([]map[string]any, 0)
	)
	for _, g := range asList(groups) {
		group, ok := asMap(g)
		if !ok {
			continue
		}
		for _, r := range asList(group["retrievedReferences"]) {
			ref, ok := asMap(r)
			if !ok {
				continue
			}
			uri := referenceURI(ref)
			snippet := truncate(strings.TrimSpace(stringAt(ref, "content", "text")), maxFlatSnippet)
			if uri == "" && snippet == "" {
				continue
			}

			title := strings.TrimSpace(stringAt(ref, "metadata", "title"))
			if title == "" {
				title = LastSegment(uri)
			}
			if title == "" {
				title = defaultTitle
			}

			key := "u:" + uri
			if uri == "" {
				key = "t:" + title + "\x00" + snippet
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			out = append(out, map[string]any{
				"number":  len(out) + 1,
				"uri":     uri,
				"title":   title,
				"snippet": snippet,
			})
		}
	}
	return out
}

// referenceURI resolves a reference location: a web URL, a storage-object URI,
// or any nested location object exposing url/uri.
func referenceURI(ref map[string]any) string {
	loc, ok := asMap(ref["location"])
	if !ok {
		return ""
	}
	if u := stringAt(loc, "webLocation", "url"); u != "" {
		return strings.TrimSpace(u)
	}
	if u := stringAt(loc, "s3Location", "uri"); u != "" {
		return strings.TrimSpace(u)
	}
	for _, v := range loc {
		nested, ok := asMap(v)
		if !ok {
			continue
		}
		if u := firstString(nested, []string{"url", "uri"}); u != "" {
			return u
		}
	}
	return ""
}

func stringAt(m map[string]any, keys ...string) string {
	var cur any = m
	for _, k := range keys {
		obj, ok := asMap(cur)
		if !ok {
			return ""
		}
		cur = obj[k]
	}
	s, _ := cur.(string)
	return s
}
