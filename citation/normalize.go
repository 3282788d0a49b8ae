package citation

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"chatwidget/types"

	"github.com/spf13/cast"
)

var (
	uriFields     = []string{"uri", "url", "href", "link"}
	titleFields   = []string{"title", "name", "label", "document_title"}
	snippetFields = []string{"snippet", "text", "quote", "excerpt", "content", "cited_text"}
)

// Normalize converts any value purporting to be a list of citations into
// sources. It never fails: non-list input yields an empty slice.
//
// An element's own positive numeric "number" field is kept verbatim;
// otherwise the element gets the running count of accepted elements.
func Normalize(v any) []types.Source {
	items := asList(v)
	out := make([]types.Source, 0, len(items))
	for _, item := range items {
		src, ok := normalizeOne(item, len(out)+1)
		if !ok {
			continue
		}
		out = append(out, src)
	}
	return out
}

func normalizeOne(item any, position int) (types.Source, bool) {
	switch it := item.(type) {
	case nil:
		return types.Source{}, false
	case types.Source:
		if it.Title == "" {
			it.Title = fallbackTitle(it.URI, position)
		}
		if it.Number <= 0 {
			it.Number = position
		}
		return it, true
	case *types.Source:
		if it == nil {
			return types.Source{}, false
		}
		return normalizeOne(*it, position)
	case string:
		s := strings.TrimSpace(it)
		if s == "" {
			return types.Source{}, false
		}
		src := types.Source{Number: position}
		if looksLikeURL(s) {
			src.URI = s
			src.Title = fallbackTitle(s, position)
		} else {
			src.Title = s
		}
		return src, true
	}

	fields, ok := asMap(item)
	if !ok {
		return types.Source{}, false
	}

	src := types.Source{
		URI:     firstString(fields, uriFields),
		Title:   firstString(fields, titleFields),
		Snippet: firstString(fields, snippetFields),
	}
	if src.Title == "" {
		src.Title = fallbackTitle(src.URI, position)
	}
	src.Number = position
	if n, ok := explicitNumber(fields["number"]); ok {
		src.Number = n
	}
	return src, true
}

func fallbackTitle(uri string, position int) string {
	if seg := LastSegment(uri); seg != "" {
		return seg
	}
	return fmt.Sprintf("Source %d", position)
}

func explicitNumber(v any) (int, bool) {
	switch n := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || i <= 0 {
			return 0, false
		}
		return i, true
	case float64:
		if n != math.Trunc(n) || n <= 0 {
			return 0, false
		}
	case float32:
		if float64(n) != math.Trunc(float64(n)) || n <= 0 {
			return 0, false
		}
	}
	i, err := cast.ToIntE(v)
	if err != nil || i <= 0 {
		return 0, false
	}
	return i, true
}

func firstString(fields map[string]any, names []string) string {
	for _, name := range names {
		v, ok := fields[name]
		if !ok || v == nil {
			continue
		}
		if nested, ok := asMap(v); ok {
			v = nested["text"]
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	}
	return nil, false
}

// asList accepts any slice or array type; everything else is not a list.
func asList(v any) []any {
	switch l := v.(type) {
	case nil:
		return nil
	case []any:
		return l
	case []map[string]any:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	case []types.Source:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
