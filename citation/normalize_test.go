package citation

import (
	"encoding/json"
	"testing"

	"chatwidget/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestNormalizeNeverFails(t *testing.T) {
	inputs := []any{
		nil,
		"not a list",
		42,
		map[string]any{"uri": "https://x/a"},
		[]any{nil, nil},
		decode(t, `{"sources": []}`),
	}
	for _, in := range inputs {
		out := Normalize(in)
		assert.NotNil(t, out, "input %#v", in)
		assert.Empty(t, out, "input %#v", in)
	}
}

func TestNormalizeAliases(t *testing.T) {
	in := decode(t, `[
		{"url": "https://example.com/guide?x=1#top", "name": "Guide", "quote": "read this"},
		{"href": "https://example.com/docs/setup.html", "excerpt": "install it"},
		{"link": "", "label": "Just a label", "text": "plain"},
		{"content": {"text": "nested content"}}
	]`)

	out := Normalize(in)
	require.Len(t, out, 4)

	assert.Equal(t, types.Source{Number: 1, Title: "Guide", URI: "https://example.com/guide?x=1#top", Snippet: "read this"}, out[0])
	assert.Equal(t, "setup.html", out[1].Title)
	assert.Equal(t, "install it", out[1].Snippet)
	assert.Equal(t, "Just a label", out[2].Title)
	assert.Empty(t, out[2].URI)
	assert.Equal(t, "Source 4", out[3].Title)
	assert.Equal(t, "nested content", out[3].Snippet)
}

func TestNormalizeTitleFromPathStripsQueryAndFragment(t *testing.T) {
	out := Normalize([]any{map[string]any{"uri": "https://example.com/a/b/report.pdf?sig=abc#page=2"}})
	require.Len(t, out, 1)
	assert.Equal(t, "report.pdf", out[0].Title)
}

func TestNormalizeNumbering(t *testing.T) {
	t.Run("explicit numeric number is kept", func(t *testing.T) {
		out := Normalize(decode(t, `[{"uri":"https://x/a","number":7},{"uri":"https://x/b"}]`))
		require.Len(t, out, 2)
		assert.Equal(t, 7, out[0].Number)
		assert.Equal(t, 2, out[1].Number)
	})

	t.Run("non numeric number is ignored", func(t *testing.T) {
		out := Normalize(decode(t, `[{"uri":"https://x/a","number":"seven"},{"uri":"https://x/b","number":1.5}]`))
		require.Len(t, out, 2)
		assert.Equal(t, 1, out[0].Number)
		assert.Equal(t, 2, out[1].Number)
	})

	t.Run("null elements do not consume numbers", func(t *testing.T) {
		out := Normalize(decode(t, `[null, {"uri":"https://x/a"}, null, 12, {"uri":"https://x/b"}]`))
		require.Len(t, out, 2)
		assert.Equal(t, 1, out[0].Number)
		assert.Equal(t, 2, out[1].Number)
		assert.Equal(t, "b", out[1].Title)
	})
}

func TestNormalizeStringElements(t *testing.T) {
	out := Normalize([]string{"https://example.com/faq", "Internal handbook"})
	require.Len(t, out, 2)
	assert.Equal(t, "https://example.com/faq", out[0].URI)
	assert.Equal(t, "faq", out[0].Title)
	assert.Equal(t, "Internal handbook", out[1].Title)
	assert.Empty(t, out[1].URI)
}

func TestNormalizeTypedSources(t *testing.T) {
	out := Normalize([]types.Source{{URI: "https://x/a"}, {Title: "kept", Number: 5}})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Title)
	assert.Equal(t, 1, out[0].Number)
	assert.Equal(t, 5, out[1].Number)
}
