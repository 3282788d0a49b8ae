package render

import (
	"strings"
	"testing"

	"chatwidget/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"bold", "**hi** there", "<strong>hi</strong> there"},
		{"link", "see [docs](https://x/a?b=1&c=2)", `see <a href="https://x/a?b=1&amp;c=2" target="_blank" rel="noopener noreferrer">docs</a>`},
		{"breaks", "a\nb\r\nc", "a<br>b<br>c"},
		{"escape", "<script>x</script>", "&lt;script&gt;x&lt;/script&gt;"},
		{"unsafe link kept as text", "[x](javascript:alert(1))", "[x](javascript:alert(1))"},
		{"bold does not span lines", "**a\nb**", "**a<br>b**"},
		{"marker untouched", "fact [1]", "fact [1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Markdown(tc.in))
		})
	}
}

type lookupFunc func(int) (types.Source, bool)

func (f lookupFunc) ByNumber(n int) (types.Source, bool) { return f(n) }

func TestRenderBindsFootnotes(t *testing.T) {
	sources := []types.Source{
		{Number: 1, Title: "A", URI: "https://example.com/a"},
		{Number: 2, Title: "B", URI: "https://example.com/b"},
	}
	out := NewRenderer(nil).Render("Fact [2] and [1], again [2]. Missing [9].", types.RoleBot, sources, 7)

	require.Len(t, out.Footnotes, 3)
	assert.Equal(t, types.Footnote{ID: "fn-7-1", MessageID: 7, Number: 2, SourceIndex: 1, URI: "https://example.com/b"}, out.Footnotes[0])
	assert.Equal(t, 1, out.Footnotes[1].Number)
	assert.Equal(t, "fn-7-3", out.Footnotes[2].ID)

	assert.Contains(t, out.HTML, `id="message-7"`)
	assert.Contains(t, out.HTML, `data-source-index="1" data-source-number="2" data-uri="https://example.com/b" aria-label="Source 2: B">[2]</a>`)
	assert.Contains(t, out.HTML, `<span class="footnote-marker">[9]</span>`)
}

func TestRenderUsesRefAndShowsLedgerNumber(t *testing.T) {
	sources := []types.Source{{Number: 4, Ref: 1, Title: "Later", URI: "https://example.com/later"}}
	out := NewRenderer(nil).Render("See [1].", types.RoleBot, sources, 3)

	require.Len(t, out.Footnotes, 1)
	assert.Equal(t, 4, out.Footnotes[0].Number)
	assert.Equal(t, 3, out.Footnotes[0].SourceIndex)
	assert.Contains(t, out.HTML, `>[4]</a>`)
	assert.NotContains(t, out.HTML, "[1]")
}

func TestRenderFallbackLookup(t *testing.T) {
	lookup := lookupFunc(func(n int) (types.Source, bool) {
		if n == 3 {
			return types.Source{Number: 3, Title: "From ledger"}, true
		}
		return types.Source{}, false
	})
	out := NewRenderer(lookup).Render("x [3] y [4]", types.RoleBot, nil, 1)

	require.Len(t, out.Footnotes, 1)
	assert.Equal(t, "", out.Footnotes[0].URI)
	assert.Contains(t, out.HTML, `aria-label="Source 3: From ledger"`)
	assert.Contains(t, out.HTML, `<span class="footnote-marker">[4]</span>`)
}

func TestRenderSkipsMarkersInsideLinks(t *testing.T) {
	sources := []types.Source{{Number: 1, Title: "A", URI: "https://example.com/a"}}
	out := NewRenderer(nil).Render("[[1]](https://example.com/x) and [1]", types.RoleBot, sources, 2)

	assert.Len(t, out.Footnotes, 1)
	assert.Contains(t, out.HTML, `rel="noopener noreferrer">1</a>]`)
	assert.Equal(t, 1, strings.Count(out.HTML, "footnote-link"))
}

func TestRenderUserMessageHasNoFootnotes(t *testing.T) {
	out := NewRenderer(nil).Render("question [1]", types.RoleUser, []types.Source{{Number: 1, Title: "A"}}, 1)
	assert.Empty(t, out.Footnotes)
	assert.Equal(t, `<div class="message user-message" id="message-1" data-message-id="1">question [1]</div>`, out.HTML)
}

func TestDeepLink(t *testing.T) {
	assert.Equal(t, "", DeepLink(types.Source{Title: "x", Snippet: "long enough snippet"}))
	assert.Equal(t, "https://x/a", DeepLink(types.Source{URI: "https://x/a", Snippet: "tiny"}))
	assert.Equal(t, "https://x/a#:~:text=hello%20world%2C%20re%2Dread", DeepLink(types.Source{URI: "https://x/a", Snippet: `"hello **world**, re-read"`}))
	assert.Equal(t, "https://x/a#intro:~:text=some%20text%20here", DeepLink(types.Source{URI: "https://x/a#intro", Snippet: "some text here"}))
}

func TestCleanSnippetCapsOnWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := CleanSnippet("## Heading\n" + long)
	assert.LessOrEqual(t, len([]rune(got)), 150)
	assert.True(t, strings.HasPrefix(got, "Heading word"))
	assert.False(t, strings.HasSuffix(got, " "))
	assert.True(t, strings.HasSuffix(got, "word"))
}

func TestPanel(t *testing.T) {
	sources := []types.Source{
		{Number: 1, Title: "A", URI: "https://example.com/a", Snippet: "alpha snippet text"},
		{Number: 2, Title: "No link", Snippet: "s"},
		{Number: 3, Title: "Bucket", URI: "s3://bucket/key.pdf"},
	}
	out, err := Panel(PanelView{State: "open", Sources: sources, Highlighted: 2, NewSources: true})
	require.NoError(t, err)

	assert.Contains(t, out, `data-state="open"`)
	assert.Contains(t, out, `<span class="sources-count">3</span>`)
	assert.Contains(t, out, `New sources`)
	assert.Contains(t, out, `href="https://example.com/a#:~:text=alpha%20snippet%20text"`)
	assert.Contains(t, out, `<li class="source-item highlighted" id="source-2" data-source-index="1"`)
	assert.Contains(t, out, `<span class="source-nolink">No link available</span>`)
	assert.Contains(t, out, `<span class="source-uri">s3://bucket/key.pdf</span>`)

	empty, err := Panel(PanelView{State: "closed"})
	require.NoError(t, err)
	assert.Contains(t, empty, `<span class="sources-count">0</span>`)
	assert.Contains(t, empty, "No sources yet")
	assert.NotContains(t, empty, "sources-badge")
}

func TestActions(t *testing.T) {
	withLink := Actions(types.Source{Number: 1, URI: "https://x/a"})
	require.Len(t, withLink, 2)
	assert.Equal(t, ActionHighlight, withLink[0].Name)
	assert.Equal(t, ActionOpen, withLink[1].Name)

	noLink := Actions(types.Source{Number: 2, Title: "t"})
	require.Len(t, noLink, 1)
	assert.Equal(t, ActionHighlight, noLink[0].Name)

	menu, err := ActionMenu(1, noLink)
	require.NoError(t, err)
	assert.Contains(t, menu, `data-action="highlight"`)
	assert.NotContains(t, menu, `data-action="open"`)
}
