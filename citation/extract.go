package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"chatwidget/types"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	DefaultBaseURL = "https://docs.example.com"
	genericDocPath = "docs"
	maxWordsTitle  = 4
	maxTitleRunes  = 20
)

var (
	markerLineRe = regexp.MustCompile(`^\[(\d+)\]\s*(.*)$`)
	quotedRe     = regexp.MustCompile(`^["“](.+?)["”]\s*[—–]\s*(.*)$`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)
)

// Extractor recovers sources that a backend embedded as plain "[n] ..." lines
// in the answer text. It works on the rendered HTML of the message.
type Extractor struct {
	baseURL  string
	keywords []Keyword
}

func NewExtractor(baseURL string, keywords []Keyword) *Extractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	return &Extractor{
		baseURL:  strings.TrimRight(baseURL, "/"),
		keywords: keywords,
	}
}

// line is one visual line of the rendered message with the links it holds.
type line struct {
	text  string
	hrefs []string
}

// Extract returns the sources listed in fragment, numbered by the [n] the
// lines carry. The result follows line order and is not guaranteed to be
// contiguous or sorted.
func (e *Extractor) Extract(fragment string) []types.Source {
	lines := tokenize(fragment)
	out := make([]types.Source, 0)
	seen := make(map[int]struct{})
	for _, l := range lines {
		m := markerLineRe.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, e.parseLine(n, strings.TrimSpace(m[2]), l.hrefs))
	}
	return out
}

func (e *Extractor) parseLine(n int, rest string, hrefs []string) types.Source {
	var title, snippet, uri string

	if m := quotedRe.FindStringSubmatch(rest); m != nil && singleToken(m[2]) {
		snippet = strings.TrimSpace(m[1])
		uri = pickURL(strings.TrimSpace(m[2]), hrefs)
	} else if i := strings.LastIndex(rest, "—"); i >= 0 && singleToken(rest[i+len("—"):]) {
		title = strings.TrimSpace(rest[:i])
		uri = pickURL(strings.TrimSpace(rest[i+len("—"):]), hrefs)
	} else {
		snippet = rest
		if len(hrefs) > 0 {
			uri = hrefs[0]
		} else if mm := mdLinkRe.FindStringSubmatch(rest); mm != nil {
			uri = mm[2]
			snippet = strings.TrimSpace(mdLinkRe.ReplaceAllString(rest, "$1"))
		}
	}
	if i := strings.Index(uri, "#L"); i >= 0 {
		uri = uri[:i]
	}

	src := types.Source{Number: n, Title: title, URI: uri, Snippet: snippet}
	if src.Title == "" {
		src.Title = e.deriveTitle(n, snippet)
	}
	if src.URI == "" {
		src.URI = e.guessURL(snippet + " " + title)
		src.Guessed = true
	}
	return src
}

func (e *Extractor) deriveTitle(n int, snippet string) string {
	if k, ok := matchKeyword(e.keywords, snippet); ok {
		return k.Title
	}
	words := strings.Fields(snippet)
	if len(words) == 0 {
		return fmt.Sprintf("Source %d", n)
	}
	if len(words) > maxWordsTitle {
		words = words[:maxWordsTitle]
	}
	t := strings.Join(words, " ")
	if utf8.RuneCountInString(t) > maxTitleRunes {
		t = strings.TrimSpace(truncate(t, maxTitleRunes)) + "..."
	}
	return t
}

func (e *Extractor) guessURL(text string) string {
	if k, ok := matchKeyword(e.keywords, text); ok {
		return e.baseURL + "/" + strings.Trim(k.Path, "/")
	}
	return e.baseURL + "/" + genericDocPath
}

// pickURL prefers the visible URL text; when that is not URL-like (for
// example an anchor labelled with a name) the anchor's href wins.
func pickURL(visible string, hrefs []string) string {
	if looksLikeURL(visible) || len(hrefs) == 0 {
		if mm := mdLinkRe.FindStringSubmatch(visible); mm != nil {
			return mm[2]
		}
		return visible
	}
	return hrefs[0]
}

func singleToken(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.ContainsAny(s, " \t")
}

// tokenize parses an HTML fragment into visual lines. A bold element whose
// text starts with "Sources" discards everything collected before it.
func tokenize(fragment string) []line {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	t := &tokenizer{}
	for _, n := range doc.Find("body").Nodes {
		t.walkChildren(n)
	}
	t.flush()
	return t.lines
}

type tokenizer struct {
	lines  []line
	cur    strings.Builder
	hrefs  []string
	marker bool
}

func (t *tokenizer) flush() {
	text := strings.Join(strings.Fields(t.cur.String()), " ")
	if text != "" || len(t.hrefs) > 0 {
		t.lines = append(t.lines, line{text: text, hrefs: t.hrefs})
	}
	t.cur.Reset()
	t.hrefs = nil
}

func (t *tokenizer) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.walk(c)
	}
}

func (t *tokenizer) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		t.cur.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		t.walkChildren(n)
		return
	}

	switch n.DataAtom {
	case atom.Br:
		t.flush()
	case atom.Strong, atom.B:
		text := strings.TrimSpace(goquery.NewDocumentFromNode(n).Text())
		if !t.marker && strings.HasPrefix(strings.ToLower(text), "sources") {
			t.marker = true
			t.lines = nil
			t.cur.Reset()
			t.hrefs = nil
			return
		}
		t.walkChildren(n)
	case atom.A:
		for _, a := range n.Attr {
			if a.Key == "href" && a.Val != "" && !strings.HasPrefix(a.Val, "#") {
				t.hrefs = append(t.hrefs, a.Val)
			}
		}
		t.walkChildren(n)
	case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.Tr,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		t.flush()
		t.walkChildren(n)
		t.flush()
	case atom.Script, atom.Style:
	default:
		t.walkChildren(n)
	}
}
