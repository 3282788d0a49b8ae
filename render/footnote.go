package render

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"chatwidget/types"
)

var (
	tagRe      = regexp.MustCompile(`<[^>]*>`)
	footnoteRe = regexp.MustCompile(`\[(\d+)\]`)
)

// SourceLookup resolves a ledger number when a marker has no per-message
// source.
type SourceLookup interface {
	ByNumber(n int) (types.Source, bool)
}

type Rendered struct {
	HTML      string
	Footnotes []types.Footnote
}

type Renderer struct {
	fallback SourceLookup
}

func NewRenderer(fallback SourceLookup) *Renderer {
	return &Renderer{fallback: fallback}
}

// Render turns message text into an HTML fragment. For bot messages every
// literal [n] left after markdown conversion becomes a footnote bound to the
// source the text meant by n; the marker shows that source's ledger number.
func (r *Renderer) Render(text string, role types.Role, sources []types.Source, messageID int) Rendered {
	body := Markdown(text)
	var notes []types.Footnote
	if role == types.RoleBot {
		body, notes = r.bindFootnotes(body, sources, messageID)
	}
	return Rendered{
		HTML: fmt.Sprintf(`<div class="message %s-message" id="message-%d" data-message-id="%d">%s</div>`,
			role, messageID, messageID, body),
		Footnotes: notes,
	}
}

func (r *Renderer) bindFootnotes(body string, sources []types.Source, messageID int) (string, []types.Footnote) {
	byMarker := make(map[int]types.Source, len(sources))
	for _, s := range sources {
		if _, ok := byMarker[s.Marker()]; !ok {
			byMarker[s.Marker()] = s
		}
	}

	var (
		sb       strings.Builder
		notes    []types.Footnote
		inAnchor int
		last     int
	)
	replace := func(segment string) string {
		return footnoteRe.ReplaceAllStringFunc(segment, func(m string) string {
			n, _ := strconv.Atoi(m[1 : len(m)-1])
			src, ok := byMarker[n]
			if !ok && r.fallback != nil {
				src, ok = r.fallback.ByNumber(n)
			}
			if !ok || src.Number <= 0 {
				return `<span class="footnote-marker">` + m + `</span>`
			}
			fn := types.Footnote{
				ID:          fmt.Sprintf("fn-%d-%d", messageID, len(notes)+1),
				MessageID:   messageID,
				Number:      src.Number,
				SourceIndex: src.Number - 1,
				URI:         src.URI,
			}
			notes = append(notes, fn)
			return footnoteAnchor(fn, src)
		})
	}

	for _, loc := range tagRe.FindAllStringIndex(body, -1) {
		text := body[last:loc[0]]
		if inAnchor == 0 {
			text = replace(text)
		}
		sb.WriteString(text)
		tag := body[loc[0]:loc[1]]
		switch {
		case strings.HasPrefix(tag, "<a ") || tag == "<a>":
			inAnchor++
		case tag == "</a>" && inAnchor > 0:
			inAnchor--
		}
		sb.WriteString(tag)
		last = loc[1]
	}
	tail := body[last:]
	if inAnchor == 0 {
		tail = replace(tail)
	}
	sb.WriteString(tail)
	return sb.String(), notes
}

func footnoteAnchor(fn types.Footnote, src types.Source) string {
	label := src.Title
	if label == "" {
		label = src.URI
	}
	return fmt.Sprintf(`<a href="#source-%d" class="footnote-link" id="%s" role="button" data-message-id="%d" data-source-index="%d" data-source-number="%d" data-uri="%s" aria-label="%s">[%d]</a>`,
		fn.Number, fn.ID, fn.MessageID, fn.SourceIndex, fn.Number,
		html.EscapeString(src.URI),
		html.EscapeString(fmt.Sprintf("Source %d: %s", fn.Number, label)),
		fn.Number)
}
