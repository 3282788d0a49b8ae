package widget

import (
	"sync"
	"time"

	"chatwidget/citation"
	"chatwidget/types"

	"github.com/facebookgo/clock"
)

// Highlight is the transient decoration shared by a panel entry and every
// inline footnote that resolves to the same source.
type Highlight struct {
	SourceNumber int      `json:"source_number"`
	SourceIndex  int      `json:"source_index"`
	FootnoteIDs  []string `json:"footnote_ids"`
}

type Highlighter struct {
	current  *Highlight
	duration time.Duration
	reset    transient
}

func NewHighlighter(c clock.Clock, l sync.Locker, duration time.Duration) *Highlighter {
	return &Highlighter{duration: duration, reset: newTransient(c, l)}
}

// Set replaces any running highlight and restarts the reset timer.
func (h *Highlighter) Set(hl Highlight) {
	h.current = &hl
	h.reset.schedule(h.duration, func() { h.current = nil })
}

func (h *Highlighter) Current() (Highlight, bool) {
	if h.current == nil {
		return Highlight{}, false
	}
	return *h.current, true
}

func (h *Highlighter) Clear() {
	h.current = nil
	h.reset.stop()
}

// footnotesFor collects the footnotes of all messages bound to src. Sources
// with a URI match on the URI without fragment; the others on number.
func footnotesFor(messages []*types.Message, src types.Source) []string {
	ids := make([]string, 0)
	want := citation.StripFragment(src.URI)
	if src.Guessed {
		want = ""
	}
	for _, m := range messages {
		for _, fn := range m.Footnotes {
			if want != "" {
				if citation.StripFragment(fn.URI) == want {
					ids = append(ids, fn.ID)
				}
				continue
			}
			if (fn.URI == "" || src.Guessed) && fn.Number == src.Number {
				ids = append(ids, fn.ID)
			}
		}
	}
	return ids
}
