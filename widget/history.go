package widget

import (
	"strings"

	"chatwidget/types"
)

// MaxHistory is the number of role/content pairs sent back for context:
// the last 10 exchanges.
const MaxHistory = 20

type History struct {
	entries []types.HistoryEntry
}

// Append adds entries and discards the oldest beyond MaxHistory.
func (h *History) Append(entries ...types.HistoryEntry) {
	h.entries = append(h.entries, entries...)
	if over := len(h.entries) - MaxHistory; over > 0 {
		h.entries = append([]types.HistoryEntry(nil), h.entries[over:]...)
	}
}

func (h *History) Entries() []types.HistoryEntry {
	out := make([]types.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int { return len(h.entries) }

func (h *History) Clear() { h.entries = nil }

// Text joins the history contents, used for token accounting.
func (h *History) Text() string {
	var sb strings.Builder
	for _, e := range h.entries {
		sb.WriteString(e.Role)
		sb.WriteString(": ")
		sb.WriteString(e.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
