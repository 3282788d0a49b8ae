package citation

import (
	"chatwidget/types"
)

// Ledger is the deduplicated, append-only list of every source seen in a
// conversation. Numbers are assigned once, in first-seen order, and never
// change until Clear.
//
// A Ledger is not safe for concurrent use; its owner serialises access.
type Ledger struct {
	sources []types.Source
	index   map[string]int
}

func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Merge appends the sources not already present and returns a copy of the
// ledger. firstPopulation is true when the ledger went from empty to
// non-empty in this call.
func (l *Ledger) Merge(incoming []types.Source) (ledger []types.Source, firstPopulation bool) {
	wasEmpty := len(l.sources) == 0
	for _, s := range incoming {
		key := Key(s)
		if _, ok := l.index[key]; ok {
			continue
		}
		s.Number = len(l.sources) + 1
		s.Ref = 0
		l.index[key] = len(l.sources)
		l.sources = append(l.sources, s)
	}
	return l.Sources(), wasEmpty && len(l.sources) > 0
}

func (l *Ledger) Clear() {
	l.sources = nil
	l.index = make(map[string]int)
}

func (l *Ledger) Len() int {
	return len(l.sources)
}

// Sources returns a copy of the ledger.
func (l *Ledger) Sources() []types.Source {
	out := make([]types.Source, len(l.sources))
	copy(out, l.sources)
	return out
}

// At returns the entry at zero-based index i.
func (l *Ledger) At(i int) (types.Source, bool) {
	if i < 0 || i >= len(l.sources) {
		return types.Source{}, false
	}
	return l.sources[i], true
}

func (l *Ledger) ByNumber(n int) (types.Source, bool) {
	return l.At(n - 1)
}

// Lookup finds the ledger entry sharing s's identity.
func (l *Ledger) Lookup(s types.Source) (types.Source, bool) {
	i, ok := l.index[Key(s)]
	if !ok {
		return types.Source{}, false
	}
	return l.sources[i], true
}

// FindURI finds the entry whose URI equals uri, both compared without
// their fragment. Entries with a guessed URI never match.
func (l *Ledger) FindURI(uri string) (types.Source, bool) {
	want := StripFragment(uri)
	if want == "" {
		return types.Source{}, false
	}
	for _, s := range l.sources {
		if s.URI != "" && !s.Guessed && StripFragment(s.URI) == want {
			return s, true
		}
	}
	return types.Source{}, false
}
