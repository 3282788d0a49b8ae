package widget

import (
	"fmt"

	"chatwidget/render"
	"chatwidget/types"

	"go.uber.org/zap"
)

const (
	IntentActivate  = "activate"
	IntentHighlight = "highlight"
	IntentOpen      = "open"
	IntentFootnote  = "footnote"
)

// Intent is a user gesture on a source: a panel item (SourceIndex) or an
// inline footnote (MessageID, Number, URI). SourceIndex is -1 when unknown.
type Intent struct {
	Action      string
	SourceIndex int
	MessageID   int
	Number      int
	URI         string
}

type Outcome struct {
	Source      *types.Source   `json:"source,omitempty"`
	Actions     []render.Action `json:"actions,omitempty"`
	Menu        string          `json:"menu,omitempty"`
	Highlight   *Highlight      `json:"highlight,omitempty"`
	OpenURL     string          `json:"open_url,omitempty"`
	PanelOpened bool            `json:"panel_opened,omitempty"`
}

type intentHandler func(s *Session, in Intent) (*Outcome, error)

var intentHandlers = map[string]intentHandler{
	IntentActivate:  (*Session).activateSource,
	IntentHighlight: (*Session).highlightSource,
	IntentOpen:      (*Session).openSource,
	IntentFootnote:  (*Session).activateFootnote,
}

// Dispatch routes an intent to its handler under the session lock.
func (s *Session) Dispatch(in Intent) (*Outcome, error) {
	h, ok := intentHandlers[in.Action]
	if !ok {
		return nil, fmt.Errorf("%w: action %q", ErrNotFound, in.Action)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return h(s, in)
}

func (s *Session) sourceAt(index int) (types.Source, error) {
	src, ok := s.ledger.At(index)
	if !ok {
		return types.Source{}, fmt.Errorf("%w: source %d", ErrNotFound, index)
	}
	return src, nil
}

// activateSource is the primary activation of a panel item: it offers the
// context actions for that source.
func (s *Session) activateSource(in Intent) (*Outcome, error) {
	src, err := s.sourceAt(in.SourceIndex)
	if err != nil {
		return nil, err
	}
	actions := render.Actions(src)
	menu, err := render.ActionMenu(in.SourceIndex, actions)
	if err != nil {
		s.logger.Warn("action menu render failed", zap.Error(err))
	}
	return &Outcome{Source: &src, Actions: actions, Menu: menu}, nil
}

func (s *Session) highlightSource(in Intent) (*Outcome, error) {
	src, err := s.sourceAt(in.SourceIndex)
	if err != nil {
		return nil, err
	}
	hl := s.highlight(src)
	return &Outcome{Source: &src, Highlight: &hl}, nil
}

func (s *Session) openSource(in Intent) (*Outcome, error) {
	src, err := s.sourceAt(in.SourceIndex)
	if err != nil {
		return nil, err
	}
	link := render.DeepLink(src)
	if link == "" {
		return nil, fmt.Errorf("%w: source %d has no link", ErrNotFound, src.Number)
	}
	return &Outcome{Source: &src, OpenURL: link}, nil
}

// activateFootnote opens the panel if needed and highlights the source a
// footnote points at.
func (s *Session) activateFootnote(in Intent) (*Outcome, error) {
	src, ok := s.resolveFootnote(in)
	if !ok {
		return nil, fmt.Errorf("%w: footnote [%d]", ErrNotFound, in.Number)
	}
	opened := s.panel.Open()
	hl := s.highlight(src)
	return &Outcome{Source: &src, Highlight: &hl, PanelOpened: opened}, nil
}

// resolveFootnote tries the URI first, then the number stored on the
// message, then the panel position.
func (s *Session) resolveFootnote(in Intent) (types.Source, bool) {
	if in.URI != "" {
		if src, ok := s.ledger.FindURI(in.URI); ok {
			return src, true
		}
	}
	if m := s.message(in.MessageID); m != nil {
		for _, snap := range m.Sources {
			if snap.Number != in.Number {
				continue
			}
			if src, ok := s.ledger.Lookup(snap); ok {
				return src, true
			}
		}
	}
	if in.SourceIndex >= 0 {
		if src, ok := s.ledger.At(in.SourceIndex); ok {
			return src, true
		}
	}
	return s.ledger.ByNumber(in.Number)
}

func (s *Session) highlight(src types.Source) Highlight {
	hl := Highlight{
		SourceNumber: src.Number,
		SourceIndex:  src.Number - 1,
		FootnoteIDs:  footnotesFor(s.messages, src),
	}
	s.highlighter.Set(hl)
	return hl
}
