// Package widget holds the per-conversation state of the chat widget: the
// message list, the citation ledger, the sources panel and the timers that
// drive its transient decorations.
package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"chatwidget/app/agent"
	"chatwidget/citation"
	"chatwidget/render"
	"chatwidget/types"

	"github.com/facebookgo/clock"
	"go.uber.org/zap"
)

const ErrorReplyText = "Sorry, I'm having trouble connecting right now. Please try again later."

const (
	DefaultHighlightDuration   = 2 * time.Second
	DefaultTransitionTimeout   = 500 * time.Millisecond
	DefaultNotificationTimeout = 3 * time.Second
	DefaultStatusTimeout       = 4 * time.Second
	DefaultLanguage            = "en"
)

// Chatter sends one turn to the chat backend.
type Chatter interface {
	Chat(ctx context.Context, req types.ChatRequest) (*types.Reply, error)
}

// Emitter records metric events. Implementations must not block.
type Emitter interface {
	Emit(event string, payload map[string]any)
}

// TokenCounter reports how many tokens a text encodes to.
type TokenCounter func(text string) (int, error)

type Options struct {
	Clock               clock.Clock
	Logger              *zap.Logger
	Extractor           *citation.Extractor
	Metrics             Emitter
	TokenCounter        TokenCounter
	DefaultLanguage     string
	HighlightDuration   time.Duration
	TransitionTimeout   time.Duration
	NotificationTimeout time.Duration
	StatusTimeout       time.Duration
	// IdleTimeout evicts sessions nobody touched for that long. Zero keeps
	// sessions until they are deleted.
	IdleTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.DefaultLanguage == "" {
		o.DefaultLanguage = DefaultLanguage
	}
	if o.HighlightDuration <= 0 {
		o.HighlightDuration = DefaultHighlightDuration
	}
	if o.TransitionTimeout <= 0 {
		o.TransitionTimeout = DefaultTransitionTimeout
	}
	if o.NotificationTimeout <= 0 {
		o.NotificationTimeout = DefaultNotificationTimeout
	}
	if o.StatusTimeout <= 0 {
		o.StatusTimeout = DefaultStatusTimeout
	}
	return o
}

const (
	StatusAttached = "attached"
	StatusError    = "error"
)

// Status is the attachment line shown above the input.
type Status struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Turn is the outcome of one send: the echoed user message (absent on a
// retry), the bot reply and what happened to the panel.
type Turn struct {
	User        *types.Message `json:"user,omitempty"`
	Bot         *types.Message `json:"bot"`
	Sources     []types.Source `json:"sources"`
	PanelOpened bool           `json:"panel_opened"`
	Notified    bool           `json:"notified"`
}

// Session is one open chat. Every exported method takes the session lock,
// so intents apply one at a time in arrival order.
type Session struct {
	ID       string
	ClientID string

	mu     sync.Mutex
	opts   Options
	logger *zap.Logger
	client Chatter

	ledger      *citation.Ledger
	renderer    *render.Renderer
	history     History
	messages    []*types.Message
	nextID      int
	generation  uint64
	busy        bool
	language    string
	attachment  *types.Attachment
	status      *Status
	statusTimer transient
	panel       *Panel
	highlighter *Highlighter
	lastActive  time.Time
}

func NewSession(id, clientID string, client Chatter, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		ID:       id,
		ClientID: clientID,
		opts:     opts,
		logger:   opts.Logger.With(zap.String("session", id)),
		client:   client,
		ledger:   citation.NewLedger(),
		language: opts.DefaultLanguage,
	}
	s.lastActive = opts.Clock.Now()
	s.renderer = render.NewRenderer(s.ledger)
	s.statusTimer = newTransient(opts.Clock, &s.mu)
	s.panel = NewPanel(opts.Clock, &s.mu, opts.TransitionTimeout, opts.NotificationTimeout)
	s.highlighter = NewHighlighter(opts.Clock, &s.mu, opts.HighlightDuration)
	return s
}

// Send posts text, and the pending attachment if any, to the backend.
func (s *Session) Send(ctx context.Context, text string) (*Turn, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" && s.attachment == nil {
		s.mu.Unlock()
		return nil, ErrEmptyMessage
	}
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}

	att := s.attachment
	s.attachment = nil
	s.clearStatus()

	user := s.appendMessage(types.RoleUser, text, nil)
	if att != nil {
		user.AttachmentName = att.Name
	}
	return s.exchange(ctx, text, att, cloneMessage(user))
}

// Retry replays the exact text and attachment of a failed turn.
func (s *Session) Retry(ctx context.Context, messageID int) (*Turn, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	m := s.message(messageID)
	if m == nil || m.Retry == nil {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	payload := *m.Retry
	m.Retry = nil
	return s.exchange(ctx, payload.Text, payload.Attachment, nil)
}

// exchange is entered with the lock held and releases it for the backend
// call. The reply is applied only if the conversation was not cleared in
// the meantime.
func (s *Session) exchange(ctx context.Context, text string, att *types.Attachment, user *types.Message) (*Turn, error) {
	s.busy = true
	gen := s.generation
	req := types.ChatRequest{
		Message:             text,
		ConversationHistory: s.history.Entries(),
		UserLanguage:        s.language,
		OutputLanguage:      s.language,
		Attachment:          att,
	}
	s.logHistory()
	s.mu.Unlock()

	start := time.Now()
	reply, err := s.client.Chat(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug("dropping reply for cleared conversation")
		return nil, ErrStaleReply
	}
	s.busy = false

	turn := &Turn{User: user}
	if err != nil {
		payload := map[string]any{"error": err.Error()}
		var se *agent.StatusError
		if errors.As(err, &se) {
			payload["status"] = se.Code
		}
		s.emit("message_send_error", payload)
		s.logger.Warn("chat request failed", zap.Error(err), zap.Duration("took", time.Since(start)))

		bot := s.appendMessage(types.RoleBot, ErrorReplyText, nil)
		bot.Failed = true
		bot.Retry = &types.RetryPayload{Text: text, Attachment: att}
		turn.Bot = cloneMessage(bot)
		turn.Sources = s.ledger.Sources()
		return turn, nil
	}

	s.receive(turn, text, att, reply)
	s.logger.Debug("reply applied",
		zap.Int("message", turn.Bot.ID),
		zap.Int("sources", len(turn.Bot.Sources)),
		zap.Int("ledger", len(turn.Sources)),
		zap.Duration("took", time.Since(start)),
	)
	return turn, nil
}

// receive runs the citation pipeline over a reply and renders it.
func (s *Session) receive(turn *Turn, text string, att *types.Attachment, reply *types.Reply) {
	incoming, extracted := ReplySources(reply, s.opts.Extractor)
	if extracted {
		s.emit("sources_extracted", map[string]any{"count": len(incoming)})
	}

	before := s.ledger.Len()
	ledger, first := s.ledger.Merge(incoming)

	bot := s.appendMessage(types.RoleBot, reply.Text, s.snapshot(incoming))
	turn.Bot = cloneMessage(bot)
	turn.Sources = ledger

	switch {
	case first:
		turn.PanelOpened = s.panel.Open()
	case len(ledger) > before:
		turn.Notified = s.panel.Notify()
	}

	userEntry := types.HistoryEntry{Role: string(types.RoleUser), Content: text}
	if att != nil {
		userEntry.HasAttachment = true
		userEntry.AttachmentName = att.Name
	}
	s.history.Append(userEntry, types.HistoryEntry{Role: "assistant", Content: reply.Text})
}

// ReplySources resolves the sources of one reply: structured citations
// when present, otherwise whatever the extractor finds in the rendered text.
// extracted reports that the second path produced them.
func ReplySources(reply *types.Reply, ex *citation.Extractor) (sources []types.Source, extracted bool) {
	raw := reply.Sources
	if reply.Grouped {
		raw = citation.Flatten(raw)
	}
	sources = citation.Normalize(raw)
	if len(sources) > 0 || ex == nil {
		return sources, false
	}
	sources = ex.Extract(render.Markdown(reply.Text))
	return sources, len(sources) > 0
}

// snapshot maps the turn's sources onto their ledger entries, remembering
// the number the answer text used when the ledger numbered it differently.
func (s *Session) snapshot(incoming []types.Source) []types.Source {
	out := make([]types.Source, 0, len(incoming))
	for _, src := range incoming {
		entry, ok := s.ledger.Lookup(src)
		if !ok {
			continue
		}
		if src.Number != entry.Number {
			entry.Ref = src.Number
		}
		out = append(out, entry)
	}
	return out
}

func (s *Session) appendMessage(role types.Role, text string, sources []types.Source) *types.Message {
	s.nextID++
	id := s.nextID
	rendered := s.renderer.Render(text, role, sources, id)
	m := &types.Message{
		ID:        id,
		Role:      role,
		Text:      text,
		HTML:      rendered.HTML,
		Sources:   sources,
		Footnotes: rendered.Footnotes,
		CreatedAt: s.opts.Clock.Now(),
	}
	s.messages = append(s.messages, m)
	return m
}

func (s *Session) message(id int) *types.Message {
	for _, m := range s.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Clear empties the conversation. A reply still in flight is discarded when
// it arrives. Message ids keep counting.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Session) clear() {
	s.generation++
	s.busy = false
	s.ledger.Clear()
	s.history.Clear()
	s.messages = nil
	s.attachment = nil
	s.clearStatus()
	s.highlighter.Clear()
	s.panel.clearBadge()
}

// Close clears the session and cancels all of its timers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.panel.Stop()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = now
}

// idle reports whether nothing used the session for d. A request in flight
// keeps it alive.
func (s *Session) idle(now time.Time, d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.busy && now.Sub(s.lastActive) >= d
}

// Attach validates a file and holds it for the next send. A rejected file
// leaves an error status that clears itself.
func (s *Session) Attach(name string, data []byte) (*types.Attachment, error) {
	att, err := ValidateAttachment(name, data)
	if err != nil {
		s.RejectAttachment(name, len(data), err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = att
	s.setStatus(Status{Kind: StatusAttached, Text: att.Name})
	s.emit("file_attached", map[string]any{
		"name":         att.Name,
		"size":         att.Size,
		"content_type": att.ContentType,
	})
	out := *att
	return &out, nil
}

// RejectAttachment records a file refused before it reached the session.
func (s *Session) RejectAttachment(name string, size int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = nil
	s.setStatus(Status{Kind: StatusError, Text: err.Error()})
	s.emit("attachment_rejected", map[string]any{"name": name, "size": size})
}

// Detach drops the pending attachment.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = nil
	s.clearStatus()
}

// DismissStatus hides an error status before its timer does.
func (s *Session) DismissStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != nil && s.status.Kind == StatusError {
		s.clearStatus()
	}
}

func (s *Session) setStatus(st Status) {
	s.status = &st
	if st.Kind == StatusError {
		s.statusTimer.schedule(s.opts.StatusTimeout, func() { s.status = nil })
		return
	}
	s.statusTimer.stop()
}

func (s *Session) clearStatus() {
	s.status = nil
	s.statusTimer.stop()
}

func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

func (s *Session) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = lang
}

// OpenPanel, ClosePanel and TransitionEnd drive the panel state machine.
func (s *Session) OpenPanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel.Open()
}

func (s *Session) ClosePanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel.Close()
}

func (s *Session) TogglePanel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panel.Toggle()
}

func (s *Session) TransitionEnd(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panel.TransitionEnd(phase)
}

func (s *Session) Sources() []types.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Sources()
}

func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, *cloneMessage(m))
	}
	return out
}

func (s *Session) History() []types.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

type PanelSnapshot struct {
	State PanelState `json:"state"`
	Phase string     `json:"phase,omitempty"`
	Badge bool       `json:"badge"`
	Count int        `json:"count"`
}

// View is the JSON state of a session returned to the host page.
type View struct {
	ID         string            `json:"id"`
	Language   string            `json:"language"`
	Busy       bool              `json:"busy"`
	Panel      PanelSnapshot     `json:"panel"`
	Sources    []types.Source    `json:"sources"`
	Highlight  *Highlight        `json:"highlight,omitempty"`
	Status     *Status           `json:"status,omitempty"`
	Attachment *types.Attachment `json:"attachment,omitempty"`
	Messages   int               `json:"messages"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:       s.ID,
		Language: s.language,
		Busy:     s.busy,
		Panel: PanelSnapshot{
			State: s.panel.State(),
			Phase: s.panel.Phase(),
			Badge: s.panel.Badge(),
			Count: s.ledger.Len(),
		},
		Sources:  s.ledger.Sources(),
		Messages: len(s.messages),
	}
	if hl, ok := s.highlighter.Current(); ok {
		v.Highlight = &hl
	}
	if s.status != nil {
		st := *s.status
		v.Status = &st
	}
	if s.attachment != nil {
		att := *s.attachment
		v.Attachment = &att
	}
	return v
}

// PanelHTML renders the sources panel for the current ledger.
func (s *Session) PanelHTML() (string, error) {
	s.mu.Lock()
	view := render.PanelView{
		State:      string(s.panel.State()),
		Phase:      s.panel.Phase(),
		Sources:    s.ledger.Sources(),
		NewSources: s.panel.Badge(),
	}
	if hl, ok := s.highlighter.Current(); ok {
		view.Highlighted = hl.SourceNumber
	}
	s.mu.Unlock()
	return render.Panel(view)
}

func (s *Session) logHistory() {
	if s.opts.TokenCounter == nil {
		return
	}
	n, err := s.opts.TokenCounter(s.history.Text())
	if err != nil {
		s.logger.Debug("token count failed", zap.Error(err))
		return
	}
	s.logger.Info("conversation history",
		zap.Int("entries", s.history.Len()),
		zap.Int("tokens", n),
	)
}

// emit never lets a metrics failure reach the caller.
func (s *Session) emit(event string, payload map[string]any) {
	if s.opts.Metrics == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("metric emit panicked", zap.String("event", event), zap.Any("panic", r))
		}
	}()
	s.opts.Metrics.Emit(event, payload)
}

func cloneMessage(m *types.Message) *types.Message {
	out := *m
	out.Sources = append([]types.Source(nil), m.Sources...)
	out.Footnotes = append([]types.Footnote(nil), m.Footnotes...)
	if m.Retry != nil {
		r := *m.Retry
		out.Retry = &r
	}
	return &out
}
